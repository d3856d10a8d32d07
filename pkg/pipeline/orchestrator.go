// Package pipeline runs one charity lookup from a trigger to a delivered
// Slack reply.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"charitybot/pkg/channels"
	"charitybot/pkg/logger"
	"charitybot/pkg/providers"
	"charitybot/pkg/report"
)

// Request identifies the message a trigger reaction was added to.
type Request struct {
	ConversationID string
	MessageTS      string
}

// RunObserver receives one call per finished run.
type RunObserver interface {
	ObserveRun(outcome, errorKind string, elapsed time.Duration)
}

type Option func(*Orchestrator)

func WithObserver(obs RunObserver) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator sequences fetch, extract, placeholder, lookup and update.
// It holds no per-run state and is safe for concurrent use.
type Orchestrator struct {
	messenger channels.Messenger
	extractor providers.NameExtractor
	lookup    providers.LookupProvider
	observer  RunObserver
	now       func() time.Time
}

func NewOrchestrator(messenger channels.Messenger, extractor providers.NameExtractor, lookup providers.LookupProvider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		messenger: messenger,
		extractor: extractor,
		lookup:    lookup,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SearchingText is the placeholder posted while the lookup runs.
func SearchingText(name string) string {
	return fmt.Sprintf("🔍 Searching for \"%s\"...", name)
}

type run struct {
	req   Request
	trace []State
}

func (r *run) enter(s State) {
	r.trace = append(r.trace, s)
}

func (r *run) finish(kind OutcomeKind, errKind ErrorKind, name, text string, err error) Outcome {
	return Outcome{
		Kind:      kind,
		ErrorKind: errKind,
		State:     r.trace[len(r.trace)-1],
		Trace:     r.trace,
		Name:      name,
		Text:      text,
		Err:       err,
	}
}

func (r *run) fields(extra map[string]interface{}) map[string]interface{} {
	f := map[string]interface{}{
		logger.FieldChannel:   r.req.ConversationID,
		logger.FieldMessageTS: r.req.MessageTS,
		logger.FieldState:     string(r.trace[len(r.trace)-1]),
	}
	for k, v := range extra {
		f[k] = v
	}
	return f
}

// Run performs one lookup for req. Every external call is made at most once;
// failures are converted into user-visible messages where one can still be
// delivered. Run never panics on collaborator errors and never retries.
func (o *Orchestrator) Run(ctx context.Context, req Request) Outcome {
	start := o.now()
	out := o.run(ctx, req)
	elapsed := o.now().Sub(start)

	fields := map[string]interface{}{
		logger.FieldChannel:    req.ConversationID,
		logger.FieldMessageTS:  req.MessageTS,
		logger.FieldOutcome:    string(out.Kind),
		logger.FieldState:      string(out.State),
		logger.FieldDurationMS: elapsed.Milliseconds(),
	}
	if out.ErrorKind != ErrorNone {
		fields[logger.FieldErrorKind] = string(out.ErrorKind)
	}
	if out.Name != "" {
		fields[logger.FieldName] = out.Name
	}
	if out.Err != nil {
		fields[logger.FieldError] = out.Err.Error()
	}
	if out.Kind == Unrecoverable {
		logger.ErrorCF("pipeline", "Lookup run ended without delivery", fields)
	} else {
		logger.InfoCF("pipeline", "Lookup run finished", fields)
	}

	if o.observer != nil {
		o.observer.ObserveRun(string(out.Kind), string(out.ErrorKind), elapsed)
	}
	return out
}

func (o *Orchestrator) run(ctx context.Context, req Request) Outcome {
	r := &run{req: req}
	r.enter(StateIdle)

	source := channels.MessageRef{ConversationID: req.ConversationID, Timestamp: req.MessageTS}
	text, err := o.messenger.FetchMessage(ctx, source)
	if err != nil {
		if !errors.Is(err, channels.ErrMessageNotFound) {
			err = fmt.Errorf("%w: %v", channels.ErrMessageNotFound, err)
		}
		logger.WarnCF("pipeline", "Could not retrieve original message", r.fields(map[string]interface{}{
			logger.FieldError: err.Error(),
		}))
		msg := report.RenderError("", report.ErrorAPI)
		if _, postErr := o.messenger.PostMessage(ctx, req.ConversationID, req.MessageTS, msg); postErr != nil {
			logger.ErrorCF("pipeline", "Failed to post error message", r.fields(map[string]interface{}{
				logger.FieldError: postErr.Error(),
			}))
			return r.finish(Unrecoverable, ErrorSourceMessageMissing, "", "", errors.Join(err, postErr))
		}
		return r.finish(Unrecoverable, ErrorSourceMessageMissing, "", msg, err)
	}

	r.enter(StateExtracting)
	extracted := o.extractor.ExtractName(ctx, text)
	switch extracted.Kind {
	case providers.KindEmpty:
		r.enter(StateExtractionFailed)
		logger.InfoCF("pipeline", "No charity name found in message", r.fields(map[string]interface{}{
			logger.FieldMessageContentLength: len(text),
		}))
		return o.postFinal(ctx, r, ErrorExtractionFailed, report.RenderError("", report.ErrorExtractionFailed), nil)
	case providers.KindFailure:
		r.enter(StateExtractionFailed)
		logger.WarnCF("pipeline", "Name extraction failed", r.fields(map[string]interface{}{
			logger.FieldError: errString(extracted.Err),
		}))
		return o.postFinal(ctx, r, ErrorAPI, report.RenderError("", report.ErrorAPI), extracted.Err)
	}

	name := extracted.Value
	r.enter(StateSearching)
	placeholder, err := o.messenger.PostMessage(ctx, req.ConversationID, req.MessageTS, SearchingText(name))
	if err != nil {
		logger.ErrorCF("pipeline", "Failed to post progress message", r.fields(map[string]interface{}{
			logger.FieldName:  name,
			logger.FieldError: err.Error(),
		}))
		return r.finish(Unrecoverable, ErrorDeliveryFailed, name, "", err)
	}

	found := o.lookup.Lookup(ctx, name)
	var (
		kind    OutcomeKind
		errKind ErrorKind
		msg     string
		runErr  error
	)
	switch found.Kind {
	case providers.KindValue:
		if found.Value == nil {
			r.enter(StateNotFound)
			kind, errKind, msg = DeliveredError, ErrorNotFound, report.RenderError(name, report.ErrorNotFound)
			break
		}
		r.enter(StateFound)
		kind, msg = Delivered, report.RenderReport(found.Value, name)
	case providers.KindEmpty:
		r.enter(StateNotFound)
		kind, errKind, msg = DeliveredError, ErrorNotFound, report.RenderError(name, report.ErrorNotFound)
	default:
		r.enter(StateLookupFailed)
		logger.WarnCF("pipeline", "Charity lookup failed", r.fields(map[string]interface{}{
			logger.FieldName:  name,
			logger.FieldError: errString(found.Err),
		}))
		kind, errKind, msg, runErr = DeliveredError, ErrorAPI, report.RenderError(name, report.ErrorAPI), found.Err
	}

	if err := o.messenger.UpdateMessage(ctx, placeholder, msg); err != nil {
		// The placeholder stays as is; posting again would duplicate it.
		logger.ErrorCF("pipeline", "Failed to update progress message", r.fields(map[string]interface{}{
			logger.FieldName:         name,
			logger.FieldError:        err.Error(),
			logger.FieldReportLength: len(msg),
		}))
		return r.finish(Unrecoverable, ErrorDeliveryFailed, name, "", errors.Join(runErr, err))
	}

	r.enter(StateDelivered)
	return r.finish(kind, errKind, name, msg, runErr)
}

// postFinal posts text as the only reply of a run that never reaches the
// lookup stage.
func (o *Orchestrator) postFinal(ctx context.Context, r *run, errKind ErrorKind, text string, cause error) Outcome {
	if _, err := o.messenger.PostMessage(ctx, r.req.ConversationID, r.req.MessageTS, text); err != nil {
		logger.ErrorCF("pipeline", "Failed to post error message", r.fields(map[string]interface{}{
			logger.FieldError: err.Error(),
		}))
		return r.finish(Unrecoverable, ErrorDeliveryFailed, "", "", errors.Join(cause, err))
	}
	r.enter(StateDelivered)
	return r.finish(DeliveredError, errKind, "", text, cause)
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
