package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"charitybot/pkg/logger"
	"charitybot/pkg/metrics"
	"charitybot/pkg/pipeline"
	"charitybot/pkg/verify"
)

const maxBodyBytes = 1 << 20

const eventReactionAdded = "reaction_added"

type eventEnvelope struct {
	Type      string      `json:"type"`
	Challenge string      `json:"challenge"`
	Event     *slackEvent `json:"event"`
}

type slackEvent struct {
	Type     string    `json:"type"`
	Reaction string    `json:"reaction"`
	User     string    `json:"user"`
	Item     eventItem `json:"item"`
}

type eventItem struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

// isTrigger reports whether env is a reaction_added event for triggerKey on a
// message the pipeline can address.
func isTrigger(env *eventEnvelope, triggerKey string) bool {
	if env == nil || env.Event == nil {
		return false
	}
	ev := env.Event
	if ev.Type != eventReactionAdded || ev.Reaction != triggerKey {
		return false
	}
	return ev.Item.Channel != "" && ev.Item.TS != ""
}

var okResponse = map[string]bool{"ok": true}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.WarnCF("webhook", "Failed to read request body", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		s.metrics.ObserveWebhook(metrics.ResultBadRequest)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if s.devModeActive() {
		s.metrics.ObserveWebhook(metrics.ResultDev)
		s.handleDev(r.Context(), w, body)
		return
	}

	var env eventEnvelope
	decodeErr := json.Unmarshal(body, &env)
	if decodeErr == nil && env.Challenge != "" {
		logger.InfoC("webhook", "Answering URL verification challenge")
		s.metrics.ObserveWebhook(metrics.ResultChallenge)
		writeJSON(w, http.StatusOK, map[string]string{"challenge": env.Challenge})
		return
	}

	if !s.verifier.Verify(body, r.Header.Get(verify.SignatureHeader), r.Header.Get(verify.TimestampHeader)) {
		logger.WarnC("webhook", "Invalid Slack signature")
		s.metrics.ObserveWebhook(metrics.ResultUnauthorized)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
		return
	}

	if decodeErr != nil {
		logger.WarnCF("webhook", "Ignoring undecodable event", map[string]interface{}{
			logger.FieldError: decodeErr.Error(),
		})
		s.metrics.ObserveWebhook(metrics.ResultIgnored)
		writeJSON(w, http.StatusOK, okResponse)
		return
	}

	if !isTrigger(&env, s.config.App.TriggerEmoji) {
		fields := map[string]interface{}{}
		if env.Event != nil {
			fields["event_type"] = env.Event.Type
			fields[logger.FieldReaction] = env.Event.Reaction
		}
		logger.DebugCF("webhook", "Ignoring event", fields)
		s.metrics.ObserveWebhook(metrics.ResultIgnored)
		writeJSON(w, http.StatusOK, okResponse)
		return
	}

	req := pipeline.Request{
		ConversationID: env.Event.Item.Channel,
		MessageTS:      env.Event.Item.TS,
	}
	logger.InfoCF("webhook", "Trigger reaction received", map[string]interface{}{
		logger.FieldChannel:   req.ConversationID,
		logger.FieldMessageTS: req.MessageTS,
		logger.FieldReaction:  env.Event.Reaction,
	})
	s.metrics.ObserveWebhook(metrics.ResultDispatched)

	// Runs to completion even if the client disconnects.
	s.pipeline.Run(context.WithoutCancel(r.Context()), req)
	writeJSON(w, http.StatusOK, okResponse)
}
