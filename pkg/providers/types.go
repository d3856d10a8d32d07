package providers

import "context"

type ResultKind int

const (
	KindValue ResultKind = iota
	KindEmpty
	KindFailure
)

func (k ResultKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindEmpty:
		return "empty"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Result separates "the provider ran and found nothing" (KindEmpty) from
// "the provider could not run" (KindFailure).
type Result[T any] struct {
	Kind  ResultKind
	Value T
	Err   error
}

func Found[T any](v T) Result[T] {
	return Result[T]{Kind: KindValue, Value: v}
}

func Empty[T any]() Result[T] {
	return Result[T]{Kind: KindEmpty}
}

func Failed[T any](err error) Result[T] {
	return Result[T]{Kind: KindFailure, Err: err}
}

type Citation struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
}

type OrganizationRecord struct {
	Name           string     `json:"name"`
	RegistrationID *string    `json:"registrationId"`
	Activities     string     `json:"activities"`
	Areas          []string   `json:"areas"`
	Website        *string    `json:"website"`
	FoundedYear    *string    `json:"foundedYear"`
	Summary        string     `json:"summary"`
	Citations      []Citation `json:"citations"`
}

// NameExtractor pulls an organization name out of free text. A message that
// names no organization is an Empty result, not a failure.
type NameExtractor interface {
	ExtractName(ctx context.Context, text string) Result[string]
}

// LookupProvider resolves an organization name to a record. Empty means the
// provider answered but had nothing credible.
type LookupProvider interface {
	Lookup(ctx context.Context, name string) Result[*OrganizationRecord]
}

// Provider is implemented by backends that serve both roles.
type Provider interface {
	NameExtractor
	LookupProvider
	ID() string
}
