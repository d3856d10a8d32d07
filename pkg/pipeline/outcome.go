package pipeline

// State is a step of a single lookup run.
type State string

const (
	StateIdle             State = "idle"
	StateExtracting       State = "extracting"
	StateExtractionFailed State = "extraction_failed"
	StateSearching        State = "searching"
	StateLookupFailed     State = "lookup_failed"
	StateFound            State = "found"
	StateNotFound         State = "not_found"
	StateDelivered        State = "delivered"
)

type OutcomeKind string

const (
	// Delivered means the report reached the user.
	Delivered OutcomeKind = "delivered"
	// DeliveredError means the user received an error message.
	DeliveredError OutcomeKind = "delivered_error"
	// Unrecoverable means nothing definitive could be delivered.
	Unrecoverable OutcomeKind = "unrecoverable"
)

type ErrorKind string

const (
	ErrorNone                 ErrorKind = ""
	ErrorSourceMessageMissing ErrorKind = "source_message_missing"
	ErrorExtractionFailed     ErrorKind = "extraction_failed"
	ErrorNotFound             ErrorKind = "not_found"
	ErrorAPI                  ErrorKind = "api_error"
	ErrorDeliveryFailed       ErrorKind = "delivery_failed"
)

// Outcome is the terminal value of a run.
type Outcome struct {
	Kind      OutcomeKind
	ErrorKind ErrorKind
	// State is the last state reached; Trace lists every state in order.
	State State
	Trace []State
	// Name is the extracted organization name, empty if extraction did not
	// produce one.
	Name string
	// Text is the last message text sent to the user (report or error).
	Text string
	Err  error
}

// Report returns the rendered report for Delivered outcomes.
func (o Outcome) Report() string {
	if o.Kind != Delivered {
		return ""
	}
	return o.Text
}
