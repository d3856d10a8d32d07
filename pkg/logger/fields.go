package logger

const (
	FieldChannel   = "channel"
	FieldMessageTS = "message_ts"
	FieldError     = "error"
	FieldName      = "org_name"
	FieldState     = "state"
	FieldOutcome   = "outcome"
	FieldErrorKind = "error_kind"
	FieldReaction  = "reaction"
	FieldPreview   = "preview"

	FieldMessageContentLength = "message_content_length"
	FieldReportLength         = "report_length"
	FieldDurationMS           = "duration_ms"
)
