// Package media defines the shared data model passed between the muxer,
// segmenter, and CENC layers: stream/sample/segment descriptors, the
// public error surface, and the small collaborator interfaces
// (CodecConfig, KeySource, Notifier, Clock) that keep those layers
// decoupled from demuxing, key acquisition, and manifest generation.
package media

import "fmt"

// Code is a coarse classification of a Status, modeled on shaka-packager's
// status codes (status.h) rather than a flat error string, so callers can
// branch on failure class without parsing messages.
type Code int

const (
	CodeOK Code = iota
	CodeUnknown
	CodeInvalidArgument
	CodeUnimplemented
	CodeFileFailure
	CodeParserFailure
	CodeMuxerFailure
	CodeFragmentFinalized
	CodeCancelled
	CodeEndOfStream
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidArgument:
		return "invalid argument"
	case CodeUnimplemented:
		return "unimplemented"
	case CodeFileFailure:
		return "file failure"
	case CodeParserFailure:
		return "parser failure"
	case CodeMuxerFailure:
		return "muxer failure"
	case CodeFragmentFinalized:
		return "fragment finalized"
	case CodeCancelled:
		return "cancelled"
	case CodeEndOfStream:
		return "end of stream"
	default:
		return "unknown"
	}
}

// Status is a classified error value, a Code plus a message, that
// implements error (§7). The zero Status is OK. The functions of this
// module return wrapped stdlib errors (fmt.Errorf); none returns a Status.
type Status struct {
	Code    Code
	Message string
}

// OK reports whether s represents success.
func (s Status) OK() bool { return s.Code == CodeOK }

func (s Status) Error() string {
	if s.Message == "" {
		return s.Code.String()
	}
	return fmt.Sprintf("%s: %s", s.Code, s.Message)
}

// NewStatus builds a Status with a formatted message.
func NewStatus(code Code, format string, args ...any) Status {
	return Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// StatusOK is the canonical success value.
var StatusOK = Status{Code: CodeOK}
