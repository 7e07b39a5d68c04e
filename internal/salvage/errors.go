package salvage

import "errors"

// Failure kinds, one per parse stage. Test with errors.Is.
var (
	ErrEnvelope      = errors.New("unparseable response envelope")
	ErrEmptyOutput   = errors.New("empty model output")
	ErrNoJSON        = errors.New("no JSON object in model output")
	ErrMalformedJSON = errors.New("malformed JSON in model output")
)

// Error is a salvage failure. Raw is the text the failing stage looked at;
// it may contain model output and must only reach server-side diagnostics.
type Error struct {
	Kind error
	Raw  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Error() + ": " + e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
