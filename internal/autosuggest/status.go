// Package autosuggest places initial marker suggestions using a face-landmark
// detector, and reconciles them with the current marker set.
package autosuggest

// Status tracks the detection state machine:
// idle -> loading -> {success | no-face | error}.
// A manual re-run re-enters loading from any terminal state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusNoFace
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusNoFace:
		return "no-face"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a resting state a re-run may start from.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusNoFace || s == StatusError
}
