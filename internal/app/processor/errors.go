package processor

import "fmt"

//ErrKind classifies a processing failure
type ErrKind int

//Processing failure kinds
const (
	KindOther ErrKind = iota
	KindConfiguration
	KindTranscription
	KindPersistence
)

func (k ErrKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTranscription:
		return "transcription"
	case KindPersistence:
		return "persistence"
	}
	return "other"
}

//ProcError is a processing failure with its kind attached
type ProcError struct {
	Kind ErrKind
	Err  error
}

func (e *ProcError) Error() string {
	return fmt.Sprintf("%s failure: %v", e.Kind, e.Err)
}

func (e *ProcError) Unwrap() error {
	return e.Err
}

func procErr(kind ErrKind, err error) *ProcError {
	return &ProcError{Kind: kind, Err: err}
}
