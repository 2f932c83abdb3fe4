package pdfcore

import "fmt"

// ErrorKind classifies the recoverable and unrecoverable failure modes
// a caller of this package may need to distinguish.
type ErrorKind uint8

const (
	KindStructureError ErrorKind = iota
	KindXRefParseError
	KindObjectParseError
	KindMaxDepthExceeded
	KindCircularReference
	KindEncryptionDictError
	KindPermissionDenied
	KindUnsupportedCredentials
	KindWriterError
)

func (k ErrorKind) String() string {
	switch k {
	case KindStructureError:
		return "StructureError"
	case KindXRefParseError:
		return "XRefParseError"
	case KindObjectParseError:
		return "ObjectParseError"
	case KindMaxDepthExceeded:
		return "MaxDepthExceeded"
	case KindCircularReference:
		return "CircularReference"
	case KindEncryptionDictError:
		return "EncryptionDictError"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindUnsupportedCredentials:
		return "UnsupportedCredentials"
	case KindWriterError:
		return "WriterError"
	default:
		return "UnknownError"
	}
}

// Error wraps an underlying failure with its classification, so a
// caller can decide (per the recovery policy table) whether to abort
// loading or continue with a recorded warning.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Recoverable reports whether a document load should continue (with a
// warning recorded) rather than abort outright for an error of this
// kind. Only malformed xref/object-structure problems are recoverable
// here, since this core's brute-force recovery path exists precisely
// to route around them; permission and credential failures are never
// silently downgraded.
func (k ErrorKind) Recoverable() bool {
	switch k {
	case KindStructureError, KindXRefParseError, KindObjectParseError, KindCircularReference:
		return true
	default:
		return false
	}
}
