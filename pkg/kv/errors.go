package kv

import (
	"github.com/cockroachdb/errors"
)

// Kind classifies every error returned by this package.
type Kind uint8

const (
	KindNone Kind = iota
	KindTypeConstraint
	KindAlreadyOpen
	KindInUse
	KindClosedHandle
	KindMode
	KindEngine
)

var kindNames = [...]string{
	KindNone:           "ok",
	KindTypeConstraint: "type_constraint",
	KindAlreadyOpen:    "already_open",
	KindInUse:          "in_use",
	KindClosedHandle:   "closed_handle",
	KindMode:           "mode",
	KindEngine:         "engine",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

var (
	// ErrTypeConstraint is returned when a key or value is not a byte sequence.
	// Nothing reaches the engine in that case.
	ErrTypeConstraint = errors.New("kv: type constraint violated")
	// ErrAlreadyOpen is returned when opening a path that a live handle holds.
	ErrAlreadyOpen = errors.New("kv: database is already open")
	// ErrInUse is returned by Destroy and Repair on a path that a live handle holds.
	ErrInUse = errors.New("kv: database is in use")
	// ErrClosedHandle is returned by every operation on a closed handle.
	ErrClosedHandle = errors.New("kv: database handle is closed")
	// ErrMode is returned when an operation does not apply to the handle's mode.
	ErrMode = errors.New("kv: operation not supported in this mode")
	// ErrEngine marks failures reported by the storage engine.
	ErrEngine = errors.New("kv: storage engine failure")
)

// KindOf maps err onto the taxonomy. Errors not produced by this package are
// reported as KindEngine.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrTypeConstraint):
		return KindTypeConstraint
	case errors.Is(err, ErrAlreadyOpen):
		return KindAlreadyOpen
	case errors.Is(err, ErrInUse):
		return KindInUse
	case errors.Is(err, ErrClosedHandle):
		return KindClosedHandle
	case errors.Is(err, ErrMode):
		return KindMode
	default:
		return KindEngine
	}
}

// engineFailure carries an engine error unchanged while matching ErrEngine.
type engineFailure struct {
	cause error
}

func (e *engineFailure) Error() string        { return e.cause.Error() }
func (e *engineFailure) Cause() error         { return e.cause }
func (e *engineFailure) Unwrap() error        { return e.cause }
func (e *engineFailure) Is(target error) bool { return target == ErrEngine }

// engineError marks an engine failure, keeping the engine's message as is.
// Errors that already belong to the taxonomy are returned unchanged.
func engineError(err error) error {
	if err == nil {
		return nil
	}
	if k := KindOf(err); k != KindEngine || errors.Is(err, ErrEngine) {
		return err
	}
	return &engineFailure{cause: err}
}

func typeError(v any) error {
	return errors.Wrapf(ErrTypeConstraint, "expected bytes, got %T", v)
}
