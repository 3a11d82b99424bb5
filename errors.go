package goff

import "errors"

// Errors returned by the goFF packages are wrappers around one of these
// values, so callers can tell a physically impossible request (ErrValue)
// from a programming mistake (ErrKey, ErrType) with errors.Is.
var (
	// ErrKey marks an unknown name: catalog entry, order, property, uid,
	// unit, unit context or mixing rule.
	ErrKey = errors.New("key error")

	// ErrType marks data of the wrong shape or kind, such as a non-numeric
	// parameter or a malformed unit expression.
	ErrType = errors.New("type error")

	// ErrValue marks values that are well formed but cannot be represented,
	// such as an all-zero dihedral or a scaling factor outside [0,1].
	ErrValue = errors.New("value error")

	// ErrConflict is returned, together with ErrKey, when a caller-supplied
	// uid is already bound to a different value.
	ErrConflict = errors.New("uid conflict")
)
