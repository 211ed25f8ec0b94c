package generate

import "errors"

var (
	// ErrDestinationExists is returned when the destination holds files and
	// Force is not set.
	ErrDestinationExists = errors.New("destination already exists")
	// ErrPathCollision is returned when a generated file would overwrite an
	// existing one.
	ErrPathCollision = errors.New("path collision")
	// ErrUnattachedChild is returned in strict mode when a child entry has no
	// owning object.
	ErrUnattachedChild = errors.New("child entry has no owner")
	// ErrAmbiguousOwner is returned in strict mode when a child entry could
	// belong to more than one object.
	ErrAmbiguousOwner = errors.New("child entry has more than one owner")
)
