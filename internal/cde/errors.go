package cde

import "errors"

var (
	// ErrDuplicateHazard is returned when an entity is registered twice.
	ErrDuplicateHazard = errors.New("hazard already registered")
	// ErrUnknownHazard is returned when removing an entity that is not registered.
	ErrUnknownHazard = errors.New("hazard not registered")
	// ErrDegenerateHazard is returned for hazards without a usable polygon.
	ErrDegenerateHazard = errors.New("degenerate hazard shape")
	// ErrInvalidConfig is returned by Config.Validate and New.
	ErrInvalidConfig = errors.New("invalid cde config")
)
