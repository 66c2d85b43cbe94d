package loupe

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSurface is returned by New when the surface has no positive
	// renderable area or a non-positive pixel ratio.
	ErrInvalidSurface = errors.New("invalid surface")
	// ErrInvalidOptions is returned when zoom bounds are inconsistent or an
	// options document fails schema validation.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrNotLoaded is returned by operations that need a loaded image.
	ErrNotLoaded = errors.New("image not loaded")
	// ErrClosed is returned by operations on a closed viewer.
	ErrClosed = errors.New("viewer closed")
)

// ConfigError reports a viewer that could not be initialized. It wraps
// ErrInvalidSurface or ErrInvalidOptions.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// LoadError reports a failed image fetch or decode. The viewer stays inert
// and Show may be called again.
type LoadError struct {
	Src string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q: %v", e.Src, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
