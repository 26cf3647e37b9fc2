package render

import "errors"

var (
	// ErrConfiguration covers an unreadable template, a template that
	// cannot be filled, and missing required forecast entries.
	ErrConfiguration = errors.New("render: configuration error")

	// ErrDataShape covers weather or event records that lack a field the
	// dashboard needs.
	ErrDataShape = errors.New("render: malformed input data")
)
