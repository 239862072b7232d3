// Package source defines the errors shared by listing-source implementations.
package source

import "errors"

// ErrUnavailable means the results page could not be fetched or no longer
// looks like a results page. Callers treat both the same way.
var ErrUnavailable = errors.New("listing source unavailable")
