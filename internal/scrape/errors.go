package scrape

import "errors"

var (
	// ErrAuthenticationFailed is returned when a login flow does not end on
	// an authenticated page.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrInvalidRecord is returned by record builders missing a required field.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrInvalidPage is returned by PageBuilder.Build without a url.
	ErrInvalidPage = errors.New("invalid page")
	// ErrExpansionIncomplete is reported (never returned) when a "load more"
	// control was still present after the expansion budget ran out.
	ErrExpansionIncomplete = errors.New("expansion incomplete")
)
