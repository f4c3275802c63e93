package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the listing service is unreachable
	ErrServerOffline = errors.New("listing service is unreachable")

	// ErrUnexpectedStatus indicates a remote answered with a non-2xx status
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrEmptyURL indicates a mark was requested for an empty listing url
	ErrEmptyURL = errors.New("listing url is empty")

	// ErrNoResultSet indicates no listing result set has been fetched yet
	ErrNoResultSet = errors.New("no result set loaded")
)
