package apperrors

import "errors"

// ErrNotFound indicates that a requested reference row (e.g. a currency) does not exist.
var ErrNotFound = errors.New("resource not found")

// ErrInvalidCurrencyCode indicates a currency code that is not three uppercase letters.
var ErrInvalidCurrencyCode = errors.New("invalid currency code")

// ErrUnknownStagingTable is returned when a caller names a table that is not a staging table.
var ErrUnknownStagingTable = errors.New("unknown staging table")

// ErrMalformedPayload marks a raw snapshot or row missing required fields.
var ErrMalformedPayload = errors.New("malformed payload")

// ErrNoRows marks a raw file from which no staging row could be written.
var ErrNoRows = errors.New("no rows written")
