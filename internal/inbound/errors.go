package inbound

import "errors"

var (
	// ErrRawNotFound indicates the raw email object was missing from storage.
	ErrRawNotFound = errors.New("raw email not found in storage")

	// ErrInvalidRecipient indicates no recipient mapped to a local inbox.
	ErrInvalidRecipient = errors.New("no valid recipient found")

	// ErrReservedRecipient indicates the recipient username is reserved.
	ErrReservedRecipient = errors.New("recipient username is reserved")
)
