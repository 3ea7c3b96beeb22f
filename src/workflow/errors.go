package workflow

import "errors"

// Error kinds. Handlers map these to status codes with errors.Is.
var (
	ErrMissingState      = errors.New("missing session state")
	ErrUpstream          = errors.New("upstream api failure")
	ErrBadPayload        = errors.New("malformed payload")
	ErrExpired           = errors.New("invoice link expired")
	ErrIneligibleAccount = errors.New("account is not an eligible checking or savings account")
)
