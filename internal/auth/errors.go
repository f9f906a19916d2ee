package auth

import "errors"

// ErrInvalidToken wraps every bearer token rejection.
var ErrInvalidToken = errors.New("auth: invalid token")
