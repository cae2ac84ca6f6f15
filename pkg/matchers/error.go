package matchers

import "errors"

var (
	errHandshakeTimeout  = errors.New("simulation id handshake timed out")
	errUnknownEvent      = errors.New("unknown event")
	errMissingCredential = errors.New("missing username or password")
	errLoginFailed       = errors.New("login failed")
)
