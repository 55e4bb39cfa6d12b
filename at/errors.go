package at

import "errors"

// ErrMalformedReply is returned when a reply line carries a fact marker
// but its payload cannot be decoded.
//
// The line is dropped and the fact stays pending; it is asked for again
// on the next refresh.
var ErrMalformedReply = errors.New("malformed reply")
