// Package protocol implements the wire side of the server: reading a bounded
// request off a connection, parsing it into a Request, and writing one of the
// three response forms back.
package protocol

import "strings"

// Header is a single parsed "Key: Value" pair.
type Header struct {
	Key   string
	Value string
}

// NewHeader builds a Header with surrounding whitespace trimmed from both parts.
func NewHeader(key, value string) Header {
	return Header{
		Key:   strings.TrimSpace(key),
		Value: strings.TrimSpace(value),
	}
}

// String returns the display form "Key: Value".
func (h Header) String() string {
	return h.Key + ": " + h.Value
}
