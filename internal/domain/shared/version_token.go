package shared

import (
	"bytes"
	"encoding/base64"

	"github.com/google/uuid"
)

const versionTokenSize = 16

// VersionToken is the opaque optimistic concurrency token carried by every
// mutable document. A fresh token is generated on each successful write.
type VersionToken []byte

// NewVersionToken returns a fresh random token.
func NewVersionToken() VersionToken {
	id := uuid.New()
	return VersionToken(id[:])
}

// Encode returns the transport form of the token.
func (t VersionToken) Encode() string {
	return base64.RawURLEncoding.EncodeToString(t)
}

// String implements fmt.Stringer
func (t VersionToken) String() string {
	return t.Encode()
}

// Equal compares two tokens byte-wise.
func (t VersionToken) Equal(other VersionToken) bool {
	return bytes.Equal(t, other)
}

// IsZero reports whether the token is empty.
func (t VersionToken) IsZero() bool {
	return len(t) == 0
}

// DecodeVersionToken parses the transport form of a token. A token that cannot
// be decoded is reported as a concurrency conflict: the caller holds no valid
// snapshot of the document.
func DecodeVersionToken(s string) (VersionToken, error) {
	if s == "" {
		return nil, ErrConcurrencyConflict
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(raw) != versionTokenSize {
		return nil, ErrConcurrencyConflict
	}
	return VersionToken(raw), nil
}

// CheckVersionToken decodes the token a caller echoed back and compares it
// with the token of the loaded document. The store repeats the comparison at
// write time; this check only fails stale requests before any work is done.
func CheckVersionToken(loaded VersionToken, supplied string) (VersionToken, error) {
	expected, err := DecodeVersionToken(supplied)
	if err != nil {
		return nil, err
	}
	if !loaded.Equal(expected) {
		return nil, ErrConcurrencyConflict
	}
	return expected, nil
}
