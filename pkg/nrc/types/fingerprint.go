package types

import (
	"encoding/hex"
	"fmt"
)

// FingerprintSize is the length in bytes of a Fingerprint.
const FingerprintSize = 32

// Fingerprint identifies the inputs an artifact was generated from.
// The zero value marks an artifact that must always be regenerated.
type Fingerprint [FingerprintSize]byte

// IsZero reports whether f is the zero fingerprint.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// String returns the lowercase hex form of f.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// ParseFingerprint parses the hex form produced by String.
func ParseFingerprint(s string) (Fingerprint, error) {
	var f Fingerprint
	if len(s) != 2*FingerprintSize {
		return f, fmt.Errorf("fingerprint %q: want %d hex digits", s, 2*FingerprintSize)
	}
	if _, err := hex.Decode(f[:], []byte(s)); err != nil {
		return f, fmt.Errorf("fingerprint %q: %w", s, err)
	}
	return f, nil
}
