package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough to tell runs apart in logs.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Fingerprinter accumulates values into a sha256 digest.
type Fingerprinter struct {
	buf []byte
}

// NewFingerprinter creates an empty fingerprint builder
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{}
}

// Int adds an integer.
func (f *Fingerprinter) Int(v int) *Fingerprinter {
	f.buf = binary.LittleEndian.AppendUint64(f.buf, uint64(v))
	return f
}

// Float adds a float by its IEEE-754 bits, so NaN payloads hash deterministically.
func (f *Fingerprinter) Float(v float64) *Fingerprinter {
	f.buf = binary.LittleEndian.AppendUint64(f.buf, math.Float64bits(v))
	return f
}

// String adds a length-prefixed string.
func (f *Fingerprinter) String(s string) *Fingerprinter {
	f.Int(len(s))
	f.buf = append(f.buf, s...)
	return f
}

// Sum returns the digest of everything added so far.
func (f *Fingerprinter) Sum() Hash {
	return NewHash(f.buf)
}
