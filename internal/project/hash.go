package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest - фиксированный 256 битный хеш (совместим с source.File.Hash)
type Digest [32]byte

// DigestBytes hashes raw content.
func DigestBytes(b []byte) Digest {
	return Digest(sha256.Sum256(b))
}

// Combine строит хеш выборки: H( d1 || d2 ... ).
// Порядок должен быть детерминированным (пути отсортированы вызывающим).
func Combine(first Digest, rest ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(first[:])
	for _, d := range rest {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex digits.
func (d Digest) Short() string {
	return d.String()[:12]
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}
