// Package hashutil computes and compares archive digests.
package hashutil

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/arthur-debert/formulary/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Algorithm names a supported digest algorithm.
type Algorithm string

const (
	SHA1    Algorithm = "sha1"
	SHA256  Algorithm = "sha256"
	SHA512  Algorithm = "sha512"
	BLAKE2b Algorithm = "blake2b"
)

// Algorithms lists the supported algorithms in preference order.
var Algorithms = []Algorithm{SHA256, SHA512, BLAKE2b, SHA1}

// hexLen is the hex-encoded digest length of each algorithm.
var hexLen = map[Algorithm]int{
	SHA1:    40,
	SHA256:  64,
	SHA512:  128,
	BLAKE2b: 64,
}

// ParseAlgorithm validates name as a supported algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	algo := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := hexLen[algo]; !ok {
		supported := make([]string, len(Algorithms))
		for i, a := range Algorithms {
			supported[i] = string(a)
		}
		return "", errors.Newf(errors.ErrInvalidInput, "unsupported checksum algorithm %q (supported: %s)",
			name, strings.Join(supported, ", ")).
			WithDetail("supported", supported)
	}
	return algo, nil
}

func newHash(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case BLAKE2b:
		return blake2b.New256(nil)
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unsupported checksum algorithm %q", string(algo))
	}
}

// Sum returns the lowercase hex digest of data.
func Sum(data []byte, algo Algorithm) (string, error) {
	return SumReader(bytes.NewReader(data), algo)
}

// SumReader returns the lowercase hex digest of everything read from r.
func SumReader(r io.Reader, algo Algorithm) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", errors.Wrapf(err, errors.ErrInternal, "failed to read %s input", algo)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Checksum is an expected digest together with its algorithm.
type Checksum struct {
	Algorithm Algorithm
	Digest    string
}

// NewChecksum validates digest for algo.
func NewChecksum(algo, digest string) (Checksum, error) {
	a, err := ParseAlgorithm(algo)
	if err != nil {
		return Checksum{}, err
	}
	d := strings.ToLower(strings.TrimSpace(digest))
	if len(d) != hexLen[a] {
		return Checksum{}, errors.Newf(errors.ErrInvalidInput,
			"%s digest must be %d hex characters, got %d", a, hexLen[a], len(d))
	}
	if _, err := hex.DecodeString(d); err != nil {
		return Checksum{}, errors.Wrapf(err, errors.ErrInvalidInput, "%s digest is not hex", a)
	}
	return Checksum{Algorithm: a, Digest: d}, nil
}

// ParseChecksum parses the "<algo>:<hex>" form.
func ParseChecksum(s string) (Checksum, error) {
	algo, digest, ok := strings.Cut(s, ":")
	if !ok {
		return Checksum{}, errors.Newf(errors.ErrInvalidInput, "checksum %q must look like <algorithm>:<hex>", s)
	}
	return NewChecksum(algo, digest)
}

// String renders the checksum as "<algo>:<hex>".
func (c Checksum) String() string {
	return fmt.Sprintf("%s:%s", c.Algorithm, c.Digest)
}

// IsZero reports whether c is unset.
func (c Checksum) IsZero() bool {
	return c.Algorithm == "" && c.Digest == ""
}

// Verify hashes data and compares it to the expected digest. The computed
// digest is returned in both cases so callers can report it.
func (c Checksum) Verify(data []byte) (string, bool, error) {
	got, err := Sum(data, c.Algorithm)
	if err != nil {
		return "", false, err
	}
	return got, got == c.Digest, nil
}
