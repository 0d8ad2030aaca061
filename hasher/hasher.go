// Package hasher computes content fingerprints for snapshot files.
package hasher

import (
	_ "crypto/sha256" // registers SHA-256 for go-digest
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
)

// Algorithm is the digest algorithm used for every fingerprint.
const Algorithm = digest.SHA256

// Fingerprint returns the digest of data. Identical content always yields an
// identical digest; file metadata plays no part.
func Fingerprint(data []byte) digest.Digest {
	return Algorithm.FromBytes(data)
}

// FingerprintReader digests everything readable from r and returns the digest
// together with the number of bytes consumed.
func FingerprintReader(r io.Reader) (digest.Digest, int64, error) {
	digester := Algorithm.Digester()
	n, err := io.Copy(digester.Hash(), r)
	if err != nil {
		return "", n, fmt.Errorf("reading content: %w", err)
	}
	return digester.Digest(), n, nil
}
