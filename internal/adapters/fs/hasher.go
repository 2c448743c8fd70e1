// Package fs implements file and descriptor hashing.
package fs

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher provides hashing functionality for descriptors and files.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// Fingerprint computes a hash of everything the lock file pins: the declared
// inputs with their follows rules and the default source.
// Outputs and scripts do not contribute, so editing them never invalidates a lock.
func (h *Hasher) Fingerprint(d *domain.Descriptor) string {
	hasher := xxhash.New()

	_, _ = hasher.WriteString(d.DefaultSource)
	_, _ = hasher.Write([]byte{0}) // Section separator

	for _, name := range d.SourceNames() {
		h.hashSource(d.Inputs[name], hasher)
	}
	_, _ = hasher.Write([]byte{0})

	return fmt.Sprintf("%016x", hasher.Sum64())
}

func (h *Hasher) hashSource(src domain.SourceRef, hasher *xxhash.Digest) {
	_, _ = hasher.WriteString(src.Name)
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.WriteString(src.URL)
	_, _ = hasher.Write([]byte{0})

	for _, k := range slices.Sorted(maps.Keys(src.Follows)) {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(src.Follows[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}
