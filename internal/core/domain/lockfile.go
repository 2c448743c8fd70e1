package domain

// LockfileVersion is the lock file format written by this version.
const LockfileVersion = 1

// Lockfile represents the pinned state of a descriptor's sources and versioned packages.
// It provides a reproducible snapshot of all dependencies across architectures.
type Lockfile struct {
	// Version is the lockfile format version (e.g., 1, 2).
	// This allows for future schema migrations and backward compatibility.
	Version int `json:"version"`

	// DescriptorHash fingerprints the inputs block the pins were taken for.
	DescriptorHash string `json:"descriptorHash,omitempty"`

	// Sources maps input names to their pinned revision.
	Sources map[string]LockedSource `json:"sources"`

	// Packages maps `attr@version` keys to their resolved package information.
	// The key is the package name as a string for serialization compatibility.
	Packages map[string]ResolvedPackage `json:"packages,omitempty"`
}

// NewLockfile returns an empty lock file in the current format.
func NewLockfile() *Lockfile {
	return &Lockfile{
		Version:  LockfileVersion,
		Sources:  make(map[string]LockedSource),
		Packages: make(map[string]ResolvedPackage),
	}
}
