package domain

// SourceRef is a named upstream package repository declared by the descriptor.
type SourceRef struct {
	// Name is the key of the input in the descriptor (e.g. "nixpkgs").
	Name string

	// URL is the flake reference (e.g. "github:NixOS/nixpkgs/nixos-unstable").
	URL string

	// Follows maps a nested input of this source to another declared source,
	// so both share one revision.
	Follows map[string]string
}

// LockedSource is a SourceRef pinned to an exact revision.
type LockedSource struct {
	// URL is the reference as written in the descriptor when the pin was taken.
	URL string `json:"url"`

	// LockedURL is the fully pinned reference handed to the evaluator.
	LockedURL string `json:"lockedUrl"`

	Rev          string            `json:"rev,omitempty"`
	NarHash      string            `json:"narHash,omitempty"`
	LastModified int64             `json:"lastModified,omitempty"`
	Follows      map[string]string `json:"follows,omitempty"`
}

// Matches reports whether the pin was taken for the given declaration.
func (l LockedSource) Matches(ref SourceRef) bool {
	if l.URL != ref.URL || len(l.Follows) != len(ref.Follows) {
		return false
	}
	for k, v := range ref.Follows {
		if l.Follows[k] != v {
			return false
		}
	}
	return true
}
