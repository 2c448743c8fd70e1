package nix

// Exported aliases of the NixHub wire types for tests.
type NixHubResponse = nixHubResponse

// TrimAttrPath exports trimAttrPath for testing.
func TrimAttrPath(attrPath, system string) string {
	return trimAttrPath(attrPath, system)
}

// CachePathForTest exports the cache file location of a resolution.
func (r *Resolver) CachePathForTest(name, version string) string {
	return r.getCachePath(name, version)
}
