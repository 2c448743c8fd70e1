package domain

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppName is the name used for the user-level config and cache directories.
	AppName = "devshell"

	// DescriptorFileName is the default name of the environment descriptor.
	DescriptorFileName = "devshell.yaml"

	// LockFileName is the name of the lock file written next to the descriptor.
	LockFileName = "devshell.lock"

	// OverlayInfix is inserted before the descriptor extension to name its local overlay.
	OverlayInfix = ".local"

	// ConfigFileName is the name of the user settings file.
	ConfigFileName = "config.yaml"

	// NixHubDirName is the name of the NixHub cache directory.
	NixHubDirName = "nixhub"

	// EnvDirName is the name of the environment cache directory.
	EnvDirName = "environments"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultCacheDir returns the user cache directory for devshell.
// It falls back to .devshell/cache in the working directory.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join("."+AppName, "cache")
}

// DefaultConfigPath returns the path of the user settings file.
func DefaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName, ConfigFileName)
	}
	return ""
}

// NixHubCachePath joins the cache dir and nixhub.
func NixHubCachePath(cacheDir string) string {
	return filepath.Join(cacheDir, NixHubDirName)
}

// EnvCachePath joins the cache dir and environments.
func EnvCachePath(cacheDir string) string {
	return filepath.Join(cacheDir, EnvDirName)
}

// LockPathFor returns the lock file that belongs to a descriptor.
func LockPathFor(descriptorPath string) string {
	return filepath.Join(filepath.Dir(descriptorPath), LockFileName)
}

// OverlayPathFor returns the local overlay of a descriptor: devshell.yaml becomes devshell.local.yaml.
func OverlayPathFor(descriptorPath string) string {
	ext := filepath.Ext(descriptorPath)
	return strings.TrimSuffix(descriptorPath, ext) + OverlayInfix + ext
}
