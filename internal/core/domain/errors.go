package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrDescriptorNotFound is returned when the descriptor file does not exist.
	ErrDescriptorNotFound = zerr.New("descriptor not found")

	// ErrInvalidDescriptor is returned when the descriptor cannot be decoded or fails validation.
	ErrInvalidDescriptor = zerr.New("invalid descriptor")

	// ErrNoInputs is returned when a descriptor declares no sources.
	ErrNoInputs = zerr.New("descriptor declares no inputs")

	// ErrNoOutputs is returned when a descriptor declares no per-platform shells.
	ErrNoOutputs = zerr.New("descriptor declares no outputs")

	// ErrMissingSourceURL is returned when an input has no location.
	ErrMissingSourceURL = zerr.New("input is missing a url")

	// ErrInvalidFollows is returned when a follows rule references an unknown input.
	ErrInvalidFollows = zerr.New("follows rule references an undeclared input")

	// ErrUndeclaredSource is returned when a package reference names a source that is not an input.
	ErrUndeclaredSource = zerr.New("package references an undeclared source")

	// ErrAmbiguousSource is returned when a package has no explicit source and no default can be chosen.
	ErrAmbiguousSource = zerr.New("package source is ambiguous")

	// ErrInvalidPackageRef is returned when a package reference cannot be parsed.
	ErrInvalidPackageRef = zerr.New("invalid package reference")

	// ErrUnsupportedPlatform is returned when a platform is outside the supported set.
	ErrUnsupportedPlatform = zerr.New("unsupported platform")

	// ErrPlatformNotDeclared is returned when a supported platform has no shell in the descriptor.
	ErrPlatformNotDeclared = zerr.New("platform not declared in descriptor")

	// ErrUnsupportedArchitecture is returned when a resolved package has no build for the platform.
	ErrUnsupportedArchitecture = zerr.New("package not available for platform")

	// ErrInvalidShellHook is returned when a shell hook is not valid bash.
	ErrInvalidShellHook = zerr.New("invalid shell hook")

	// ErrInvalidEnvVar is returned when a descriptor env key is not a shell variable name.
	ErrInvalidEnvVar = zerr.New("invalid environment variable name")

	// ErrEmptyScript is returned when a named script has no commands.
	ErrEmptyScript = zerr.New("script has no commands")

	// ErrScriptNotFound is returned when a named script is not declared.
	ErrScriptNotFound = zerr.New("script not found")

	// ErrLockOutdated is returned in frozen mode when the lock does not match the descriptor.
	ErrLockOutdated = zerr.New("lock file is out of date")

	// ErrInvalidLockfile is returned when the lock file cannot be decoded.
	ErrInvalidLockfile = zerr.New("invalid lock file")

	// ErrSourceLockFailed is returned when a source cannot be pinned.
	ErrSourceLockFailed = zerr.New("failed to lock source")

	// ErrPackageResolveFailed is returned when a versioned package cannot be resolved.
	ErrPackageResolveFailed = zerr.New("failed to resolve package")

	// ErrEnvironmentFailed is returned when the environment cannot be materialized.
	ErrEnvironmentFailed = zerr.New("failed to materialize environment")

	// ErrActivationFailed is returned when an activation command exits unsuccessfully.
	ErrActivationFailed = zerr.New("activation command failed")

	// ErrCommandFailed is returned when an executed command exits with a non-zero status.
	ErrCommandFailed = zerr.New("command failed")

	// ErrCommandNotFound is returned when the executable of a command cannot be located.
	ErrCommandNotFound = zerr.New("command not found")

	// ErrPathInExtraEnv is returned when PATH is passed as an extra environment variable.
	ErrPathInExtraEnv = zerr.New("do not pass PATH in extra env, use extra paths instead")

	// ErrColonInPath is returned when an extra path entry contains the list separator.
	ErrColonInPath = zerr.New("cannot handle colon in paths")

	// ErrStepRunning is returned when a step is started twice.
	ErrStepRunning = zerr.New("step is already running")

	// ErrInvalidLogLevel is returned when a log level name is not recognized.
	ErrInvalidLogLevel = zerr.New("invalid log level")

	// ErrInvalidRetryPolicy is returned when a retry policy allows no attempts.
	ErrInvalidRetryPolicy = zerr.New("retry policy needs at least one attempt")

	// ErrPackageNotFound is returned when the package search service has no match.
	ErrPackageNotFound = zerr.New("package not found")

	// ErrNixHubRequestFailed is returned when the package search service cannot be queried.
	ErrNixHubRequestFailed = zerr.New("package search request failed")

	// ErrNixHubResponseInvalid is returned when the package search service answers with an unreadable body.
	ErrNixHubResponseInvalid = zerr.New("package search response is invalid")

	// ErrCacheMiss is returned when a cache entry does not exist.
	ErrCacheMiss = zerr.New("cache miss")

	// ErrCacheWriteFailed is returned when a cache entry cannot be persisted.
	ErrCacheWriteFailed = zerr.New("failed to write cache entry")

	// ErrInvalidSettings is returned when the tool settings cannot be loaded.
	ErrInvalidSettings = zerr.New("invalid settings")

	// ErrCheckFailed is returned when at least one platform fails the environment check.
	ErrCheckFailed = zerr.New("environment check failed")
)

// ExitCode returns the process exit code recorded as "exit_code" metadata in the error chain.
func ExitCode(err error) (int, bool) {
	for err != nil {
		var zErr *zerr.Error
		if !errors.As(err, &zErr) {
			return 0, false
		}
		if code, ok := zErr.Metadata()["exit_code"].(int); ok && code >= 0 {
			return code, true
		}
		err = zErr.Unwrap()
	}
	return 0, false
}
