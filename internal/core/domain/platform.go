package domain

import (
	"runtime"

	"go.trai.ch/zerr"
)

// Platform identifies a CPU architecture and operating system pair in Nix notation.
type Platform string

// Supported platforms.
const (
	PlatformX86Linux    Platform = "x86_64-linux"
	PlatformARMLinux    Platform = "aarch64-linux"
	PlatformX86Darwin   Platform = "x86_64-darwin"
	PlatformARMDarwin   Platform = "aarch64-darwin"
	platformUnsupported Platform = ""
)

var supportedPlatforms = []Platform{
	PlatformX86Linux,
	PlatformARMLinux,
	PlatformX86Darwin,
	PlatformARMDarwin,
}

// SupportedPlatforms returns the fixed set of platforms a descriptor may target.
func SupportedPlatforms() []Platform {
	out := make([]Platform, len(supportedPlatforms))
	copy(out, supportedPlatforms)
	return out
}

// IsSupported reports whether p is one of the supported platforms.
func (p Platform) IsSupported() bool {
	for _, s := range supportedPlatforms {
		if s == p {
			return true
		}
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

// ParsePlatform validates s against the supported set.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if !p.IsSupported() {
		return platformUnsupported, zerr.With(zerr.Wrap(ErrUnsupportedPlatform, "cannot parse platform"), "platform", s)
	}
	return p, nil
}

// CurrentPlatform returns the platform of the running host in Nix notation.
// Hosts outside the supported set produce a value that fails IsSupported.
func CurrentPlatform() Platform {
	return platformFor(runtime.GOARCH, runtime.GOOS)
}

func platformFor(goarch, goos string) Platform {
	arch := goarch
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	}
	return Platform(arch + "-" + goos)
}
