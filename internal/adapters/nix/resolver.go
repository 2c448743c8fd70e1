package nix

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/devshell/internal/adapters/cas"
	"go.trai.ch/devshell/internal/core/domain"
	"go.trai.ch/devshell/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	httpClientTimeout = 30 * time.Second

	defaultOwner = "NixOS"
	defaultRepo  = "nixpkgs"
)

var _ ports.DependencyResolver = (*Resolver)(nil)

// Resolver implements ports.DependencyResolver using the NixHub API with local caching.
type Resolver struct {
	cacheDir   string
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
	log        ports.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHTTPClient replaces the HTTP client used to query NixHub.
func WithHTTPClient(client *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.httpClient = client
	}
}

// WithRetryPolicy replaces the retry policy for NixHub requests.
func WithRetryPolicy(policy RetryPolicy) ResolverOption {
	return func(r *Resolver) {
		r.retry = policy
	}
}

// NewResolver creates a Resolver caching responses under cacheDir and querying baseURL.
func NewResolver(cacheDir, baseURL string, log ports.Logger, opts ...ResolverOption) (*Resolver, error) {
	cleanPath := filepath.Clean(cacheDir)
	if err := os.MkdirAll(cleanPath, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrCacheWriteFailed, err.Error()), "path", cleanPath)
	}

	r := &Resolver{
		cacheDir:   cleanPath,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: httpClientTimeout},
		retry:      DefaultRetryPolicy(),
		log:        log,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.retry.Retryable = func(err error) bool {
		return errors.Is(err, domain.ErrNixHubRequestFailed)
	}
	return r, nil
}

// Resolve resolves a package name and version to the nixpkgs revision providing it on every
// supported platform. The cache is checked first, then NixHub is queried.
func (r *Resolver) Resolve(ctx context.Context, name, version string) (*domain.ResolvedPackage, error) {
	cachePath := r.getCachePath(name, version)
	if entry, err := r.loadFromCache(cachePath); err == nil {
		return entry.toResolved(), nil
	}

	apiResponse, err := Retry(ctx, r.retry, r.log, "resolve "+name+"@"+version,
		func(ctx context.Context) (*nixHubResponse, error) {
			return r.queryNixHub(ctx, name, version)
		})
	if err != nil {
		return nil, err
	}

	entry := newCacheEntry(name, version, apiResponse)
	if len(entry.Systems) == 0 {
		noSystemsErr := zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "no supported platform"), "package", name)
		return nil, zerr.With(noSystemsErr, "version", version)
	}

	if err := r.saveToCache(cachePath, entry); err != nil {
		r.log.Warn("failed to cache package resolution: " + err.Error())
	}

	return entry.toResolved(), nil
}

// getHash generates a SHA-256 hash from a package name and version.
func getHash(name, version string) string {
	hash := sha256.Sum256([]byte(name + "@" + version))
	return hex.EncodeToString(hash[:])
}

func (r *Resolver) getCachePath(name, version string) string {
	return filepath.Join(r.cacheDir, getHash(name, version)+".json")
}

func (r *Resolver) loadFromCache(path string) (*cacheEntry, error) {
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrCacheMiss
		}
		return nil, zerr.With(zerr.Wrap(domain.ErrCacheMiss, err.Error()), "path", path)
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrCacheMiss, "corrupted cache entry"), "path", path)
	}
	if len(entry.Systems) == 0 {
		return nil, domain.ErrCacheMiss
	}
	return &entry, nil
}

func (r *Resolver) saveToCache(path string, entry *cacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal cache entry")
	}

	if err := cas.WriteFileAtomic(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(domain.ErrCacheWriteFailed, err.Error()), "path", path)
	}
	return nil
}

// queryNixHub queries the NixHub API to resolve a package version.
func (r *Resolver) queryNixHub(ctx context.Context, name, version string) (*nixHubResponse, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("version", version)
	reqURL := r.baseURL + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, requestError(err.Error(), name, version)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, requestError(err.Error(), name, version)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		notFoundErr := zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "no matching version"), "package", name)
		return nil, zerr.With(notFoundErr, "version", version)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, zerr.With(requestError("unexpected status", name, version), "status_code", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, requestError(err.Error(), name, version)
	}

	var apiResp nixHubResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		parseErr := zerr.With(zerr.Wrap(domain.ErrNixHubResponseInvalid, err.Error()), "package", name)
		return nil, zerr.With(parseErr, "version", version)
	}

	if len(apiResp.Systems) == 0 {
		noSystemsErr := zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "no systems in response"), "package", name)
		return nil, zerr.With(noSystemsErr, "version", version)
	}

	return &apiResp, nil
}

func requestError(msg, name, version string) error {
	err := zerr.With(zerr.Wrap(domain.ErrNixHubRequestFailed, msg), "package", name)
	return zerr.With(err, "version", version)
}

func newCacheEntry(name, version string, resp *nixHubResponse) *cacheEntry {
	systems := make(map[string]SystemCache, len(resp.Systems))
	for sysName, sysData := range resp.Systems {
		if !domain.Platform(sysName).IsSupported() {
			continue
		}
		systems[sysName] = SystemCache{
			FlakeInstallable: sysData.FlakeInstallable,
			Outputs:          sysData.Outputs,
		}
	}

	resolved := resp.Version
	if resolved == "" {
		resolved = version
	}

	return &cacheEntry{
		Alias:           name,
		Version:         version,
		ResolvedVersion: resolved,
		Systems:         systems,
		Timestamp:       time.Now(),
	}
}

func (e *cacheEntry) toResolved() *domain.ResolvedPackage {
	pkg := &domain.ResolvedPackage{
		Name:    domain.NewInternedString(e.Alias),
		Version: domain.NewInternedString(e.ResolvedVersion),
		Systems: make(map[string]domain.NixPackageInfo, len(e.Systems)),
	}
	if e.ResolvedVersion == "" {
		pkg.Version = domain.NewInternedString(e.Version)
	}

	for sysName, sys := range e.Systems {
		ref := sys.FlakeInstallable.Ref
		owner, repo := ref.Owner, ref.Repo
		if owner == "" {
			owner = defaultOwner
		}
		if repo == "" {
			repo = defaultRepo
		}
		pkg.Systems[sysName] = domain.NixPackageInfo{
			Owner:    domain.NewInternedString(owner),
			Repo:     domain.NewInternedString(repo),
			Rev:      domain.NewInternedString(ref.Rev),
			Hash:     domain.NewInternedString(defaultOutputHash(sys.Outputs)),
			AttrPath: domain.NewInternedString(trimAttrPath(sys.FlakeInstallable.AttrPath, sysName)),
		}
	}
	return pkg
}

// trimAttrPath drops the per-system prefix NixHub puts in front of attribute paths.
func trimAttrPath(attrPath, system string) string {
	for _, prefix := range []string{"legacyPackages." + system + ".", "packages." + system + "."} {
		if rest, ok := strings.CutPrefix(attrPath, prefix); ok {
			return rest
		}
	}
	return attrPath
}

func defaultOutputHash(outputs []Output) string {
	for _, o := range outputs {
		if o.Default {
			return o.Nar
		}
	}
	return ""
}
