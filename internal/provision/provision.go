// Package provision fetches a model artifact from a remote registry once,
// before the server starts listening.
package provision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"llmserver/internal/registry"
)

// zlog is the package logger. Replace it with SetLogger.
var zlog = zerolog.New(os.Stderr).With().Timestamp().Str("component", "provision").Logger()

// SetLogger installs a structured logger used by the provisioner.
func SetLogger(l zerolog.Logger) { zlog = l.With().Str("component", "provision").Logger() }

// Options configures a Provisioner.
type Options struct {
	// RegistryURL is the artifact host, e.g. https://huggingface.co.
	RegistryURL string
	// Revision selects the branch or tag in the resolve URL.
	Revision string
	// File is the artifact file name inside the model repository.
	File string
	// Force downloads even when a non-empty local copy exists.
	Force bool
	// Client overrides the HTTP client.
	Client *http.Client
}

// Provisioner ensures model artifacts are present in a Store.
type Provisioner struct {
	store  *registry.Store
	opts   Options
	client *http.Client
}

// New returns a Provisioner writing into store.
func New(store *registry.Store, opts Options) *Provisioner {
	if opts.Revision == "" {
		opts.Revision = "main"
	}
	if opts.File == "" {
		opts.File = "config.json"
	}
	c := opts.Client
	if c == nil {
		c = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				// keep the credential on same-host redirects only
				if len(via) > 0 && req.URL.Host != via[0].URL.Host {
					req.Header.Del("Authorization")
				}
				return nil
			},
		}
	}
	return &Provisioner{store: store, opts: opts, client: c}
}

// ArtifactURL returns <registry>/<modelID>/resolve/<revision>/<file>.
func (p *Provisioner) ArtifactURL(modelID string) (string, error) {
	base := strings.TrimRight(p.opts.RegistryURL, "/")
	if base == "" {
		return "", fmt.Errorf("registry url is empty")
	}
	if _, err := url.Parse(base); err != nil {
		return "", fmt.Errorf("registry url: %w", err)
	}
	id := strings.Trim(modelID, "/")
	return fmt.Sprintf("%s/%s/resolve/%s/%s", base, id, url.PathEscape(p.opts.Revision), p.opts.File), nil
}

// LocalPath returns where modelID's artifact is stored.
func (p *Provisioner) LocalPath(modelID string) (string, error) {
	return p.store.LocalPath(modelID, p.opts.File)
}

// EnsurePresent makes sure the artifact for modelID exists locally. It issues
// at most one GET with a bearer credential. A non-2xx response is logged and
// swallowed; transport and filesystem errors are returned. There is no retry
// and no integrity check.
func (p *Provisioner) EnsurePresent(ctx context.Context, modelID, credential string) error {
	dest, err := p.LocalPath(modelID)
	if err != nil {
		return err
	}
	log := zlog.With().Str("model_id", modelID).Str("path", dest).Logger()
	if !p.opts.Force && registry.NonEmptyFile(dest) {
		log.Info().Msg("model already present")
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	u, err := p.ArtifactURL(modelID)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Int("status", resp.StatusCode).Str("url", u).Msg("failed to download model")
		return nil
	}
	n, err := writeFile(dest, resp.Body)
	if err != nil {
		return err
	}
	log.Info().Int64("bytes", n).Dur("dur", time.Since(start)).Msg("model downloaded successfully")
	return nil
}

// writeFile streams r into dest via a sibling temp file, replacing any
// previous content on success.
func writeFile(dest string, r io.Reader) (int64, error) {
	tmp := dest + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", tmp, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return n, fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return n, fmt.Errorf("rename %s: %w", dest, err)
	}
	return n, nil
}
