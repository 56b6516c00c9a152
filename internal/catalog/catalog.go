// Package catalog answers which model names can be loaded and where their
// artifacts live. Entries come from a scanned models directory and from
// models declared in the configuration file; declared entries win on name
// collisions.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"torchserved/internal/common/fsutil"
)

// Runtimes understood by the manager loaders.
const (
	RuntimeLlama  = "llama"
	RuntimeRemote = "remote"
)

// ErrArtifactNotFound is returned by Lookup for names the catalog does not know.
var ErrArtifactNotFound = errors.New("artifact not found")

// Artifact describes a loadable model.
type Artifact struct {
	Name      string `json:"name" yaml:"name" toml:"name"`
	Path      string `json:"path,omitempty" yaml:"path" toml:"path"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint" toml:"endpoint"`
	Runtime   string `json:"runtime" yaml:"runtime" toml:"runtime"`
	SizeBytes int64  `json:"size_bytes,omitempty" yaml:"-" toml:"-"`
}

// Location is the path for file-backed artifacts and the endpoint otherwise.
func (a Artifact) Location() string {
	if a.Runtime == RuntimeRemote {
		return a.Endpoint
	}
	return a.Path
}

// Validate checks that the artifact names a runtime and a matching location.
func (a Artifact) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("artifact name is required")
	}
	switch a.Runtime {
	case RuntimeLlama:
		if a.Path == "" {
			return fmt.Errorf("artifact %q: path is required for runtime %s", a.Name, a.Runtime)
		}
	case RuntimeRemote:
		if a.Endpoint == "" {
			return fmt.Errorf("artifact %q: endpoint is required for runtime %s", a.Name, a.Runtime)
		}
	default:
		return fmt.Errorf("artifact %q: unknown runtime %q", a.Name, a.Runtime)
	}
	return nil
}

// Catalog is safe for concurrent use.
type Catalog struct {
	dir string
	log zerolog.Logger

	mu       sync.RWMutex
	declared map[string]Artifact
	scanned  map[string]Artifact
}

// New builds a catalog from declared artifacts and an optional models directory.
func New(dir string, declared []Artifact, log zerolog.Logger) (*Catalog, error) {
	c := &Catalog{
		log:      log,
		declared: make(map[string]Artifact, len(declared)),
		scanned:  map[string]Artifact{},
	}
	for _, a := range declared {
		if a.Runtime == "" {
			a.Runtime = RuntimeLlama
		}
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if a.Runtime == RuntimeLlama {
			p, err := fsutil.ExpandHome(a.Path)
			if err != nil {
				return nil, err
			}
			a.Path = p
			if size, ok := fsutil.RegularFile(p); ok {
				a.SizeBytes = size
			}
		}
		if _, dup := c.declared[a.Name]; dup {
			return nil, fmt.Errorf("artifact %q declared twice", a.Name)
		}
		c.declared[a.Name] = a
	}
	if dir != "" {
		abs, err := fsutil.ResolveDir(dir)
		if err != nil {
			return nil, fmt.Errorf("models dir: %w", err)
		}
		c.dir = abs
		if err := c.Rescan(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Dir returns the scanned directory, or "" when none is configured.
func (c *Catalog) Dir() string { return c.dir }

// Rescan replaces the scanned entries with the current directory contents.
func (c *Catalog) Rescan() error {
	if c.dir == "" {
		return nil
	}
	found, err := ScanDir(c.dir)
	if err != nil {
		return err
	}
	next := make(map[string]Artifact, len(found))
	for _, a := range found {
		next[a.Name] = a
	}
	c.mu.Lock()
	c.scanned = next
	c.mu.Unlock()
	c.log.Debug().Str("dir", c.dir).Int("artifacts", len(next)).Msg("catalog rescanned")
	return nil
}

// Lookup returns the artifact for name.
func (c *Catalog) Lookup(name string) (Artifact, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if a, ok := c.declared[name]; ok {
		return a, nil
	}
	if a, ok := c.scanned[name]; ok {
		return a, nil
	}
	return Artifact{}, fmt.Errorf("%w: %q", ErrArtifactNotFound, name)
}

// List returns every known artifact sorted by name.
func (c *Catalog) List() []Artifact {
	c.mu.RLock()
	out := make([]Artifact, 0, len(c.declared)+len(c.scanned))
	for _, a := range c.declared {
		out = append(out, a)
	}
	for name, a := range c.scanned {
		if _, shadowed := c.declared[name]; shadowed {
			continue
		}
		out = append(out, a)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ScanDir lists *.gguf files in dir (case-insensitive extension). The
// artifact name is the file name without its extension.
func ScanDir(dir string) ([]Artifact, error) {
	abs, err := fsutil.ResolveDir(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []Artifact
	for _, e := range entries {
		if e.IsDir() || !isModelFile(e.Name()) {
			continue
		}
		p := filepath.Join(abs, e.Name())
		size, ok := fsutil.RegularFile(p)
		if !ok {
			continue
		}
		out = append(out, Artifact{
			Name:      fsutil.TrimExt(e.Name()),
			Path:      p,
			Runtime:   RuntimeLlama,
			SizeBytes: size,
		})
	}
	return out, nil
}

func isModelFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".gguf")
}
