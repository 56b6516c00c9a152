package manager

import (
	"torchserved/internal/catalog"
	"torchserved/internal/common/fsutil"
)

// SanityReport describes runtime checks for catalog artifacts.
type SanityReport struct {
	LlamaBuilt bool `json:"llama_built"`
	// Artifacts whose runtime cannot load in this binary.
	Unloadable []string `json:"unloadable,omitempty"`
	// llama artifacts whose file is missing.
	Missing []string `json:"missing,omitempty"`
}

// OK reports whether every catalog artifact looks loadable.
func (r SanityReport) OK() bool { return len(r.Unloadable) == 0 && len(r.Missing) == 0 }

// SanityCheck inspects the catalog without mutating state.
func (m *Manager) SanityCheck() SanityReport {
	r := SanityReport{LlamaBuilt: LlamaBuilt()}
	for _, a := range m.cfg.Catalog.List() {
		if a.Runtime != catalog.RuntimeLlama {
			continue
		}
		if !r.LlamaBuilt {
			r.Unloadable = append(r.Unloadable, a.Name)
		}
		if _, ok := fsutil.RegularFile(a.Path); !ok {
			r.Missing = append(r.Missing, a.Name)
		}
	}
	return r
}
