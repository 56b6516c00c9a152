//go:build !llama

package manager

// No-CGO stub for the llama loader, compiled when the 'llama' build tag is
// not set. Loads fail fast so the instance goes to Failed with a clear reason.

import (
	"context"

	"torchserved/internal/catalog"
)

var llamaBuilt = false

type llamaLoader struct {
	opts LlamaOptions
}

// NewLlamaLoader returns a loader that refuses to load without llama support.
func NewLlamaLoader(opts LlamaOptions) Loader {
	return &llamaLoader{opts: opts.withDefaults()}
}

func (l *llamaLoader) Load(ctx context.Context, a catalog.Artifact) (Handle, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
