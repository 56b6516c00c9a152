package manager

import (
	"context"
	"fmt"

	"torchserved/internal/catalog"
)

// Handle owns a loaded model. Predict may be called concurrently; Close is
// called exactly once, after every Predict has returned.
type Handle interface {
	Predict(ctx context.Context, input []byte) ([]byte, error)
	Close() error
}

// Loader turns a catalog artifact into a Handle. Load must honour ctx.
type Loader interface {
	Load(ctx context.Context, a catalog.Artifact) (Handle, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, a catalog.Artifact) (Handle, error)

func (f LoaderFunc) Load(ctx context.Context, a catalog.Artifact) (Handle, error) { return f(ctx, a) }

// RuntimeLoader dispatches on Artifact.Runtime.
type RuntimeLoader map[string]Loader

func (rl RuntimeLoader) Load(ctx context.Context, a catalog.Artifact) (Handle, error) {
	l, ok := rl[a.Runtime]
	if !ok || l == nil {
		return nil, ErrDependencyUnavailable(fmt.Sprintf("no loader for runtime %q", a.Runtime))
	}
	return l.Load(ctx, a)
}
