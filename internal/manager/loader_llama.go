//go:build llama

package manager

import (
	"context"
	"errors"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"

	"torchserved/internal/catalog"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

type llamaLoader struct {
	opts LlamaOptions
}

// NewLlamaLoader returns the in-process go-llama.cpp loader.
func NewLlamaLoader(opts LlamaOptions) Loader {
	return &llamaLoader{opts: opts.withDefaults()}
}

func (l *llamaLoader) Load(ctx context.Context, a catalog.Artifact) (Handle, error) {
	if strings.TrimSpace(a.Path) == "" {
		return nil, errors.New("model path is empty")
	}
	type result struct {
		m   *llama.LLama
		err error
	}
	// llama.New cannot be interrupted; if ctx ends first the model is freed
	// as soon as it finishes loading.
	ch := make(chan result, 1)
	go func() {
		m, err := llama.New(a.Path, llama.SetContext(l.opts.CtxSize))
		ch <- result{m, err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return &llamaHandle{model: r.m, opts: l.opts}, nil
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.m != nil {
				r.m.Free()
			}
		}()
		return nil, ctx.Err()
	}
}

// llamaHandle owns a loaded model. go-llama.cpp contexts are not safe for
// concurrent prediction, so calls are serialized.
type llamaHandle struct {
	mu    sync.Mutex
	model *llama.LLama
	opts  LlamaOptions
}

// Predict treats input as a prompt and returns the completion text.
func (h *llamaHandle) Predict(ctx context.Context, input []byte) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	h.model.SetTokenCallback(func(string) bool {
		return ctx.Err() == nil
	})
	text, err := h.model.Predict(string(input),
		llama.SetTokens(h.opts.MaxTokens),
		llama.SetThreads(h.opts.Threads),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return []byte(text), nil
}

func (h *llamaHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model != nil {
		h.model.Free()
		h.model = nil
	}
	return nil
}
