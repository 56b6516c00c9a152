package manager

import "runtime"

// LlamaOptions configures the in-process llama runtime.
type LlamaOptions struct {
	CtxSize   int
	Threads   int
	MaxTokens int
}

func (o LlamaOptions) withDefaults() LlamaOptions {
	if o.CtxSize <= 0 {
		o.CtxSize = 2048
	}
	if o.Threads <= 0 {
		o.Threads = runtime.NumCPU()
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 256
	}
	return o
}

// LlamaBuilt reports whether this binary links llama.cpp.
func LlamaBuilt() bool { return llamaBuilt }
