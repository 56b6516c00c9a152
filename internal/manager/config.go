package manager

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"torchserved/internal/catalog"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultLoadConcurrency = 2
	defaultDrainTimeout    = 30 * time.Second
	defaultLoadTimeout     = 5 * time.Minute
)

// LoadMode selects whether LoadModel waits for the artifact to load.
type LoadMode string

const (
	LoadAsync LoadMode = "async"
	LoadSync  LoadMode = "sync"
)

// Catalog resolves model names to artifacts.
type Catalog interface {
	Lookup(name string) (catalog.Artifact, error)
	List() []catalog.Artifact
}

// Config encapsulates all tunables for Manager construction.
type Config struct {
	Catalog   Catalog
	Loader    Loader
	Publisher EventPublisher
	// Registerer receives the manager collectors; nil leaves them unregistered.
	Registerer prometheus.Registerer
	Logger     *zerolog.Logger

	LoadMode        LoadMode
	LoadConcurrency int
	LoadTimeout     time.Duration
	DrainTimeout    time.Duration
	// PredictTimeout bounds a single computation; zero means unbounded.
	PredictTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	if c.Logger == nil {
		l := zerolog.Nop()
		c.Logger = &l
	}
	if c.LoadMode == "" {
		c.LoadMode = LoadAsync
	}
	if c.LoadConcurrency <= 0 {
		c.LoadConcurrency = defaultLoadConcurrency
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = defaultLoadTimeout
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
	return c
}
