package e2e

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"torchserved/internal/catalog"
	"torchserved/internal/grpcapi"
	"torchserved/internal/httpapi"
	"torchserved/internal/manager"
	pb "torchserved/pkg/torchservepb"
)

// createTempModelsDir creates a temporary directory populated with empty
// model files and returns the directory path.
func createTempModelsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte(""), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir
}

// stack is a full in-process control plane: manager, gRPC over bufconn and
// the admin HTTP mux.
type stack struct {
	mgr    *manager.Manager
	pub    *manager.MemoryPublisher
	client pb.TorchServeClient
	admin  *httptest.Server
}

type stackOptions struct {
	modelsDir string
	models    []catalog.Artifact
	loader    manager.Loader
	mutate    func(*manager.Config)
}

func newStack(t *testing.T, so stackOptions) *stack {
	t.Helper()
	cat, err := catalog.New(so.modelsDir, so.models, zerolog.Nop())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	reg := prometheus.NewRegistry()
	pub := manager.NewMemoryPublisher()
	cfg := manager.Config{
		Catalog:      cat,
		Loader:       so.loader,
		Publisher:    pub,
		Registerer:   reg,
		DrainTimeout: 2 * time.Second,
	}
	if so.mutate != nil {
		so.mutate(&cfg)
	}
	mgr, err := manager.New(cfg)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close(context.Background()) })

	srv, err := grpcapi.NewServer(grpcapi.NewService(mgr, zerolog.Nop()), grpcapi.Options{
		Registerer: reg,
		Logger:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("grpc server: %v", err)
	}
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.GRPC.Serve(lis) }()
	t.Cleanup(srv.GRPC.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	admin := httptest.NewServer(httpapi.NewMux(httpapi.Options{
		Service:    mgr,
		Registerer: reg,
		Gatherer:   reg,
		Logger:     zerolog.Nop(),
		LogLevel:   "off",
	}))
	t.Cleanup(admin.Close)

	return &stack{mgr: mgr, pub: pub, client: pb.NewTorchServeClient(conn), admin: admin}
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// waitStatus polls GetModelStatus until it reports want.
func waitStatus(t *testing.T, c pb.TorchServeClient, name, want string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var last string
	for time.Now().Before(deadline) {
		st, err := c.GetModelStatus(context.Background(), &pb.ModelRequest{ModelName: name})
		if err == nil {
			last = st.GetStatus()
			if last == want {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s: status %q, want %q", name, last, want)
}

// classifier is a fake image classifier. When gate is set, Predict blocks
// until it is closed.
type classifier struct {
	label   string
	gate    chan struct{}
	entered chan struct{}
	calls   atomic.Int64
	closed  atomic.Int64
	inUse   atomic.Int64
	// closedInUse records a Close that raced an in-flight Predict.
	closedInUse atomic.Bool
}

func (c *classifier) Predict(ctx context.Context, input []byte) ([]byte, error) {
	c.calls.Add(1)
	c.inUse.Add(1)
	defer c.inUse.Add(-1)
	if c.entered != nil {
		select {
		case c.entered <- struct{}{}:
		default:
		}
	}
	if c.gate != nil {
		<-c.gate
	}
	return []byte(c.label + ":" + string(input)), nil
}

func (c *classifier) Close() error {
	if c.inUse.Load() != 0 {
		c.closedInUse.Store(true)
	}
	c.closed.Add(1)
	return nil
}

// classifierLoader hands out one classifier per model name.
type classifierLoader struct {
	mu     sync.Mutex
	models map[string]*classifier
	delay  time.Duration
}

func newClassifierLoader() *classifierLoader {
	return &classifierLoader{models: map[string]*classifier{}}
}

func (l *classifierLoader) get(name string) *classifier {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.models[name]
	if c == nil {
		c = &classifier{label: "tabby_cat"}
		l.models[name] = c
	}
	return c
}

func (l *classifierLoader) Load(ctx context.Context, a catalog.Artifact) (manager.Handle, error) {
	if l.delay > 0 {
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return l.get(a.Name), nil
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpDo(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
