package grpcapi

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	rpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"torchserved/internal/auth"
	"torchserved/internal/manager"
	pb "torchserved/pkg/torchservepb"
)

// fakeBackend records calls and returns canned results.
type fakeBackend struct {
	mu     sync.Mutex
	states map[string]manager.State
	err    error
	panic  bool
	calls  []string
}

func (f *fakeBackend) record(op, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+":"+name)
	if f.panic {
		panic("backend exploded")
	}
	return f.err
}

func (f *fakeBackend) Load(_ context.Context, name string) (manager.State, error) {
	if err := f.record("load", name); err != nil {
		return "", err
	}
	return manager.StateLoading, nil
}

func (f *fakeBackend) Unload(_ context.Context, name string) (manager.State, error) {
	if err := f.record("unload", name); err != nil {
		return "", err
	}
	return manager.StateUnloaded, nil
}

func (f *fakeBackend) Status(name string) (manager.State, error) {
	if err := f.record("status", name); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.states[name]; ok {
		return st, nil
	}
	return "", manager.ErrNotFound
}

func (f *fakeBackend) Predict(_ context.Context, name string, input []byte) ([]byte, error) {
	if err := f.record("predict", name); err != nil {
		return nil, err
	}
	return append([]byte("pred:"), input...), nil
}

type harness struct {
	client pb.TorchServeClient
	health healthpb.HealthClient
	conn   *grpc.ClientConn
	reg    *prometheus.Registry
	srv    *Server
}

func startServer(t *testing.T, backend Backend, opts Options) *harness {
	t.Helper()
	return startServerWithLog(t, backend, opts, zerolog.Nop())
}

func startServerWithLog(t *testing.T, backend Backend, opts Options, log zerolog.Logger) *harness {
	t.Helper()
	reg := prometheus.NewRegistry()
	opts.Registerer = reg
	opts.Logger = log
	srv, err := NewServer(NewService(backend, log), opts)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.GRPC.Serve(lis) }()
	t.Cleanup(srv.GRPC.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &harness{
		client: pb.NewTorchServeClient(conn),
		health: healthpb.NewHealthClient(conn),
		conn:   conn,
		reg:    reg,
		srv:    srv,
	}
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestService_RoundTrip(t *testing.T) {
	fb := &fakeBackend{states: map[string]manager.State{"resnet50": manager.StateAvailable}}
	h := startServer(t, fb, Options{})

	st, err := h.client.LoadModel(ctxT(t), &pb.ModelRequest{ModelName: "resnet50"})
	require.NoError(t, err)
	assert.Equal(t, "Loading", st.GetStatus())
	assert.Equal(t, "resnet50", st.GetModelName())

	st, err = h.client.GetModelStatus(ctxT(t), &pb.ModelRequest{ModelName: " resnet50 "})
	require.NoError(t, err)
	assert.Equal(t, "Available", st.GetStatus())

	resp, err := h.client.Predict(ctxT(t), &pb.PredictRequest{ModelName: "resnet50", InputData: []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, append([]byte("pred:"), 1, 2, 3), resp.GetOutputData())

	st, err = h.client.UnloadModel(ctxT(t), &pb.ModelRequest{ModelName: "resnet50"})
	require.NoError(t, err)
	assert.Equal(t, "Unloaded", st.GetStatus())
}

func TestService_EmptyNameIsInvalidArgument(t *testing.T) {
	fb := &fakeBackend{}
	h := startServer(t, fb, Options{})
	_, err := h.client.LoadModel(ctxT(t), &pb.ModelRequest{ModelName: "  "})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = h.client.Predict(ctxT(t), &pb.PredictRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, fb.calls, "backend must not be reached")
}

func TestService_ErrorsMapped(t *testing.T) {
	h := startServer(t, &fakeBackend{}, Options{})
	_, err := h.client.GetModelStatus(ctxT(t), &pb.ModelRequest{ModelName: "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	h2 := startServer(t, &fakeBackend{err: manager.ErrAlreadyExists}, Options{})
	_, err = h2.client.LoadModel(ctxT(t), &pb.ModelRequest{ModelName: "m"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestServer_RecoversPanics(t *testing.T) {
	h := startServer(t, &fakeBackend{panic: true}, Options{})
	_, err := h.client.GetModelStatus(ctxT(t), &pb.ModelRequest{ModelName: "m"})
	assert.Equal(t, codes.Internal, status.Code(err))

	// the server keeps serving
	resp, err := h.health.Check(ctxT(t), &healthpb.HealthCheckRequest{Service: pb.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestServer_AuthOnPrivilegedMethods(t *testing.T) {
	secret := []byte("grpc-test-secret")
	dec, err := auth.NewDecoder(secret, 4)
	require.NoError(t, err)
	iss, err := auth.NewIssuer(secret)
	require.NoError(t, err)

	fb := &fakeBackend{states: map[string]manager.State{"m": manager.StateAvailable}}
	h := startServer(t, fb, Options{Decoder: dec})

	_, err = h.client.LoadModel(ctxT(t), &pb.ModelRequest{ModelName: "m"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "missing token")

	bad := metadata.AppendToOutgoingContext(ctxT(t), "authorization", "Bearer garbage")
	_, err = h.client.UnloadModel(bad, &pb.ModelRequest{ModelName: "m"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "malformed token")

	basic := metadata.AppendToOutgoingContext(ctxT(t), "authorization", "Basic dXNlcjpwdw==")
	_, err = h.client.UnloadModel(basic, &pb.ModelRequest{ModelName: "m"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "wrong scheme")

	// non-privileged calls pass without a token
	_, err = h.client.GetModelStatus(ctxT(t), &pb.ModelRequest{ModelName: "m"})
	require.NoError(t, err)

	tok, err := iss.Issue("operator", time.Minute)
	require.NoError(t, err)
	good := metadata.AppendToOutgoingContext(ctxT(t), "authorization", "Bearer "+tok)
	_, err = h.client.LoadModel(good, &pb.ModelRequest{ModelName: "m"})
	require.NoError(t, err)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	assert.Equal(t, []string{"status:m", "load:m"}, fb.calls)
}

func TestServer_RequestIDEchoed(t *testing.T) {
	fb := &fakeBackend{states: map[string]manager.State{"m": manager.StateAvailable}}
	h := startServer(t, fb, Options{})

	var hdr metadata.MD
	ctx := metadata.AppendToOutgoingContext(ctxT(t), RequestIDHeader, "req-123")
	_, err := h.client.GetModelStatus(ctx, &pb.ModelRequest{ModelName: "m"}, grpc.Header(&hdr))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-123"}, hdr.Get(RequestIDHeader))

	hdr = nil
	_, err = h.client.GetModelStatus(ctxT(t), &pb.ModelRequest{ModelName: "m"}, grpc.Header(&hdr))
	require.NoError(t, err)
	require.Len(t, hdr.Get(RequestIDHeader), 1)
	assert.Len(t, hdr.Get(RequestIDHeader)[0], 36, "uuid")
}

func TestServer_MetricsAndHealth(t *testing.T) {
	fb := &fakeBackend{states: map[string]manager.State{"m": manager.StateAvailable}}
	h := startServer(t, fb, Options{Workers: 4, MaxConcurrentStreams: 16})

	for i := 0; i < 3; i++ {
		_, err := h.client.GetModelStatus(ctxT(t), &pb.ModelRequest{ModelName: "m"})
		require.NoError(t, err)
	}
	_, _ = h.client.GetModelStatus(ctxT(t), &pb.ModelRequest{ModelName: "nope"})

	n, err := testutil.GatherAndCount(h.reg, "torchserved_grpc_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per (method, code)")

	h.srv.SetServing(false)
	resp, err := h.health.Check(ctxT(t), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

// lockedBuffer is a log sink safe to read while the server writes.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServer_SpeaksProtobufWire(t *testing.T) {
	fb := &fakeBackend{states: map[string]manager.State{"resnet50": manager.StateAvailable}}
	h := startServer(t, fb, Options{})

	// StringValue shares field 1 (string) with ModelRequest and ModelStatus,
	// so a client built from unrelated generated code interoperates.
	out := &wrapperspb.StringValue{}
	err := h.conn.Invoke(ctxT(t), pb.TorchServe_GetModelStatus_FullMethodName, wrapperspb.String("resnet50"), out)
	require.NoError(t, err)
	assert.Equal(t, "resnet50", out.GetValue())

	// the JSON content-subtype stays available
	st, err := h.client.GetModelStatus(ctxT(t), &pb.ModelRequest{ModelName: "resnet50"}, grpc.CallContentSubtype(pb.CodecName))
	require.NoError(t, err)
	assert.Equal(t, "Available", st.GetStatus())
}

func TestServer_ReflectionResolvesService(t *testing.T) {
	h := startServer(t, &fakeBackend{}, Options{})
	stream, err := rpb.NewServerReflectionClient(h.conn).ServerReflectionInfo(ctxT(t))
	require.NoError(t, err)

	require.NoError(t, stream.Send(&rpb.ServerReflectionRequest{
		MessageRequest: &rpb.ServerReflectionRequest_ListServices{ListServices: "*"},
	}))
	resp, err := stream.Recv()
	require.NoError(t, err)
	var names []string
	for _, svc := range resp.GetListServicesResponse().GetService() {
		names = append(names, svc.GetName())
	}
	assert.Contains(t, names, pb.ServiceName)

	require.NoError(t, stream.Send(&rpb.ServerReflectionRequest{
		MessageRequest: &rpb.ServerReflectionRequest_FileContainingSymbol{FileContainingSymbol: pb.ServiceName},
	}))
	resp, err = stream.Recv()
	require.NoError(t, err)
	files := resp.GetFileDescriptorResponse().GetFileDescriptorProto()
	require.NotEmpty(t, files, "error: %v", resp.GetErrorResponse())

	var fd descriptorpb.FileDescriptorProto
	require.NoError(t, proto.Unmarshal(files[0], &fd))
	assert.Equal(t, "torchserve.v1", fd.GetPackage())
	require.Len(t, fd.GetService(), 1)
	var methods []string
	for _, m := range fd.GetService()[0].GetMethod() {
		methods = append(methods, m.GetName())
	}
	assert.ElementsMatch(t, []string{"LoadModel", "UnloadModel", "GetModelStatus", "Predict"}, methods)
	require.NoError(t, stream.CloseSend())
}

func TestServer_MaxRecvMsgSize(t *testing.T) {
	fb := &fakeBackend{states: map[string]manager.State{"m": manager.StateAvailable}}
	h := startServer(t, fb, Options{MaxRecvMsgSize: 1024})

	_, err := h.client.Predict(ctxT(t), &pb.PredictRequest{ModelName: "m", InputData: make([]byte, 512)})
	require.NoError(t, err)

	_, err = h.client.Predict(ctxT(t), &pb.PredictRequest{ModelName: "m", InputData: make([]byte, 2048)})
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestServer_LogsTokenSubject(t *testing.T) {
	secret := []byte("grpc-test-secret")
	dec, err := auth.NewDecoder(secret, 4)
	require.NoError(t, err)
	iss, err := auth.NewIssuer(secret)
	require.NoError(t, err)

	var buf lockedBuffer
	h := startServerWithLog(t, &fakeBackend{}, Options{Decoder: dec}, zerolog.New(&buf))

	tok, err := iss.Issue("operator", time.Minute)
	require.NoError(t, err)
	ctx := metadata.AppendToOutgoingContext(ctxT(t), "authorization", "Bearer "+tok)
	_, err = h.client.LoadModel(ctx, &pb.ModelRequest{ModelName: "m"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"subject":"operator"`)
	assert.Contains(t, buf.String(), `"op":"load"`)
}
