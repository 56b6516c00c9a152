// Package manager owns model lifecycles and inference. It is structured into
// small files by concern:
//
//   - registry.go, instance.go: name -> instance map, per-instance state,
//     reference counting and drain-on-unload.
//   - inference.go: Executor, the single acquire/compute/release path.
//   - manager.go, config.go: Manager construction, defaults, readiness, Close.
//   - load.go, unload.go: LoadModel/UnloadModel orchestration.
//   - handle.go: Handle and Loader interfaces, runtime dispatch.
//   - loader_remote.go: HTTP endpoint runtime.
//   - loader_llama.go: in-process go-llama.cpp runtime (build tag 'llama');
//     loader_llama_stub.go fails loads when the tag is not set.
//   - events.go, eventpub_*.go: lifecycle events (noop, memory, Redis).
//   - metrics.go: Prometheus collectors.
//   - status_report.go: /status projection.
//
// Lock order is Registry.mu before Instance.mu. No lock is held while a model
// computes or an artifact loads.
package manager
