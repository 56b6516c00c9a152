package manager

import (
	"time"

	"torchserved/pkg/types"
)

// Snapshot returns bookkeeping for every registered instance, sorted by name.
func (m *Manager) Snapshot() []InstanceInfo { return m.registry.List() }

// StatusReport builds the response for GET /status.
func (m *Manager) StatusReport() types.StatusResponse {
	infos := m.registry.List()
	resp := types.StatusResponse{
		Instances:      make([]types.InstanceStatus, 0, len(infos)),
		Counts:         make(map[string]int, len(States)),
		PendingLoads:   m.PendingLoads(),
		Ready:          m.Ready(),
		UptimeSeconds:  int64(time.Since(m.startTime).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
	for _, s := range States {
		resp.Counts[string(s)] = 0
	}
	for _, info := range infos {
		resp.Counts[string(info.State)]++
		resp.Instances = append(resp.Instances, types.InstanceStatus{
			Name:        info.Name,
			State:       string(info.State),
			Reason:      info.Reason,
			Runtime:     info.Runtime,
			Artifact:    info.Artifact,
			Refcount:    info.Refcount,
			Predictions: info.Predictions,
			CreatedAt:   unixOrZero(info.CreatedAt),
			LoadedAt:    unixOrZero(info.LoadedAt),
			LastUsed:    unixOrZero(info.LastUsed),
		})
	}
	return resp
}

// ListModels returns the loadable models known to the catalog.
func (m *Manager) ListModels() []types.Model {
	arts := m.cfg.Catalog.List()
	out := make([]types.Model, 0, len(arts))
	for _, a := range arts {
		out = append(out, types.Model{
			Name:      a.Name,
			Runtime:   a.Runtime,
			Path:      a.Path,
			Endpoint:  a.Endpoint,
			SizeBytes: a.SizeBytes,
		})
	}
	return out
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
