package master

import (
	"time"

	"github.com/relaysystems/gfscore/core/model"
	"github.com/relaysystems/gfscore/lib/utils"
)

// Heartbeat records the arrival timestamp for addr and reconciles its
// reported inventory against chunk_servers (spec.md §4.3): chunks the
// node reports that aren't in metadata are ignored; chunks metadata has
// that the node didn't report are left alone this tick — heartbeats are
// advisory, not authoritative.
func (m *Master) Heartbeat(addr string, chunkIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.heartbeats[addr] = time.Now()

	entry, ok := m.metadata.ChunkServers[addr]
	if !ok {
		// Node heartbeating without a prior RegisterChunkServer; create
		// a bare entry so subsequent placement can see it.
		entry = &model.ChunkServerEntry{Address: addr, Chunks: make(map[string]struct{})}
		m.metadata.ChunkServers[addr] = entry
	}

	for _, id := range chunkIDs {
		if _, known := m.metadata.ChunkMap[id]; known {
			entry.Chunks[id] = struct{}{}
		}
	}
}

// StartCron launches the periodic failure-detection + rebalance tick
// (spec.md §4.3), firing every cron_interval.
func (m *Master) StartCron() {
	ticker := time.NewTicker(m.cfg.CronInterval.Duration())
	go func() {
		defer ticker.Stop()
		for range ticker.C {
			m.detectFailures()
			m.Rebalance()
		}
	}()
}

// detectFailures removes chunk nodes silent beyond
// heartbeat_failure_threshold * heartbeat_interval and strips them from
// every chunk's replica set (spec.md §4.3).
func (m *Master) detectFailures() {
	if !m.IsActive() {
		return
	}

	threshold := time.Duration(m.cfg.HeartbeatFailureThreshold) * m.cfg.HeartbeatInterval.Duration()
	now := time.Now()

	m.mu.Lock()
	var dead []string
	for addr, last := range m.heartbeats {
		if now.Sub(last) > threshold {
			dead = append(dead, addr)
		}
	}

	if len(dead) == 0 {
		m.mu.Unlock()
		return
	}

	for _, addr := range dead {
		delete(m.metadata.ChunkServers, addr)
		delete(m.heartbeats, addr)

		for fileName, chunks := range m.metadata.FileChunks {
			for i, c := range chunks {
				if !utils.Contains(c.ServerAddresses, addr) {
					continue
				}

				c.ServerAddresses = utils.Remove(c.ServerAddresses, addr)
				c.Version++
				chunks[i] = c
				m.metadata.ChunkMap[c.ChunkID] = c
			}
			m.metadata.FileChunks[fileName] = chunks
		}
	}

	snap := m.snapshotLocked()
	m.mu.Unlock()

	for _, addr := range dead {
		m.log.Warnw("chunk node declared dead", "address", addr)
	}

	m.propagateMetadata(snap)
}
