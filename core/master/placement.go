package master

import (
	"sort"

	"github.com/relaysystems/gfscore/core/model"
	"github.com/relaysystems/gfscore/internal/gfserrors"
)

// AssignChunks computes the chunk list for a new upload and picks
// replicas for each chunk, prioritizing the least-loaded eligible
// chunk nodes (spec.md §4.2).
func (m *Master) AssignChunks(fileName string, fileSize int) ([]model.ChunkDescriptor, error) {
	if !m.IsActive() {
		return nil, gfserrors.ErrNotLeader
	}

	m.mu.Lock()

	if _, exists := m.metadata.FileChunks[fileName]; exists {
		m.mu.Unlock()
		return nil, ErrFileExists
	}

	n := model.NumChunks(fileSize, m.cfg.ChunkSize)
	chunks := make(model.FileChunks, 0, n)

	// Placements are staged here and only written into m.metadata once
	// every one of the n chunks places successfully, so a mid-file
	// ErrCapacityExhausted leaves ChunkMap/ChunkServers/FileChunks
	// completely untouched instead of partially populated with
	// unreclaimable, file-less chunk entries.
	pending := make(map[string]int)

	var placementErr error
	for i := 0; i < n; i++ {
		chunkID := model.ChunkID(fileName, i)
		replicas := m.selectReplicasLocked(nil, pending)

		if len(replicas) == 0 && m.cfg.ReplicationFactor > 0 {
			placementErr = gfserrors.ErrCapacityExhausted
			break
		} else if len(replicas) < m.cfg.ReplicationFactor {
			m.log.Warnw("reduced replication on placement", "chunkID", chunkID, "got", len(replicas), "want", m.cfg.ReplicationFactor)
		}

		chunks = append(chunks, model.ChunkDescriptor{ChunkID: chunkID, ServerAddresses: replicas, Version: 1})
		for _, addr := range replicas {
			pending[addr]++
		}
	}

	if placementErr != nil {
		m.mu.Unlock()
		return nil, placementErr
	}

	for _, desc := range chunks {
		m.metadata.ChunkMap[desc.ChunkID] = desc
		for _, addr := range desc.ServerAddresses {
			m.metadata.ChunkServers[addr].Chunks[desc.ChunkID] = struct{}{}
		}
	}

	m.metadata.FileChunks[fileName] = chunks
	snap := m.snapshotLocked()

	out := make([]model.ChunkDescriptor, len(chunks))
	copy(out, chunks)
	m.mu.Unlock()

	// Metadata propagation happens after releasing the write lock, per
	// spec.md §5, using the snapshot captured while holding it.
	m.propagateMetadata(snap)

	return out, nil
}

// ExtendFile appends additionalSize bytes worth of new chunks to an
// already-registered file, continuing its index sequence. This backs
// the client's append-overflow path (spec.md §9): rather than extending
// a chunk server-side, the client requests fresh chunks here and
// issues a plain Upload for the overflow bytes.
func (m *Master) ExtendFile(fileName string, additionalSize int) ([]model.ChunkDescriptor, error) {
	if !m.IsActive() {
		return nil, gfserrors.ErrNotLeader
	}

	m.mu.Lock()

	existing, ok := m.metadata.FileChunks[fileName]
	if !ok {
		m.mu.Unlock()
		return nil, gfserrors.ErrNotFound
	}

	startIndex := len(existing)
	n := model.NumChunks(additionalSize, m.cfg.ChunkSize)
	added := make(model.FileChunks, 0, n)

	// Staged the same way as AssignChunks: nothing is written into
	// m.metadata until every new chunk has placed successfully.
	pending := make(map[string]int)

	var placementErr error
	for i := 0; i < n; i++ {
		chunkID := model.ChunkID(fileName, startIndex+i)
		replicas := m.selectReplicasLocked(nil, pending)

		if len(replicas) == 0 && m.cfg.ReplicationFactor > 0 {
			placementErr = gfserrors.ErrCapacityExhausted
			break
		}

		added = append(added, model.ChunkDescriptor{ChunkID: chunkID, ServerAddresses: replicas, Version: 1})
		for _, addr := range replicas {
			pending[addr]++
		}
	}

	if placementErr != nil {
		m.mu.Unlock()
		return nil, placementErr
	}

	for _, desc := range added {
		m.metadata.ChunkMap[desc.ChunkID] = desc
		for _, addr := range desc.ServerAddresses {
			m.metadata.ChunkServers[addr].Chunks[desc.ChunkID] = struct{}{}
		}
	}

	m.metadata.FileChunks[fileName] = append(existing, added...)
	snap := m.snapshotLocked()

	out := make([]model.ChunkDescriptor, len(added))
	copy(out, added)
	m.mu.Unlock()

	m.propagateMetadata(snap)

	return out, nil
}

// selectReplicasLocked picks up to replication_factor distinct chunk
// nodes with spare capacity, excluding any address in exclude, ordered
// least-loaded first. pending adds in-flight-but-not-yet-committed load
// from earlier chunks of the same placement batch, so a multi-chunk
// AssignChunks/ExtendFile call still spreads replicas across nodes even
// though nothing is written to m.metadata until the whole batch commits;
// pass nil when there is no such batch (e.g. Rebalance). Caller must
// hold m.mu.
func (m *Master) selectReplicasLocked(exclude map[string]struct{}, pending map[string]int) []string {
	type candidate struct {
		addr string
		load int
	}

	candidates := make([]candidate, 0, len(m.metadata.ChunkServers))
	for addr, entry := range m.metadata.ChunkServers {
		if _, excluded := exclude[addr]; excluded {
			continue
		}

		load := len(entry.Chunks) + pending[addr]
		if load >= m.cfg.MaxAllowedChunks {
			continue
		}

		candidates = append(candidates, candidate{addr: addr, load: load})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].load != candidates[j].load {
			return candidates[i].load < candidates[j].load
		}
		return candidates[i].addr < candidates[j].addr
	})

	want := m.cfg.ReplicationFactor
	if want > len(candidates) {
		want = len(candidates)
	}

	out := make([]string, 0, want)
	for i := 0; i < want; i++ {
		out = append(out, candidates[i].addr)
	}

	return out
}

// Rebalance re-replicates every chunk currently below replication_factor
// (spec.md §4.2); the master cron calls it on every tick, right after
// failure detection.
func (m *Master) Rebalance() {
	if !m.IsActive() {
		return
	}

	m.mu.Lock()
	type job struct {
		desc   model.ChunkDescriptor
		from   string
		to     string
		fileOf string
	}

	var jobs []job
	for fileName, chunks := range m.metadata.FileChunks {
		for _, c := range chunks {
			if len(c.ServerAddresses) >= m.cfg.ReplicationFactor {
				continue
			}
			if len(c.ServerAddresses) == 0 {
				continue // nothing to replicate from
			}

			exclude := make(map[string]struct{}, len(c.ServerAddresses))
			for _, a := range c.ServerAddresses {
				exclude[a] = struct{}{}
			}

			candidates := m.selectReplicasLocked(exclude, nil)
			if len(candidates) == 0 {
				continue
			}

			jobs = append(jobs, job{desc: c, from: c.ServerAddresses[0], to: candidates[0], fileOf: fileName})
		}
	}
	m.mu.Unlock()

	for _, j := range jobs {
		if err := m.transferChunk(j.from, j.desc.ChunkID, j.to); err != nil {
			m.log.Warnw("rebalance transfer failed", "chunkID", j.desc.ChunkID, "from", j.from, "to", j.to, "err", err)
			continue
		}

		m.mu.Lock()
		c, ok := m.metadata.ChunkMap[j.desc.ChunkID]
		if ok {
			c.ServerAddresses = append(append([]string{}, c.ServerAddresses...), j.to)
			c.Version++
			m.metadata.ChunkMap[j.desc.ChunkID] = c

			fc := m.metadata.FileChunks[j.fileOf]
			for i := range fc {
				if fc[i].ChunkID == c.ChunkID {
					fc[i] = c
				}
			}

			if entry, ok := m.metadata.ChunkServers[j.to]; ok {
				entry.Chunks[c.ChunkID] = struct{}{}
			}
		}
		snap := m.snapshotLocked()
		m.mu.Unlock()

		m.propagateMetadata(snap)
		m.log.Infow("rebalanced chunk", "chunkID", j.desc.ChunkID, "newReplica", j.to)
	}
}
