// Package master implements the active/shadow master: metadata
// ownership, placement, rebalancing, heartbeat-driven failure
// detection, and authentication/OTP issuance (spec.md §4.1-§4.3, §4.6).
package master

import (
	"errors"
	"sync"
	"time"

	"github.com/relaysystems/gfscore/core/model"
	"github.com/relaysystems/gfscore/internal/config"
	"github.com/relaysystems/gfscore/internal/gfserrors"
	"github.com/relaysystems/gfscore/internal/gfslog"
)

// State is the tagged state of a node in the master set (spec.md §9:
// "model as a tagged state with an explicit transition function, not
// inheritance").
type State int

const (
	StateShadow State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "shadow"
}

var (
	ErrFileExists = errors.New("file exists")
)

// Master holds the single owning store of all coordination-plane
// metadata (spec.md §9: "resolve through top-level maps rather than
// pointer cycles"), guarded by one coarse RWMutex per spec.md §5.
type Master struct {
	mu sync.RWMutex

	metadata   model.Metadata
	heartbeats map[string]time.Time // local-only; never replicated, spec.md §3

	self     string
	addrs    []string // master_addrs, in configured (priority) order
	priority int      // index of self in addrs; lower = higher priority
	state    State

	cfg *config.Config
	log *gfslog.Logger
}

func New(cfg *config.Config, self string, log *gfslog.Logger) *Master {
	priority := -1
	for i, a := range cfg.MasterAddrs {
		if a == self {
			priority = i
		}
	}

	return &Master{
		metadata:   model.NewMetadata(),
		heartbeats: make(map[string]time.Time),
		self:       self,
		addrs:      cfg.MasterAddrs,
		priority:   priority,
		state:      StateShadow,
		cfg:        cfg,
		log:        log,
	}
}

func (m *Master) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Master) IsActive() bool {
	return m.State() == StateActive
}

func (m *Master) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// snapshotLocked captures the metadata snapshot for propagation; caller
// must hold at least a read lock.
func (m *Master) snapshotLocked() model.Snapshot {
	return m.metadata.ToSnapshot()
}

// RegisterChunkServer adds addr as a live chunk node, discarding any
// prior entry (spec.md §3: "destroyed ... when the node re-registers
// after restart; prior entry is discarded").
func (m *Master) RegisterChunkServer(addr string) error {
	if !m.IsActive() {
		return gfserrors.ErrNotLeader
	}

	m.mu.Lock()
	m.metadata.ChunkServers[addr] = &model.ChunkServerEntry{Address: addr, Chunks: make(map[string]struct{})}
	m.heartbeats[addr] = time.Now()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.propagateMetadata(snap)
	return nil
}

// DeleteFile removes fileName's metadata and propagates the change to
// the shadows first, then instructs every replica of every chunk to
// drop its local copy (spec.md §2, §4.5). A failed replica delete is
// logged; the metadata stays removed.
func (m *Master) DeleteFile(fileName string) (bool, string) {
	if !m.IsActive() {
		return false, gfserrors.ErrNotLeader.Error()
	}

	m.mu.Lock()
	chunks, ok := m.metadata.FileChunks[fileName]
	if !ok {
		m.mu.Unlock()
		// Idempotent: deleting an already-gone file still reports success
		// at the CLI/RPC boundary, per spec.md §8.
		return true, gfserrors.ErrNotFound.Error()
	}

	replicasByAddr := make(map[string][]model.ChunkDescriptor)
	for _, c := range chunks {
		for _, addr := range c.ServerAddresses {
			replicasByAddr[addr] = append(replicasByAddr[addr], c)
		}
	}

	delete(m.metadata.FileChunks, fileName)
	for _, c := range chunks {
		delete(m.metadata.ChunkMap, c.ChunkID)
		for _, addr := range c.ServerAddresses {
			if entry, ok := m.metadata.ChunkServers[addr]; ok {
				delete(entry.Chunks, c.ChunkID)
			}
		}
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.propagateMetadata(snap)

	for addr, cs := range replicasByAddr {
		for _, c := range cs {
			if err := m.deleteChunkOnServer(addr, fileName, c.ChunkID); err != nil {
				m.log.Warnw("delete fan-out failed", "address", addr, "chunkID", c.ChunkID, "err", err)
			}
		}
	}

	return true, "deleted"
}

// GetFileChunks returns the current chunk map for fileName.
func (m *Master) GetFileChunks(fileName string) ([]model.ChunkDescriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chunks, ok := m.metadata.FileChunks[fileName]
	if !ok {
		return nil, gfserrors.ErrNotFound
	}

	out := make([]model.ChunkDescriptor, len(chunks))
	copy(out, chunks)
	return out, nil
}

// ApplyMetadataSnapshot overwrites local metadata wholesale, the way a
// shadow master absorbs an UpdateMetadata push (spec.md §4.1).
func (m *Master) ApplyMetadataSnapshot(snap model.Snapshot) {
	m.mu.Lock()
	m.metadata = model.FromSnapshot(snap)
	m.mu.Unlock()
}
