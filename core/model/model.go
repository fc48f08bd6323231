// Package model holds the wire- and metadata-level types shared by the
// master, chunk node, and client: chunk descriptors, the replicated
// metadata aggregate, and its snapshot form.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const chunkIDSep = "_chunk_"

// ChunkID returns the deterministic chunk identifier for (fileName, index),
// per spec.md §3: derivable from the pair alone, no random component.
func ChunkID(fileName string, index int) string {
	return fmt.Sprintf("%s%s%d", fileName, chunkIDSep, index)
}

// ParseChunkID recovers (fileName, index) from a chunk id produced by
// ChunkID, needed wherever a caller holds only the chunk id and must
// reconstruct its place in the file (e.g. re-uploading it to a new
// replica during a transfer).
func ParseChunkID(chunkID string) (fileName string, index int, ok bool) {
	i := strings.LastIndex(chunkID, chunkIDSep)
	if i < 0 {
		return "", 0, false
	}

	n, err := strconv.Atoi(chunkID[i+len(chunkIDSep):])
	if err != nil {
		return "", 0, false
	}

	return chunkID[:i], n, true
}

// NumChunks returns ceil(fileSize / chunkSize), the chunk count for a file.
func NumChunks(fileSize, chunkSize int) int {
	if fileSize <= 0 {
		return 0
	}

	return (fileSize + chunkSize - 1) / chunkSize
}

// ChunkDescriptor is the master's view of one chunk: its replica set and
// a monotone version bumped whenever the replica set changes.
type ChunkDescriptor struct {
	ChunkID         string
	ServerAddresses []string
	Version         int
}

// FileChunks is the ordered (by index) list of descriptors for a file.
type FileChunks []ChunkDescriptor

// OTPEntry is one user's currently-valid one-time password.
type OTPEntry struct {
	OTP        string
	Expiration time.Time
}

func (o OTPEntry) Expired(now time.Time) bool {
	return !now.Before(o.Expiration)
}

// ChunkServerEntry is a chunk node's self-reported inventory, used on
// the master side to reconcile chunk_servers with heartbeats.
type ChunkServerEntry struct {
	Address string
	Chunks  map[string]struct{}
}

// Metadata is the master's full replicated state (spec.md §3). It is
// the type guarded by Master's single RWMutex; Snapshot is its
// propagated wire form.
type Metadata struct {
	FileChunks   map[string]FileChunks
	ChunkServers map[string]*ChunkServerEntry
	ChunkMap     map[string]ChunkDescriptor
	AuthTable    map[string]string
	ActiveOTPs   map[string]OTPEntry
}

func NewMetadata() Metadata {
	return Metadata{
		FileChunks:   make(map[string]FileChunks),
		ChunkServers: make(map[string]*ChunkServerEntry),
		ChunkMap:     make(map[string]ChunkDescriptor),
		AuthTable:    make(map[string]string),
		ActiveOTPs:   make(map[string]OTPEntry),
	}
}

// Snapshot is the serializable form of Metadata sent by UpdateMetadata.
// It deliberately omits Heartbeats (local-only, per spec.md §3) but, per
// the resolution of the OTP-propagation open question in spec.md §9,
// includes ActiveOTPs so a promoted shadow keeps honoring OTPs issued
// before failover.
type Snapshot struct {
	FileChunks   map[string]FileChunks
	ChunkServers map[string][]string // address -> chunk ids held
	ChunkMap     map[string]ChunkDescriptor
	AuthTable    map[string]string
	ActiveOTPs   map[string]OTPEntry
}

// ToSnapshot captures a deep-enough copy of m for propagation. Callers
// must hold the metadata lock (for reading) while calling this.
func (m Metadata) ToSnapshot() Snapshot {
	s := Snapshot{
		FileChunks:   make(map[string]FileChunks, len(m.FileChunks)),
		ChunkServers: make(map[string][]string, len(m.ChunkServers)),
		ChunkMap:     make(map[string]ChunkDescriptor, len(m.ChunkMap)),
		AuthTable:    make(map[string]string, len(m.AuthTable)),
		ActiveOTPs:   make(map[string]OTPEntry, len(m.ActiveOTPs)),
	}

	for f, chunks := range m.FileChunks {
		cp := make(FileChunks, len(chunks))
		copy(cp, chunks)
		s.FileChunks[f] = cp
	}

	for addr, entry := range m.ChunkServers {
		ids := make([]string, 0, len(entry.Chunks))
		for id := range entry.Chunks {
			ids = append(ids, id)
		}
		s.ChunkServers[addr] = ids
	}

	for id, c := range m.ChunkMap {
		s.ChunkMap[id] = c
	}

	for u, p := range m.AuthTable {
		s.AuthTable[u] = p
	}

	for u, o := range m.ActiveOTPs {
		s.ActiveOTPs[u] = o
	}

	return s
}

// FromSnapshot rebuilds a Metadata aggregate from a received snapshot,
// the way a shadow master overwrites its local metadata wholesale on
// UpdateMetadata (spec.md §4.1: "snapshot-push, not delta log").
func FromSnapshot(s Snapshot) Metadata {
	m := NewMetadata()

	for f, chunks := range s.FileChunks {
		cp := make(FileChunks, len(chunks))
		copy(cp, chunks)
		m.FileChunks[f] = cp
	}

	for addr, ids := range s.ChunkServers {
		entry := &ChunkServerEntry{Address: addr, Chunks: make(map[string]struct{}, len(ids))}
		for _, id := range ids {
			entry.Chunks[id] = struct{}{}
		}
		m.ChunkServers[addr] = entry
	}

	for id, c := range s.ChunkMap {
		m.ChunkMap[id] = c
	}

	for u, p := range s.AuthTable {
		m.AuthTable[u] = p
	}

	for u, o := range s.ActiveOTPs {
		m.ActiveOTPs[u] = o
	}

	return m
}
