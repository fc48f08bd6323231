package chunkserver

import (
	"os"
	fp "path/filepath"
)

// chunkPath returns the on-disk path for a chunk file named by its
// chunk id directly (spec.md §4.4: "directory of files named
// <chunk_id>"), unlike the teacher's per-version filename scheme —
// chunk ids here are stable for the chunk's lifetime, so there's
// nothing for a version suffix to disambiguate.
func (n *ChunkNode) chunkPath(chunkID string) string {
	return fp.Join(n.cfg.DataPath, chunkID)
}

// writeChunk truncate-and-creates the chunk file with data (spec.md
// §4.4 Upload).
func (n *ChunkNode) writeChunk(chunkID string, data []byte) error {
	if err := os.MkdirAll(n.cfg.DataPath, 0750); err != nil {
		return err
	}

	return os.WriteFile(n.chunkPath(chunkID), data, 0644)
}

// appendChunkBytes appends data to the chunk file, creating it if
// absent (spec.md §4.4 Append).
func (n *ChunkNode) appendChunkBytes(chunkID string, data []byte) error {
	if err := os.MkdirAll(n.cfg.DataPath, 0750); err != nil {
		return err
	}

	f, err := os.OpenFile(n.chunkPath(chunkID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// readChunkBytes returns the full contents of a chunk file.
func (n *ChunkNode) readChunkBytes(chunkID string) ([]byte, error) {
	data, err := os.ReadFile(n.chunkPath(chunkID))
	if os.IsNotExist(err) {
		return nil, ErrChunkNotFound
	}
	return data, err
}

// deleteChunkFile removes a chunk file; missing is not an error, to
// keep DeleteFile fan-out idempotent (spec.md §8).
func (n *ChunkNode) deleteChunkFile(chunkID string) error {
	err := os.Remove(n.chunkPath(chunkID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
