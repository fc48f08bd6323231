package chunkserver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLocalChunkIDsListsDataPath(t *testing.T) {
	n := testNode(t)

	if got := n.localChunkIDs(); len(got) != 0 {
		t.Fatalf("localChunkIDs on an empty data path = %v, want none", got)
	}

	for _, name := range []string{"f_chunk_0", "f_chunk_1"} {
		if err := os.WriteFile(filepath.Join(n.cfg.DataPath, name), []byte("x"), 0644); err != nil {
			t.Fatalf("seeding chunk file: %v", err)
		}
	}

	got := n.localChunkIDs()
	if len(got) != 2 {
		t.Fatalf("localChunkIDs = %v, want 2 entries", got)
	}
}

func TestReportHeartbeatNoopWithoutMaster(t *testing.T) {
	n := testNode(t)

	if err := n.reportHeartbeat(); err != nil {
		t.Fatalf("reportHeartbeat with no registered master should be a no-op, got %v", err)
	}
}
