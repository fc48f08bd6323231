package client

import (
	"net"
	"net/http"
	"net/rpc"
	"testing"

	chunkservercore "github.com/relaysystems/gfscore/core/chunkserver"
	mastercore "github.com/relaysystems/gfscore/core/master"
	"github.com/relaysystems/gfscore/core/model"
	"github.com/relaysystems/gfscore/internal/config"
	"github.com/relaysystems/gfscore/internal/gfslog"
	rpcchunkserver "github.com/relaysystems/gfscore/rpc/chunkserver"
	rpcmaster "github.com/relaysystems/gfscore/rpc/master"
)

// masterRPC exposes the subset of *mastercore.Master this test drives
// over a real net/rpc + HTTP listener, mirroring cmd/master/api.go's
// MasterAPI without pulling in package main.
type masterRPC struct{ m *mastercore.Master }

func (a *masterRPC) PingMaster(args rpcmaster.PingMasterArgs, reply *rpcmaster.PingMasterReply) error {
	reply.IsLeader = a.m.PingMaster()
	return nil
}

func (a *masterRPC) AssignChunks(args rpcmaster.AssignChunksArgs, reply *rpcmaster.AssignChunksReply) error {
	chunks, err := a.m.AssignChunks(args.FileName, args.FileSize)
	if err != nil {
		return err
	}
	reply.FileName = args.FileName
	reply.Chunks = toChunkInfo(chunks)
	return nil
}

func (a *masterRPC) ExtendFile(args rpcmaster.ExtendFileArgs, reply *rpcmaster.ExtendFileReply) error {
	chunks, err := a.m.ExtendFile(args.FileName, args.AdditionalSize)
	if err != nil {
		return err
	}
	reply.FileName = args.FileName
	reply.Chunks = toChunkInfo(chunks)
	return nil
}

func (a *masterRPC) DeleteFile(args rpcmaster.DeleteFileArgs, reply *rpcmaster.DeleteFileReply) error {
	success, message := a.m.DeleteFile(args.FileName)
	reply.Success = success
	reply.Message = message
	return nil
}

func (a *masterRPC) GetFileChunks(args rpcmaster.GetFileChunksArgs, reply *rpcmaster.GetFileChunksReply) error {
	chunks, err := a.m.GetFileChunks(args.FileName)
	if err != nil {
		return err
	}
	reply.FileName = args.FileName
	reply.Chunks = toChunkInfo(chunks)
	return nil
}

func toChunkInfo(chunks []model.ChunkDescriptor) []rpcmaster.ChunkInfo {
	out := make([]rpcmaster.ChunkInfo, len(chunks))
	for i, c := range chunks {
		out[i] = rpcmaster.FromDescriptor(c)
	}
	return out
}

// chunkNodeRPC exposes *chunkservercore.ChunkNode's RPC-shaped methods
// directly; they already match net/rpc's (args, *reply) error shape.
type chunkNodeRPC struct{ n *chunkservercore.ChunkNode }

func (a *chunkNodeRPC) Upload(args rpcchunkserver.UploadArgs, reply *rpcchunkserver.UploadReply) error {
	return a.n.Upload(args, reply)
}

func (a *chunkNodeRPC) Read(args rpcchunkserver.ReadArgs, reply *rpcchunkserver.ReadReply) error {
	return a.n.Read(args, reply)
}

func (a *chunkNodeRPC) Append(args rpcchunkserver.AppendArgs, reply *rpcchunkserver.AppendReply) error {
	return a.n.Append(args, reply)
}

func (a *chunkNodeRPC) Delete(args rpcchunkserver.DeleteArgs, reply *rpcchunkserver.DeleteReply) error {
	return a.n.Delete(args, reply)
}

// openListener reserves an address before the component bound to it
// exists, since Master/ChunkNode both need to know their own address
// up front.
func openListener(t *testing.T) net.Listener {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { lis.Close() })
	return lis
}

func serveOnListener(t *testing.T, lis net.Listener, name string, receiver interface{}) {
	t.Helper()

	server := rpc.NewServer()
	if err := server.RegisterName(name, receiver); err != nil {
		t.Fatalf("RegisterName(%s): %v", name, err)
	}

	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, server)

	go http.Serve(lis, mux)
}

func testLogger(t *testing.T) *gfslog.Logger {
	t.Helper()
	log, err := gfslog.NewDevelopment("test")
	if err != nil {
		t.Fatalf("gfslog.NewDevelopment: %v", err)
	}
	return log
}

// newCluster wires one active master and one chunk node, both served
// over real listeners, and returns a Client pointed at the master.
func newCluster(t *testing.T, chunkSize int) *Client {
	t.Helper()

	log := testLogger(t)

	masterLis := openListener(t)
	masterAddr := masterLis.Addr().String()

	cfg := config.Default()
	cfg.MasterAddrs = []string{masterAddr}
	cfg.ChunkSize = chunkSize
	cfg.ReplicationFactor = 1

	m := mastercore.New(&cfg, masterAddr, log)
	serveOnListener(t, masterLis, "MasterAPI", &masterRPC{m: m})
	// A single-entry master_addrs list makes Start's handshake a no-op
	// (the only peer is self) and settles state to active immediately.
	m.Start()

	nodeLis := openListener(t)
	nodeAddr := nodeLis.Addr().String()

	nodeCfg := cfg
	nodeCfg.DataPath = t.TempDir()
	node := chunkservercore.New(&nodeCfg, nodeAddr, log)
	serveOnListener(t, nodeLis, "ChunkServerAPI", &chunkNodeRPC{n: node})

	if err := m.RegisterChunkServer(nodeAddr); err != nil {
		t.Fatalf("RegisterChunkServer: %v", err)
	}

	clientCfg := cfg
	c, err := New(&clientCfg, log, t.TempDir())
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}

	return c
}

func TestUploadReadAppendRoundTrip(t *testing.T) {
	c := newCluster(t, 8)

	if err := c.Upload("f", []byte("abcdefgh")); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	got, err := c.Read("f")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "abcdefgh" {
		t.Fatalf("Read = %q, want %q", got, "abcdefgh")
	}

	if err := c.Append("f", []byte("ijk")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err = c.Read("f")
	if err != nil {
		t.Fatalf("Read after append: %v", err)
	}
	if string(got) != "abcdefghijk" {
		t.Fatalf("Read after append = %q, want %q", got, "abcdefghijk")
	}
}

func TestDeleteRemovesFile(t *testing.T) {
	c := newCluster(t, 8)

	if err := c.Upload("f", []byte("data")); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := c.Delete("f"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok := c.Cache.Get("f"); ok {
		t.Fatal("expected cache entry to be dropped after Delete")
	}
}
