package chunkserver

import (
	"net"
	"net/http"
	"net/rpc"
	"testing"

	"github.com/relaysystems/gfscore/lib/checksum"
	rpcchunkserver "github.com/relaysystems/gfscore/rpc/chunkserver"
)

// serveNode exposes n's Upload method over its own net/rpc server +
// listener, mirroring cmd/chunkserver/api.go's registration but scoped
// to this test so multiple target nodes can run side by side.
func serveNode(t *testing.T, n *ChunkNode) string {
	t.Helper()

	server := rpc.NewServer()
	if err := server.RegisterName("ChunkServerAPI", (*rpcAPI)(n)); err != nil {
		t.Fatalf("RegisterName: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, server)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	go http.Serve(lis, mux)
	t.Cleanup(func() { lis.Close() })

	return lis.Addr().String()
}

// rpcAPI adapts *ChunkNode's methods to the single net/rpc path this
// test cares about (Upload), without pulling in cmd/chunkserver's
// logging wrapper.
type rpcAPI ChunkNode

func (a *rpcAPI) Upload(args rpcchunkserver.UploadArgs, reply *rpcchunkserver.UploadReply) error {
	return (*ChunkNode)(a).Upload(args, reply)
}

func TestTransferChunkWritesUnderSameChunkID(t *testing.T) {
	source := testNode(t)
	target := testNode(t)

	data := []byte("transfer me")
	uploadArgs := rpcchunkserver.UploadArgs{
		Info:     rpcchunkserver.FileInfo{FileName: "f", ChunkIndex: 2},
		Data:     data,
		Checksum: checksum.Calculate(data),
	}
	var uploadReply rpcchunkserver.UploadReply
	if err := source.Upload(uploadArgs, &uploadReply); err != nil {
		t.Fatalf("seed Upload: %v", err)
	}

	targetAddr := serveNode(t, target)

	var transferReply rpcchunkserver.TransferChunkReply
	transferArgs := rpcchunkserver.TransferChunkArgs{ChunkName: "f_chunk_2", TargetAddress: targetAddr}
	if err := source.TransferChunk(transferArgs, &transferReply); err != nil {
		t.Fatalf("TransferChunk: %v", err)
	}

	var readReply rpcchunkserver.ReadReply
	if err := target.Read(rpcchunkserver.ReadArgs{ChunkID: "f_chunk_2"}, &readReply); err != nil {
		t.Fatalf("target Read after transfer: %v", err)
	}

	if string(readReply.Content) != string(data) {
		t.Fatalf("transferred content = %q, want %q", readReply.Content, data)
	}
}
