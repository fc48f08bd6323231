package chunkserver

import (
	"testing"
	"time"

	"github.com/relaysystems/gfscore/internal/config"
	"github.com/relaysystems/gfscore/internal/gfslog"
	"github.com/relaysystems/gfscore/lib/checksum"
	rpcchunkserver "github.com/relaysystems/gfscore/rpc/chunkserver"
)

func testNode(t *testing.T) *ChunkNode {
	t.Helper()

	log, err := gfslog.NewDevelopment("test")
	if err != nil {
		t.Fatalf("gfslog.NewDevelopment: %v", err)
	}

	cfg := config.Default()
	cfg.DataPath = t.TempDir()
	cfg.UseAuthentication = false

	return New(&cfg, "127.0.0.1:9000", log)
}

func TestUploadReadRoundTrip(t *testing.T) {
	n := testNode(t)
	data := []byte("payload bytes")

	args := rpcchunkserver.UploadArgs{
		Info:     rpcchunkserver.FileInfo{FileName: "f", ChunkIndex: 0},
		Data:     data,
		Checksum: checksum.Calculate(data),
	}

	var uploadReply rpcchunkserver.UploadReply
	if err := n.Upload(args, &uploadReply); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	var readReply rpcchunkserver.ReadReply
	readArgs := rpcchunkserver.ReadArgs{FileName: "f", ChunkID: "f_chunk_0"}
	if err := n.Read(readArgs, &readReply); err != nil {
		t.Fatalf("Read: %v", err)
	}

	if string(readReply.Content) != string(data) {
		t.Fatalf("Read content = %q, want %q", readReply.Content, data)
	}
}

func TestUploadRejectsChecksumMismatch(t *testing.T) {
	n := testNode(t)

	args := rpcchunkserver.UploadArgs{
		Info:     rpcchunkserver.FileInfo{FileName: "f", ChunkIndex: 0},
		Data:     []byte("payload"),
		Checksum: checksum.Calculate([]byte("different bytes")),
	}

	var reply rpcchunkserver.UploadReply
	if err := n.Upload(args, &reply); err != ErrChecksumMismatch {
		t.Fatalf("Upload err = %v, want ErrChecksumMismatch", err)
	}
}

func TestReadMissingChunk(t *testing.T) {
	n := testNode(t)

	var reply rpcchunkserver.ReadReply
	err := n.Read(rpcchunkserver.ReadArgs{FileName: "f", ChunkID: "f_chunk_9"}, &reply)
	if err == nil {
		t.Fatal("expected error for a chunk that was never uploaded")
	}
}

func TestAppendInvalidatesCacheAndAccumulates(t *testing.T) {
	n := testNode(t)
	data := []byte("abc")

	uploadArgs := rpcchunkserver.UploadArgs{
		Info:     rpcchunkserver.FileInfo{FileName: "f", ChunkIndex: 0},
		Data:     data,
		Checksum: checksum.Calculate(data),
	}
	var uploadReply rpcchunkserver.UploadReply
	if err := n.Upload(uploadArgs, &uploadReply); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	// Prime the LRU so Append must invalidate it rather than serve stale bytes.
	var readReply rpcchunkserver.ReadReply
	n.Read(rpcchunkserver.ReadArgs{FileName: "f", ChunkID: "f_chunk_0"}, &readReply)

	var appendReply rpcchunkserver.AppendReply
	appendArgs := rpcchunkserver.AppendArgs{FileName: "f", ChunkID: "f_chunk_0", Data: []byte("def")}
	if err := n.Append(appendArgs, &appendReply); err != nil {
		t.Fatalf("Append: %v", err)
	}

	readReply = rpcchunkserver.ReadReply{}
	if err := n.Read(rpcchunkserver.ReadArgs{FileName: "f", ChunkID: "f_chunk_0"}, &readReply); err != nil {
		t.Fatalf("Read after append: %v", err)
	}

	if string(readReply.Content) != "abcdef" {
		t.Fatalf("Read after append = %q, want %q", readReply.Content, "abcdef")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	n := testNode(t)
	data := []byte("x")

	uploadArgs := rpcchunkserver.UploadArgs{
		Info:     rpcchunkserver.FileInfo{FileName: "f", ChunkIndex: 0},
		Data:     data,
		Checksum: checksum.Calculate(data),
	}
	var uploadReply rpcchunkserver.UploadReply
	n.Upload(uploadArgs, &uploadReply)

	var deleteReply rpcchunkserver.DeleteReply
	if err := n.Delete(rpcchunkserver.DeleteArgs{FileName: "f", ChunkID: "f_chunk_0"}, &deleteReply); err != nil {
		t.Fatalf("first Delete: %v", err)
	}

	if err := n.Delete(rpcchunkserver.DeleteArgs{FileName: "f", ChunkID: "f_chunk_0"}, &deleteReply); err != nil {
		t.Fatalf("second Delete on already-gone chunk: %v", err)
	}
}

func TestCheckOtpRejectsUnknownAndExpired(t *testing.T) {
	n := testNode(t)
	n.cfg.UseAuthentication = true

	if err := n.checkOtp("nope"); err == nil {
		t.Fatal("expected error for unknown OTP")
	}

	n.storeOtp("alice", "valid-otp", time.Now().Add(time.Hour))
	if err := n.checkOtp("valid-otp"); err != nil {
		t.Fatalf("checkOtp with a fresh OTP: %v", err)
	}

	n.storeOtp("bob", "expired-otp", time.Now().Add(-time.Hour))
	if err := n.checkOtp("expired-otp"); err == nil {
		t.Fatal("expected error for an expired OTP")
	}
}

func TestUploadRejectsWithoutValidOtp(t *testing.T) {
	n := testNode(t)
	n.cfg.UseAuthentication = true

	data := []byte("payload")
	args := rpcchunkserver.UploadArgs{
		Info:     rpcchunkserver.FileInfo{FileName: "f", ChunkIndex: 0},
		Data:     data,
		Checksum: checksum.Calculate(data),
	}

	var reply rpcchunkserver.UploadReply
	if err := n.Upload(args, &reply); err == nil {
		t.Fatal("expected Upload to reject a request without a valid OTP")
	}
}
