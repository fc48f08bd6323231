// Package chunkserver defines the wire Args/Reply structs for a chunk
// node's net/rpc surface (spec.md §6). Upload is modeled as a single
// call carrying the full FileInfo + byte payload rather than a true
// bidirectional stream — net/rpc has no streaming primitive, and a
// chunk is bounded by chunk_size, so one call preserves the contract
// ("first message FileInfo, subsequent bytes") without it. Replicas is
// threaded through Upload/Append so the first-listed replica knows who
// else to fan out to, since the client (not the chunk node) holds the
// master's assignment.
package chunkserver

import "time"

type Service interface {
	Upload(args UploadArgs, reply *UploadReply) error
	Read(args ReadArgs, reply *ReadReply) error
	Append(args AppendArgs, reply *AppendReply) error
	Delete(args DeleteArgs, reply *DeleteReply) error
	TransferChunk(args TransferChunkArgs, reply *TransferChunkReply) error
	SendOtp(args SendOtpArgs, reply *SendOtpReply) error
}

type FileInfo struct {
	FileName   string
	ChunkIndex int
}

type UploadArgs struct {
	Info       FileInfo
	Data       []byte
	Otp        string
	IsInternal bool
	// Replicas lists every replica address for this chunk, in the
	// master's assignment order; the first-listed replica relays to
	// the rest. Empty on an internal (already-relayed) upload.
	Replicas []string
	// Checksum is the sender's lib/checksum.Calculate(Data), checked by
	// the receiving node to detect corruption across a relay/transfer
	// hop (DOMAIN addition, adapted from the teacher's ReceiveBytes).
	Checksum int
}

type UploadReply struct {
	Message string
}

type ReadArgs struct {
	FileName string
	ChunkID  string
	Otp      string
}

type ReadReply struct {
	Content []byte
}

type AppendArgs struct {
	FileName   string
	ChunkID    string
	Data       []byte
	Otp        string
	IsInternal bool
	Replicas   []string
}

type AppendReply struct {
	Message string
}

type DeleteArgs struct {
	FileName string
	ChunkID  string
	Otp      string
}

type DeleteReply struct {
	Message string
}

type TransferChunkArgs struct {
	ChunkName     string
	TargetAddress string
}

type TransferChunkReply struct {
	Message string
}

type SendOtpArgs struct {
	Username   string
	Otp        string
	Expiration time.Time
}

type SendOtpReply struct {
	Message string
}
