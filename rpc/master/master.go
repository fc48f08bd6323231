// Package master defines the wire Args/Reply structs for the master's
// net/rpc surface (spec.md §6), following the teacher's rpc/master
// convention of one file per service with an interface documenting
// method shapes alongside the structs.
package master

import (
	"time"

	"github.com/relaysystems/gfscore/core/model"
)

// Service documents the master's RPC surface; the concrete
// implementation lives in cmd/master as MasterAPI, registered with
// net/rpc by method value (net/rpc does not require implementing an
// interface, only matching method shape).
type Service interface {
	RegisterChunkServer(args RegisterChunkServerArgs, reply *RegisterChunkServerReply) error
	AssignChunks(args AssignChunksArgs, reply *AssignChunksReply) error
	ExtendFile(args ExtendFileArgs, reply *ExtendFileReply) error
	DeleteFile(args DeleteFileArgs, reply *DeleteFileReply) error
	GetFileChunks(args GetFileChunksArgs, reply *GetFileChunksReply) error
	Heartbeat(args HeartbeatArgs, reply *HeartbeatReply) error
	PingMaster(args PingMasterArgs, reply *PingMasterReply) error
	UpdateMetadata(args UpdateMetadataArgs, reply *UpdateMetadataReply) error
	Authenticate(args AuthenticateArgs, reply *AuthenticateReply) error
}

type ChunkInfo struct {
	ChunkID         string
	ServerAddresses []string
	Version         int
}

func FromDescriptor(c model.ChunkDescriptor) ChunkInfo {
	return ChunkInfo{ChunkID: c.ChunkID, ServerAddresses: c.ServerAddresses, Version: c.Version}
}

type RegisterChunkServerArgs struct {
	Address string
}

type RegisterChunkServerReply struct {
	Ack bool
}

type AssignChunksArgs struct {
	FileName string
	FileSize int
}

type AssignChunksReply struct {
	FileName string
	Chunks   []ChunkInfo
}

// ExtendFile grows an already-registered file by additional_size bytes
// worth of new chunks, appended after its current chunk list — the
// client-side append-overflow path (spec.md §9: Open Question
// resolution for chunk-size overflow on Append).
type ExtendFileArgs struct {
	FileName      string
	AdditionalSize int
}

type ExtendFileReply struct {
	FileName string
	Chunks   []ChunkInfo
}

type DeleteFileArgs struct {
	FileName string
}

type DeleteFileReply struct {
	Success bool
	Message string
}

type GetFileChunksArgs struct {
	FileName string
}

type GetFileChunksReply struct {
	FileName string
	Chunks   []ChunkInfo
}

type HeartbeatArgs struct {
	ChunkServerAddress string
	ChunkIDs           []string
}

type HeartbeatReply struct {
	Message string
}

type PingMasterArgs struct {
	SenderAddress string
}

type PingMasterReply struct {
	IsLeader bool
}

type UpdateMetadataArgs struct {
	Snapshot model.Snapshot
}

type UpdateMetadataReply struct {
	Ack bool
}

type AuthenticateArgs struct {
	Username string
	Password string
}

type AuthenticateReply struct {
	Otp        string
	Expiration time.Time
}
