package main

import (
	chunkserverCore "github.com/relaysystems/gfscore/core/chunkserver"
	rpcchunkserver "github.com/relaysystems/gfscore/rpc/chunkserver"
)

// ChunkServerAPI logs each RPC before delegating to *chunkserverCore.ChunkNode,
// whose methods already match net/rpc's (args, *reply) error shape directly.
type ChunkServerAPI struct {
	Node *chunkserverCore.ChunkNode
}

func NewChunkServerAPI(node *chunkserverCore.ChunkNode) *ChunkServerAPI {
	return &ChunkServerAPI{Node: node}
}

func (a *ChunkServerAPI) Upload(args rpcchunkserver.UploadArgs, reply *rpcchunkserver.UploadReply) error {
	log.Infow("rpc", "event", "Upload", "fileName", args.Info.FileName, "chunkIndex", args.Info.ChunkIndex, "internal", args.IsInternal)
	return a.Node.Upload(args, reply)
}

func (a *ChunkServerAPI) Read(args rpcchunkserver.ReadArgs, reply *rpcchunkserver.ReadReply) error {
	log.Infow("rpc", "event", "Read", "chunkID", args.ChunkID)
	return a.Node.Read(args, reply)
}

func (a *ChunkServerAPI) Append(args rpcchunkserver.AppendArgs, reply *rpcchunkserver.AppendReply) error {
	log.Infow("rpc", "event", "Append", "chunkID", args.ChunkID, "internal", args.IsInternal)
	return a.Node.Append(args, reply)
}

func (a *ChunkServerAPI) Delete(args rpcchunkserver.DeleteArgs, reply *rpcchunkserver.DeleteReply) error {
	log.Infow("rpc", "event", "Delete", "chunkID", args.ChunkID)
	return a.Node.Delete(args, reply)
}

func (a *ChunkServerAPI) TransferChunk(args rpcchunkserver.TransferChunkArgs, reply *rpcchunkserver.TransferChunkReply) error {
	log.Infow("rpc", "event", "TransferChunk", "chunkName", args.ChunkName, "target", args.TargetAddress)
	return a.Node.TransferChunk(args, reply)
}

func (a *ChunkServerAPI) SendOtp(args rpcchunkserver.SendOtpArgs, reply *rpcchunkserver.SendOtpReply) error {
	log.Infow("rpc", "event", "SendOtp", "username", args.Username)
	return a.Node.SendOtp(args, reply)
}
