package main

import (
	masterCore "github.com/relaysystems/gfscore/core/master"
	"github.com/relaysystems/gfscore/core/model"
	rpcmaster "github.com/relaysystems/gfscore/rpc/master"
)

// MasterAPI adapts *masterCore.Master's Go-idiomatic method shapes to
// net/rpc's (args, *reply) error convention, following the teacher's
// cmd/master/main.go MasterAPI wrapper.
type MasterAPI struct {
	Master *masterCore.Master
}

func NewMasterAPI(master *masterCore.Master) *MasterAPI {
	return &MasterAPI{Master: master}
}

func (a *MasterAPI) RegisterChunkServer(args rpcmaster.RegisterChunkServerArgs, reply *rpcmaster.RegisterChunkServerReply) error {
	log.Infow("rpc", "event", "RegisterChunkServer", "address", args.Address)

	if err := a.Master.RegisterChunkServer(args.Address); err != nil {
		return err
	}

	reply.Ack = true
	return nil
}

func (a *MasterAPI) AssignChunks(args rpcmaster.AssignChunksArgs, reply *rpcmaster.AssignChunksReply) error {
	log.Infow("rpc", "event", "AssignChunks", "fileName", args.FileName, "size", args.FileSize)

	chunks, err := a.Master.AssignChunks(args.FileName, args.FileSize)
	if err != nil {
		return err
	}

	reply.FileName = args.FileName
	reply.Chunks = toChunkInfo(chunks)
	return nil
}

func (a *MasterAPI) ExtendFile(args rpcmaster.ExtendFileArgs, reply *rpcmaster.ExtendFileReply) error {
	log.Infow("rpc", "event", "ExtendFile", "fileName", args.FileName, "additionalSize", args.AdditionalSize)

	chunks, err := a.Master.ExtendFile(args.FileName, args.AdditionalSize)
	if err != nil {
		return err
	}

	reply.FileName = args.FileName
	reply.Chunks = toChunkInfo(chunks)
	return nil
}

func (a *MasterAPI) DeleteFile(args rpcmaster.DeleteFileArgs, reply *rpcmaster.DeleteFileReply) error {
	log.Infow("rpc", "event", "DeleteFile", "fileName", args.FileName)

	success, message := a.Master.DeleteFile(args.FileName)
	reply.Success = success
	reply.Message = message
	return nil
}

func (a *MasterAPI) GetFileChunks(args rpcmaster.GetFileChunksArgs, reply *rpcmaster.GetFileChunksReply) error {
	chunks, err := a.Master.GetFileChunks(args.FileName)
	if err != nil {
		return err
	}

	reply.FileName = args.FileName
	reply.Chunks = toChunkInfo(chunks)
	return nil
}

func (a *MasterAPI) Heartbeat(args rpcmaster.HeartbeatArgs, reply *rpcmaster.HeartbeatReply) error {
	a.Master.Heartbeat(args.ChunkServerAddress, args.ChunkIDs)
	reply.Message = "ok"
	return nil
}

func (a *MasterAPI) PingMaster(args rpcmaster.PingMasterArgs, reply *rpcmaster.PingMasterReply) error {
	reply.IsLeader = a.Master.PingMaster()
	return nil
}

func (a *MasterAPI) UpdateMetadata(args rpcmaster.UpdateMetadataArgs, reply *rpcmaster.UpdateMetadataReply) error {
	a.Master.ApplyMetadataSnapshot(args.Snapshot)
	reply.Ack = true
	return nil
}

func (a *MasterAPI) Authenticate(args rpcmaster.AuthenticateArgs, reply *rpcmaster.AuthenticateReply) error {
	otp, expiration, err := a.Master.Authenticate(args.Username, args.Password)
	if err != nil {
		return err
	}

	reply.Otp = otp
	reply.Expiration = expiration
	return nil
}

func toChunkInfo(chunks []model.ChunkDescriptor) []rpcmaster.ChunkInfo {
	out := make([]rpcmaster.ChunkInfo, len(chunks))
	for i, c := range chunks {
		out[i] = rpcmaster.FromDescriptor(c)
	}
	return out
}
