package chunkserver

import (
	"errors"
	"net/rpc"

	"github.com/relaysystems/gfscore/core/model"
	"github.com/relaysystems/gfscore/internal/gfserrors"
	"github.com/relaysystems/gfscore/lib/checksum"
	rpcchunkserver "github.com/relaysystems/gfscore/rpc/chunkserver"
)

var ErrChecksumMismatch = errors.New("checksum does not match received data")

// Upload writes the chunk locally and, if this node is the first
// replica of a client-initiated upload, relays the same bytes to every
// other listed replica (spec.md §4.4).
func (n *ChunkNode) Upload(args rpcchunkserver.UploadArgs, reply *rpcchunkserver.UploadReply) error {
	// Internal uploads are either a peer relay of an already-authenticated
	// client upload (which still carries the original Otp) or a
	// master-driven transfer/rebalance push, which has no client OTP to
	// carry at all; exempt them the same way Delete's fan-out is exempt.
	if !args.IsInternal {
		if err := n.checkOtp(args.Otp); err != nil {
			return err
		}
	}

	if checksum.Calculate(args.Data) != args.Checksum {
		return ErrChecksumMismatch
	}

	chunkID := model.ChunkID(args.Info.FileName, args.Info.ChunkIndex)

	lock := n.chunkLock(chunkID)
	lock.Lock()
	err := n.writeChunk(chunkID, args.Data)
	lock.Unlock()

	if err != nil {
		return err
	}

	n.lru.Put(chunkID, args.Data)

	if !args.IsInternal && len(args.Replicas) > 0 && args.Replicas[0] == n.Self {
		if err := n.relayUpload(args, chunkID); err != nil {
			return err
		}
	}

	reply.Message = "ok"
	return nil
}

// relayUpload fans out a client-initiated upload to the remaining
// replicas; failures are logged, not returned, unless every relay
// fails (spec.md §4.4: "errors on any relay are logged but do not fail
// the client-facing upload unless all replicas fail").
func (n *ChunkNode) relayUpload(args rpcchunkserver.UploadArgs, chunkID string) error {
	peers := args.Replicas[1:]
	if len(peers) == 0 {
		return nil
	}

	failures := 0
	for _, addr := range peers {
		if err := n.sendUpload(addr, args.Info, args.Data, args.Otp); err != nil {
			n.log.Warnw("upload relay failed", "address", addr, "chunkID", chunkID, "err", err)
			failures++
		}
	}

	if failures == len(peers) {
		n.log.Errorw("upload relay failed on every replica", "chunkID", chunkID)
		return gfserrors.ErrReplicaUnavailable
	}

	return nil
}

func (n *ChunkNode) sendUpload(addr string, info rpcchunkserver.FileInfo, data []byte, otp string) error {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return err
	}
	defer client.Close()

	var reply rpcchunkserver.UploadReply
	args := rpcchunkserver.UploadArgs{Info: info, Data: data, Otp: otp, IsInternal: true, Checksum: checksum.Calculate(data)}
	return client.Call("ChunkServerAPI.Upload", args, &reply)
}

// Read returns the full chunk bytes, served from the LRU cache when
// present (spec.md §4.4, DOMAIN addition for the read cache).
func (n *ChunkNode) Read(args rpcchunkserver.ReadArgs, reply *rpcchunkserver.ReadReply) error {
	if err := n.checkOtp(args.Otp); err != nil {
		return err
	}

	if data, ok := n.lru.Get(args.ChunkID); ok {
		reply.Content = data
		return nil
	}

	data, err := n.readChunkBytes(args.ChunkID)
	if err != nil {
		if err == ErrChunkNotFound {
			return gfserrors.ErrNotFound
		}
		return err
	}

	n.lru.Put(args.ChunkID, data)
	reply.Content = data
	return nil
}

// Append appends data to the local chunk and, for a client-initiated
// call, relays the identical append to the other listed replicas so
// every live replica observes the same bytes (spec.md §4.4).
func (n *ChunkNode) Append(args rpcchunkserver.AppendArgs, reply *rpcchunkserver.AppendReply) error {
	if err := n.checkOtp(args.Otp); err != nil {
		return err
	}

	lock := n.chunkLock(args.ChunkID)
	lock.Lock()
	err := n.appendChunkBytes(args.ChunkID, args.Data)
	lock.Unlock()

	if err != nil {
		return err
	}

	n.lru.Delete(args.ChunkID) // stale after append; re-read on next Read

	if !args.IsInternal {
		for _, addr := range args.Replicas {
			if addr == n.Self {
				continue
			}
			if err := n.sendAppend(addr, args); err != nil {
				n.log.Warnw("append relay failed", "address", addr, "chunkID", args.ChunkID, "err", err)
			}
		}
	}

	reply.Message = "ok"
	return nil
}

func (n *ChunkNode) sendAppend(addr string, src rpcchunkserver.AppendArgs) error {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return err
	}
	defer client.Close()

	var reply rpcchunkserver.AppendReply
	args := rpcchunkserver.AppendArgs{FileName: src.FileName, ChunkID: src.ChunkID, Data: src.Data, Otp: src.Otp, IsInternal: true}
	return client.Call("ChunkServerAPI.Append", args, &reply)
}

// Delete removes the local chunk file (spec.md §4.5, master-driven
// fan-out); missing locally is not an error, keeping the fan-out
// idempotent.
func (n *ChunkNode) Delete(args rpcchunkserver.DeleteArgs, reply *rpcchunkserver.DeleteReply) error {
	lock := n.chunkLock(args.ChunkID)
	lock.Lock()
	err := n.deleteChunkFile(args.ChunkID)
	lock.Unlock()

	if err != nil {
		return err
	}

	n.lru.Delete(args.ChunkID)
	reply.Message = "ok"
	return nil
}

// TransferChunk reads the local chunk and pushes it to target_address
// via that peer's Upload RPC with is_internal=true (spec.md §4.4).
func (n *ChunkNode) TransferChunk(args rpcchunkserver.TransferChunkArgs, reply *rpcchunkserver.TransferChunkReply) error {
	data, err := n.readChunkBytes(args.ChunkName)
	if err != nil {
		if err == ErrChunkNotFound {
			return gfserrors.ErrNotFound
		}
		return err
	}

	fileName, index, ok := model.ParseChunkID(args.ChunkName)
	if !ok {
		return gfserrors.ErrNotFound
	}

	client, err := rpc.DialHTTP("tcp", args.TargetAddress)
	if err != nil {
		return gfserrors.ErrReplicaUnavailable
	}
	defer client.Close()

	var uploadReply rpcchunkserver.UploadReply
	uploadArgs := rpcchunkserver.UploadArgs{
		Info:       rpcchunkserver.FileInfo{FileName: fileName, ChunkIndex: index},
		Data:       data,
		IsInternal: true,
		Checksum:   checksum.Calculate(data),
	}

	if err := client.Call("ChunkServerAPI.Upload", uploadArgs, &uploadReply); err != nil {
		return err
	}

	reply.Message = "ok"
	return nil
}

// SendOtp stores/updates the OTP entry reported by the master
// (spec.md §4.4), registered as ChunkServerAPI.SendOtp.
func (n *ChunkNode) SendOtp(args rpcchunkserver.SendOtpArgs, reply *rpcchunkserver.SendOtpReply) error {
	n.storeOtp(args.Username, args.Otp, args.Expiration)
	reply.Message = "ok"
	return nil
}
