package master

import (
	"net/rpc"

	rpcchunkserver "github.com/relaysystems/gfscore/rpc/chunkserver"
)

// deleteChunkOnServer instructs the chunk node at addr to drop its local
// copy of chunkID (spec.md §4.5, the master-driven delete fan-out).
func (m *Master) deleteChunkOnServer(addr, fileName, chunkID string) error {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return err
	}
	defer client.Close()

	var reply rpcchunkserver.DeleteReply
	args := rpcchunkserver.DeleteArgs{FileName: fileName, ChunkID: chunkID}
	return client.Call("ChunkServerAPI.Delete", args, &reply)
}

// transferChunk asks the chunk node at from to push its copy of chunkID
// to to, used by Rebalance to restore replication_factor (spec.md §4.2).
func (m *Master) transferChunk(from, chunkID, to string) error {
	client, err := rpc.DialHTTP("tcp", from)
	if err != nil {
		return err
	}
	defer client.Close()

	var reply rpcchunkserver.TransferChunkReply
	args := rpcchunkserver.TransferChunkArgs{ChunkName: chunkID, TargetAddress: to}
	return client.Call("ChunkServerAPI.TransferChunk", args, &reply)
}
