package client

import (
	"github.com/relaysystems/gfscore/core/model"
	rpcchunkserver "github.com/relaysystems/gfscore/rpc/chunkserver"
	rpcmaster "github.com/relaysystems/gfscore/rpc/master"
)

// Append targets the last chunk of fileName; if it would overflow
// chunk_size, it fills the last chunk then requests fresh chunks from
// the master for the overflow and uploads those directly, rather than
// extending a chunk server-side (spec.md §4.5, §9 resolution).
func (c *Client) Append(fileName string, data []byte) error {
	chunks, err := c.getFileChunks(fileName)
	if err != nil {
		return err
	}
	_ = c.Cache.Put(fileName, chunks)

	chunkSize := c.cfg.ChunkSize

	if len(chunks) == 0 {
		return c.appendOverflow(fileName, 0, data)
	}

	last := chunks[len(chunks)-1]
	currentSize, err := c.chunkCurrentSize(fileName, last)
	if err != nil {
		return err
	}

	room := chunkSize - currentSize
	if room < 0 {
		room = 0
	}

	fill := data
	overflow := []byte(nil)
	if len(data) > room {
		fill = data[:room]
		overflow = data[room:]
	}

	if len(fill) > 0 {
		if err := c.appendChunk(fileName, last, fill); err != nil {
			return err
		}
	}

	if len(overflow) > 0 {
		return c.appendOverflow(fileName, len(chunks), overflow)
	}

	return nil
}

// chunkCurrentSize measures a chunk's size by reading it; the core
// exposes no separate stat RPC, per spec.md §6's minimal surface.
func (c *Client) chunkCurrentSize(fileName string, desc model.ChunkDescriptor) (int, error) {
	data, err := c.readChunk(fileName, desc)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func (c *Client) appendChunk(fileName string, desc model.ChunkDescriptor, data []byte) error {
	if len(desc.ServerAddresses) == 0 {
		return nil
	}

	client, err := dialChunkServer(desc.ServerAddresses[0])
	if err != nil {
		return err
	}
	defer client.Close()

	var reply rpcchunkserver.AppendReply
	args := rpcchunkserver.AppendArgs{
		FileName: fileName,
		ChunkID:  desc.ChunkID,
		Data:     data,
		Otp:      c.otp,
		Replicas: desc.ServerAddresses,
	}

	return client.Call("ChunkServerAPI.Append", args, &reply)
}

// appendOverflow requests len(overflow) bytes worth of fresh chunks,
// the first at file-level index startIndex, and uploads overflow bytes
// into them.
func (c *Client) appendOverflow(fileName string, startIndex int, overflow []byte) error {
	added, err := c.extendFile(fileName, len(overflow))
	if err != nil {
		return err
	}

	if err := c.uploadChunks(fileName, startIndex, overflow, added); err != nil {
		return err
	}

	full, err := c.getFileChunks(fileName)
	if err != nil {
		return err
	}

	return c.Cache.Put(fileName, full)
}

func (c *Client) extendFile(fileName string, additionalSize int) ([]model.ChunkDescriptor, error) {
	master, err := c.dialActiveMaster()
	if err != nil {
		return nil, err
	}
	defer master.Close()

	var reply rpcmaster.ExtendFileReply
	args := rpcmaster.ExtendFileArgs{FileName: fileName, AdditionalSize: additionalSize}
	if err := master.Call("MasterAPI.ExtendFile", args, &reply); err != nil {
		return nil, err
	}

	return toDescriptors(reply.Chunks), nil
}
