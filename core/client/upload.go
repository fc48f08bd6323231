package client

import (
	"github.com/relaysystems/gfscore/core/model"
	"github.com/relaysystems/gfscore/lib/checksum"
	rpcchunkserver "github.com/relaysystems/gfscore/rpc/chunkserver"
)

// Upload assigns chunks for fileName via the master, then streams each
// chunk_size-bounded slice to the first replica, which fans out to the
// rest (spec.md §4.5).
func (c *Client) Upload(fileName string, data []byte) error {
	chunks, err := c.assignChunks(fileName, len(data))
	if err != nil {
		return err
	}

	if err := c.uploadChunks(fileName, 0, data, chunks); err != nil {
		return err
	}

	return c.Cache.Put(fileName, chunks)
}

// uploadChunks streams data across chunks, whose first entry is at
// file-level index startIndex (0 for a fresh Upload, len(existing
// chunks) for an append-overflow extension).
func (c *Client) uploadChunks(fileName string, startIndex int, data []byte, chunks []model.ChunkDescriptor) error {
	chunkSize := c.cfg.ChunkSize

	for i, desc := range chunks {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}

		if err := c.uploadChunk(fileName, startIndex+i, data[start:end], desc.ServerAddresses); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) uploadChunk(fileName string, index int, data []byte, replicas []string) error {
	if len(replicas) == 0 {
		return nil
	}

	client, err := dialChunkServer(replicas[0])
	if err != nil {
		return err
	}
	defer client.Close()

	var reply rpcchunkserver.UploadReply
	args := rpcchunkserver.UploadArgs{
		Info:     rpcchunkserver.FileInfo{FileName: fileName, ChunkIndex: index},
		Data:     data,
		Otp:      c.otp,
		Replicas: replicas,
		Checksum: checksum.Calculate(data),
	}

	return client.Call("ChunkServerAPI.Upload", args, &reply)
}
