package client

import (
	"github.com/relaysystems/gfscore/core/model"
	"github.com/relaysystems/gfscore/internal/gfserrors"
	rpcchunkserver "github.com/relaysystems/gfscore/rpc/chunkserver"
)

// Read fetches fileName's chunk map (cache first, refreshed from the
// master when a chunk read fails with ReplicaUnavailable or NotFound)
// and reassembles the file, picking a
// random replica per chunk and retrying others on failure (spec.md §4.5).
func (c *Client) Read(fileName string) ([]byte, error) {
	chunks, ok := c.Cache.Get(fileName)
	if !ok {
		fresh, err := c.getFileChunks(fileName)
		if err != nil {
			return nil, err
		}
		chunks = fresh
		_ = c.Cache.Put(fileName, chunks)
	}

	out := make([]byte, 0, len(chunks)*c.cfg.ChunkSize)

	for i, desc := range chunks {
		data, err := c.readChunk(fileName, desc)
		if kind := gfserrors.Classify(err); kind == gfserrors.KindReplicaUnavailable || kind == gfserrors.KindNotFound {
			fresh, refreshErr := c.getFileChunks(fileName)
			if refreshErr != nil {
				return nil, err
			}
			_ = c.Cache.Put(fileName, fresh)

			if i >= len(fresh) {
				return nil, err
			}
			data, err = c.readChunk(fileName, fresh[i])
		}

		if err != nil {
			return nil, err
		}

		out = append(out, data...)
	}

	return out, nil
}

func (c *Client) readChunk(fileName string, desc model.ChunkDescriptor) ([]byte, error) {
	var lastErr error = gfserrors.ErrReplicaUnavailable

	for _, addr := range randomOrder(desc.ServerAddresses) {
		data, err := c.readChunkFrom(addr, fileName, desc.ChunkID)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) readChunkFrom(addr, fileName, chunkID string) ([]byte, error) {
	client, err := dialChunkServer(addr)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var reply rpcchunkserver.ReadReply
	args := rpcchunkserver.ReadArgs{FileName: fileName, ChunkID: chunkID, Otp: c.otp}
	if err := client.Call("ChunkServerAPI.Read", args, &reply); err != nil {
		return nil, err
	}

	return reply.Content, nil
}
