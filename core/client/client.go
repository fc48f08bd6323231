// Package client implements the thin DFS client: master discovery,
// upload/read/append/delete against chunk nodes, and a local
// leveldb-backed cache of each file's last-known chunk map (spec.md
// §4.5), adapted from the teacher's core/client package.
package client

import (
	"errors"
	"math/rand"
	"net/rpc"
	"time"

	"github.com/relaysystems/gfscore/core/model"
	"github.com/relaysystems/gfscore/internal/config"
	"github.com/relaysystems/gfscore/internal/gfserrors"
	"github.com/relaysystems/gfscore/internal/gfslog"
	rpcmaster "github.com/relaysystems/gfscore/rpc/master"
)

var ErrNoActiveMaster = errors.New("no active master found among master_addrs")

// Client holds master/credential state plus the local chunk-map cache.
// It is not safe for concurrent use by multiple goroutines against the
// same file, matching the teacher's single-threaded Client.
type Client struct {
	cfg  *config.Config
	log  *gfslog.Logger
	Cache *FileCache

	username string
	otp      string
}

func New(cfg *config.Config, log *gfslog.Logger, cachePath string) (*Client, error) {
	cache, err := NewFileCache(cachePath)
	if err != nil {
		return nil, err
	}

	return &Client{cfg: cfg, log: log, Cache: cache}, nil
}

// dialActiveMaster finds the current active master by probing
// master_addrs with PingMaster, the same startup handshake the master
// set itself performs (spec.md §4.1).
func (c *Client) dialActiveMaster() (*rpc.Client, error) {
	for _, addr := range c.cfg.MasterAddrs {
		client, err := rpc.DialHTTP("tcp", addr)
		if err != nil {
			continue
		}

		var reply rpcmaster.PingMasterReply
		call := client.Go("MasterAPI.PingMaster", rpcmaster.PingMasterArgs{}, &reply, nil)

		select {
		case <-call.Done:
			if call.Error == nil && reply.IsLeader {
				return client, nil
			}
		case <-time.After(3 * time.Second):
		}

		client.Close()
	}

	return nil, ErrNoActiveMaster
}

// Authenticate performs the credential handshake (spec.md §4.6),
// recording the returned OTP for every subsequent chunk RPC.
func (c *Client) Authenticate(username, password string) error {
	master, err := c.dialActiveMaster()
	if err != nil {
		return err
	}
	defer master.Close()

	var reply rpcmaster.AuthenticateReply
	args := rpcmaster.AuthenticateArgs{Username: username, Password: password}
	if err := master.Call("MasterAPI.Authenticate", args, &reply); err != nil {
		return err
	}

	c.username = username
	c.otp = reply.Otp
	return nil
}

func (c *Client) assignChunks(fileName string, size int) ([]model.ChunkDescriptor, error) {
	master, err := c.dialActiveMaster()
	if err != nil {
		return nil, err
	}
	defer master.Close()

	var reply rpcmaster.AssignChunksReply
	args := rpcmaster.AssignChunksArgs{FileName: fileName, FileSize: size}
	if err := master.Call("MasterAPI.AssignChunks", args, &reply); err != nil {
		return nil, err
	}

	return toDescriptors(reply.Chunks), nil
}

func (c *Client) getFileChunks(fileName string) ([]model.ChunkDescriptor, error) {
	master, err := c.dialActiveMaster()
	if err != nil {
		return nil, err
	}
	defer master.Close()

	var reply rpcmaster.GetFileChunksReply
	args := rpcmaster.GetFileChunksArgs{FileName: fileName}
	if err := master.Call("MasterAPI.GetFileChunks", args, &reply); err != nil {
		return nil, err
	}

	return toDescriptors(reply.Chunks), nil
}

func toDescriptors(in []rpcmaster.ChunkInfo) []model.ChunkDescriptor {
	out := make([]model.ChunkDescriptor, len(in))
	for i, c := range in {
		out[i] = model.ChunkDescriptor{ChunkID: c.ChunkID, ServerAddresses: c.ServerAddresses, Version: c.Version}
	}
	return out
}

// Delete asks the master to remove fileName and its chunk fan-out
// (spec.md §4.5), then drops the local cache entry.
func (c *Client) Delete(fileName string) error {
	master, err := c.dialActiveMaster()
	if err != nil {
		return err
	}
	defer master.Close()

	var reply rpcmaster.DeleteFileReply
	args := rpcmaster.DeleteFileArgs{FileName: fileName}
	if err := master.Call("MasterAPI.DeleteFile", args, &reply); err != nil {
		return err
	}

	c.Cache.Delete(fileName)

	if !reply.Success {
		return gfserrors.ErrTransient
	}

	return nil
}

// randomOrder returns a shuffled copy of addrs, for the client's
// random-replica-with-retry read strategy (spec.md §4.5).
func randomOrder(addrs []string) []string {
	out := append([]string(nil), addrs...)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func dialChunkServer(addr string) (*rpc.Client, error) {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return nil, gfserrors.ErrReplicaUnavailable
	}
	return client, nil
}
