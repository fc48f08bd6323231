package chunkserver

import (
	"context"
	"errors"
	"net/rpc"
	"os"
	"time"

	rpcmaster "github.com/relaysystems/gfscore/rpc/master"
)

var ErrNoActiveMaster = errors.New("no active master found among master_addrs")

// Register announces this node to the master via RegisterChunkServer
// (spec.md §4.1), adapted from the teacher's HealthMonitorService
// startup call.
func (n *ChunkNode) Register(masterAddr string) error {
	return n.registerWith(masterAddr)
}

func (n *ChunkNode) registerWith(masterAddr string) error {
	client, err := rpc.DialHTTP("tcp", masterAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	var reply rpcmaster.RegisterChunkServerReply
	args := rpcmaster.RegisterChunkServerArgs{Address: n.Self}
	if err := client.Call("MasterAPI.RegisterChunkServer", args, &reply); err != nil {
		return err
	}

	n.MasterAddr = masterAddr
	return nil
}

// discoverMaster probes masterAddrs with PingMaster and returns whichever
// address answers as the current active leader, the same handshake
// core/client.dialActiveMaster performs against the master set
// (spec.md §4.1).
func (n *ChunkNode) discoverMaster(masterAddrs []string) (string, error) {
	for _, addr := range masterAddrs {
		client, err := rpc.DialHTTP("tcp", addr)
		if err != nil {
			continue
		}

		var reply rpcmaster.PingMasterReply
		call := client.Go("MasterAPI.PingMaster", rpcmaster.PingMasterArgs{}, &reply, nil)

		select {
		case <-call.Done:
			if call.Error == nil && reply.IsLeader {
				client.Close()
				return addr, nil
			}
		case <-time.After(3 * time.Second):
		}

		client.Close()
	}

	return "", ErrNoActiveMaster
}

// StartHeartbeat reports this node's locally-held chunk inventory to
// the master every heartbeat_interval (spec.md §4.3), adapted from the
// teacher's HealthMonitorService.Start ticker.
func (n *ChunkNode) StartHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(n.cfg.HeartbeatInterval.Duration())
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := n.reportHeartbeat(); err != nil {
					n.log.Warnw("heartbeat failed", "err", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (n *ChunkNode) reportHeartbeat() error {
	if n.MasterAddr == "" {
		return nil
	}

	if err := n.sendHeartbeat(n.MasterAddr); err != nil {
		// The pinned master may be a failed-over former active; re-run
		// the startup discovery probe across master_addrs instead of
		// heartbeating a dead address indefinitely (spec.md §6: "on
		// master restart, chunk nodes re-register").
		addr, derr := n.discoverMaster(n.cfg.MasterAddrs)
		if derr != nil {
			return err
		}

		if err := n.registerWith(addr); err != nil {
			return err
		}

		return n.sendHeartbeat(n.MasterAddr)
	}

	return nil
}

func (n *ChunkNode) sendHeartbeat(masterAddr string) error {
	client, err := rpc.DialHTTP("tcp", masterAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	var reply rpcmaster.HeartbeatReply
	args := rpcmaster.HeartbeatArgs{ChunkServerAddress: n.Self, ChunkIDs: n.localChunkIDs()}
	return client.Call("MasterAPI.Heartbeat", args, &reply)
}

// localChunkIDs lists every chunk file name under data_path.
func (n *ChunkNode) localChunkIDs() []string {
	entries, err := os.ReadDir(n.cfg.DataPath)
	if err != nil {
		return nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids
}
