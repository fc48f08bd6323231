package master

import (
	"net/rpc"
	"time"

	"github.com/relaysystems/gfscore/core/model"
	rpcmaster "github.com/relaysystems/gfscore/rpc/master"
)

// Start runs the startup handshake (spec.md §4.1) and, once a state is
// settled, launches the shadow ping loop, which skips every tick on
// which this node is active. It blocks until the initial handshake
// completes; the ping loop runs in its own goroutine.
func (m *Master) Start() {
	active := false
	for _, addr := range m.addrs {
		if addr == m.self {
			continue
		}

		if m.pingIsLeader(addr) {
			active = true
			break
		}
	}

	if active {
		m.setState(StateShadow)
		m.log.Infow("startup", "state", "shadow", "address", m.self)
	} else {
		m.setState(StateActive)
		m.log.Infow("startup", "state", "active", "address", m.self)
	}

	go m.shadowLoop()
}

// PingMaster answers "are you the leader?" for both the startup
// handshake and ordinary liveness probing.
func (m *Master) PingMaster() bool {
	return m.IsActive()
}

func (m *Master) pingIsLeader(addr string) bool {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return false
	}
	defer client.Close()

	var reply rpcmaster.PingMasterReply
	args := rpcmaster.PingMasterArgs{SenderAddress: m.self}

	call := client.Go("MasterAPI.PingMaster", args, &reply, nil)
	select {
	case <-call.Done:
		if call.Error != nil {
			return false
		}
		return reply.IsLeader
	case <-time.After(3 * time.Second):
		return false
	}
}

// pingAlive reports only liveness, ignoring leadership state; used by
// priority-ordered promotion to detect a still-running higher-priority
// master even while it is itself a shadow.
func (m *Master) pingAlive(addr string) bool {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return false
	}
	defer client.Close()

	var reply rpcmaster.PingMasterReply
	args := rpcmaster.PingMasterArgs{SenderAddress: m.self}

	call := client.Go("MasterAPI.PingMaster", args, &reply, nil)
	select {
	case <-call.Done:
		return call.Error == nil
	case <-time.After(3 * time.Second):
		return false
	}
}

// shadowLoop pings the active master every shadow_master_ping_interval;
// on failure it promotes itself, unless a higher-priority master (lower
// index in master_addrs) is still alive to take over instead — the
// priority-order resolution of the split-brain open question
// (spec.md §9, option b).
func (m *Master) shadowLoop() {
	ticker := time.NewTicker(m.cfg.ShadowMasterPingInterval.Duration())
	defer ticker.Stop()

	for range ticker.C {
		if m.IsActive() {
			continue
		}

		activeAddr := m.findActive()
		if activeAddr != "" && m.pingAlive(activeAddr) {
			continue
		}

		if m.higherPriorityAlive() {
			m.log.Infow("promotion deferred", "address", m.self, "reason", "higher-priority master still alive")
			continue
		}

		m.log.Warnw("active master unreachable, promoting self", "address", m.self)
		m.setState(StateActive)
	}
}

// findActive returns an address currently believed to be Active, by
// asking every peer; returns "" if none answers affirmatively.
func (m *Master) findActive() string {
	for _, addr := range m.addrs {
		if addr == m.self {
			continue
		}
		if m.pingIsLeader(addr) {
			return addr
		}
	}
	return ""
}

// higherPriorityAlive reports whether any master with a lower index in
// master_addrs than self is still reachable.
func (m *Master) higherPriorityAlive() bool {
	if m.priority < 0 {
		return false
	}

	for i := 0; i < m.priority; i++ {
		if m.pingAlive(m.addrs[i]) {
			return true
		}
	}

	return false
}

// propagateMetadata pushes snap to every other configured master,
// best-effort (spec.md §4.1: "failures logged, not retried").
func (m *Master) propagateMetadata(snap model.Snapshot) {
	for _, addr := range m.addrs {
		if addr == m.self {
			continue
		}

		go func(addr string) {
			client, err := rpc.DialHTTP("tcp", addr)
			if err != nil {
				m.log.Warnw("metadata propagation unreachable", "address", addr, "err", err)
				return
			}
			defer client.Close()

			var reply rpcmaster.UpdateMetadataReply
			args := rpcmaster.UpdateMetadataArgs{Snapshot: snap}
			if err := client.Call("MasterAPI.UpdateMetadata", args, &reply); err != nil {
				m.log.Warnw("metadata propagation failed", "address", addr, "err", err)
			}
		}(addr)
	}
}
