package master

import (
	"bufio"
	"net/rpc"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/relaysystems/gfscore/core/model"
	"github.com/relaysystems/gfscore/internal/gfserrors"
	rpcchunkserver "github.com/relaysystems/gfscore/rpc/chunkserver"
)

// LoadAuthTable reads a "username:password" per line file into the
// auth table (spec.md §3: "loaded at startup").
func (m *Master) LoadAuthTable(path string) error {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	table := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		table[parts[0]] = parts[1]
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.metadata.AuthTable = table
	m.mu.Unlock()

	return nil
}

// Authenticate verifies credentials, issues a fresh OTP, fans it out to
// every registered chunk node, and returns it (spec.md §4.6).
func (m *Master) Authenticate(username, password string) (string, time.Time, error) {
	if !m.IsActive() {
		return "", time.Time{}, gfserrors.ErrNotLeader
	}

	m.mu.RLock()
	want, ok := m.metadata.AuthTable[username]
	m.mu.RUnlock()

	if !ok || want != password {
		return "", time.Time{}, gfserrors.ErrAuthFailed
	}

	otp := uuid.NewString()
	expiration := time.Now().Add(m.cfg.OtpValidDuration.Duration())

	m.mu.Lock()
	m.metadata.ActiveOTPs[username] = model.OTPEntry{OTP: otp, Expiration: expiration}
	snap := m.snapshotLocked()
	addrs := m.chunkServerAddressesLocked()
	m.mu.Unlock()

	m.propagateMetadata(snap)

	for _, addr := range addrs {
		if err := m.sendOtp(addr, username, otp, expiration); err != nil {
			m.log.Warnw("otp fan-out failed", "address", addr, "err", err)
		}
	}

	return otp, expiration, nil
}

func (m *Master) chunkServerAddressesLocked() []string {
	addrs := make([]string, 0, len(m.metadata.ChunkServers))
	for addr := range m.metadata.ChunkServers {
		addrs = append(addrs, addr)
	}
	return addrs
}

func (m *Master) sendOtp(addr, username, otp string, expiration time.Time) error {
	client, err := rpc.DialHTTP("tcp", addr)
	if err != nil {
		return err
	}
	defer client.Close()

	var reply rpcchunkserver.SendOtpReply
	args := rpcchunkserver.SendOtpArgs{Username: username, Otp: otp, Expiration: expiration}
	return client.Call("ChunkServerAPI.SendOtp", args, &reply)
}
