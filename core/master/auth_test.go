package master

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAuthTableParsesUsernamePassword(t *testing.T) {
	m := newActiveMaster(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "auth.txt")
	content := "alice:secret\nbob:hunter2\n\nmalformed-line\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if err := m.LoadAuthTable(path); err != nil {
		t.Fatalf("LoadAuthTable: %v", err)
	}

	if pw := m.metadata.AuthTable["alice"]; pw != "secret" {
		t.Fatalf("AuthTable[alice] = %q, want secret", pw)
	}
	if pw := m.metadata.AuthTable["bob"]; pw != "hunter2" {
		t.Fatalf("AuthTable[bob] = %q, want hunter2", pw)
	}
	if _, ok := m.metadata.AuthTable["malformed-line"]; ok {
		t.Fatal("malformed line should not produce a table entry")
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	m := newActiveMaster(t)
	m.metadata.AuthTable["alice"] = "secret"

	if _, _, err := m.Authenticate("alice", "wrong"); err == nil {
		t.Fatal("expected error for a wrong password")
	}

	if _, _, err := m.Authenticate("nobody", "anything"); err == nil {
		t.Fatal("expected error for an unknown user")
	}
}

func TestAuthenticateIssuesExpiringOTP(t *testing.T) {
	m := newActiveMaster(t)
	m.metadata.AuthTable["alice"] = "secret"

	otp, expiration, err := m.Authenticate("alice", "secret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if otp == "" {
		t.Fatal("expected a non-empty OTP")
	}

	entry, ok := m.metadata.ActiveOTPs["alice"]
	if !ok || entry.OTP != otp {
		t.Fatalf("ActiveOTPs[alice] = %+v, want OTP %q recorded", entry, otp)
	}

	if !expiration.Equal(entry.Expiration) {
		t.Fatalf("returned expiration %v != stored %v", expiration, entry.Expiration)
	}
}

func TestAuthenticateRequiresActiveMaster(t *testing.T) {
	m := New(testConfig(), "127.0.0.1:7000", testLogger(t))
	m.metadata.AuthTable["alice"] = "secret"

	if _, _, err := m.Authenticate("alice", "secret"); err == nil {
		t.Fatal("expected ErrNotLeader while shadow")
	}
}
