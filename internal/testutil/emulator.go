// Package testutil connects integration tests to the local Firebase emulators and Redis.
package testutil

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

// Addresses of the emulator suite started by firebase.json and of a local Redis.
const (
	AuthEmulatorHost      = "127.0.0.1:7110"
	FirestoreEmulatorHost = "127.0.0.1:7130"
	StorageEmulatorHost   = "127.0.0.1:7150"
	RedisAddr             = "127.0.0.1:6379"
	ProjectID             = "demo-test-project"
)

func reachable(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func skipUnless(t *testing.T, addr, name string) {
	t.Helper()
	if !reachable(addr) {
		t.Skipf("%s not reachable on %s", name, addr)
	}
}

// SkipIfFirestoreUnavailable skips t unless the Firestore emulator is running.
func SkipIfFirestoreUnavailable(t *testing.T) {
	t.Helper()
	skipUnless(t, FirestoreEmulatorHost, "Firestore emulator")
}

// SkipIfStorageUnavailable skips t unless the Storage emulator is running.
func SkipIfStorageUnavailable(t *testing.T) {
	t.Helper()
	skipUnless(t, StorageEmulatorHost, "Storage emulator")
}

// SkipIfRedisUnavailable skips t unless Redis listens on RedisAddr.
func SkipIfRedisUnavailable(t *testing.T) {
	t.Helper()
	skipUnless(t, RedisAddr, "Redis")
}

// SetupEmulator points the Firebase SDKs at the emulators for the duration of t.
func SetupEmulator(t *testing.T) {
	t.Helper()
	t.Setenv("FIREBASE_AUTH_EMULATOR_HOST", AuthEmulatorHost)
	t.Setenv("FIRESTORE_EMULATOR_HOST", FirestoreEmulatorHost)
	t.Setenv("STORAGE_EMULATOR_HOST", StorageEmulatorHost)
}

// ClearFirestore deletes every document in the emulator's default database.
func ClearFirestore(t *testing.T) {
	t.Helper()
	url := fmt.Sprintf("http://%s/emulator/v1/projects/%s/databases/(default)/documents",
		FirestoreEmulatorHost, ProjectID)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, url, nil)
	if err != nil {
		t.Fatalf("build clear request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("clear firestore: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		t.Fatalf("clear firestore: status %d", resp.StatusCode)
	}
}
