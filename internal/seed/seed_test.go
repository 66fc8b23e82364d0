package seed

import (
	"context"
	"net"
	"sort"
	"testing"
	"time"

	"github.com/klingnet-tech/kchain/internal/wire"
)

func startTestSeed(t *testing.T) (*Seed, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := New()
	if err := s.Start(ctx, "127.0.0.1:0"); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return s, ctx
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRegister_Idempotent(t *testing.T) {
	s := New()
	s.Register("127.0.0.1:8080")
	s.Register("127.0.0.1:8080")

	peers := s.GetPeers()
	if len(peers) != 1 {
		t.Fatalf("GetPeers() = %v, want exactly one entry", peers)
	}
}

func TestRegister_EmptyAddrIgnored(t *testing.T) {
	s := New()
	s.Register("")
	if len(s.GetPeers()) != 0 {
		t.Error("Register(\"\") should not add anything")
	}
}

func TestGetPeers_Snapshot(t *testing.T) {
	s := New()
	s.Register("127.0.0.1:8080")
	s.Register("127.0.0.1:8081")

	got := s.GetPeers()
	sort.Strings(got)
	want := []string{"127.0.0.1:8080", "127.0.0.1:8081"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("GetPeers() = %v, want %v", got, want)
	}
}

// S6 — seed discovery over the wire.
func TestSeedDiscovery_S6(t *testing.T) {
	s, _ := startTestSeed(t)

	// Node X registers 127.0.0.1:8080.
	connX := dial(t, s.Addr())
	if err := wire.WriteMessage(connX, wire.RegisterMessage("127.0.0.1:8080")); err != nil {
		t.Fatalf("register X: %v", err)
	}
	connX.Close()

	// Give the server a moment to process the fire-and-forget register.
	time.Sleep(50 * time.Millisecond)

	// Node Y asks for peers; expects ["127.0.0.1:8080"].
	connY := dial(t, s.Addr())
	if err := wire.WriteMessage(connY, wire.GetPeersMessage()); err != nil {
		t.Fatalf("Y get-peers request: %v", err)
	}
	respY, err := wire.ReadMessage(connY)
	if err != nil {
		t.Fatalf("Y get-peers response: %v", err)
	}
	if len(respY.Addresses) != 1 || respY.Addresses[0] != "127.0.0.1:8080" {
		t.Fatalf("Y's peer list = %v, want [127.0.0.1:8080]", respY.Addresses)
	}
	connY.Close()

	// Node Y registers 127.0.0.1:8081.
	connY2 := dial(t, s.Addr())
	if err := wire.WriteMessage(connY2, wire.RegisterMessage("127.0.0.1:8081")); err != nil {
		t.Fatalf("register Y: %v", err)
	}
	connY2.Close()
	time.Sleep(50 * time.Millisecond)

	// Node X asks for peers again; expects the full set, order unspecified.
	connX2 := dial(t, s.Addr())
	if err := wire.WriteMessage(connX2, wire.GetPeersMessage()); err != nil {
		t.Fatalf("X get-peers request: %v", err)
	}
	respX, err := wire.ReadMessage(connX2)
	if err != nil {
		t.Fatalf("X get-peers response: %v", err)
	}
	got := append([]string(nil), respX.Addresses...)
	sort.Strings(got)
	want := []string{"127.0.0.1:8080", "127.0.0.1:8081"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("X's final peer list = %v, want %v", got, want)
	}
}

// GetBlocks is a node-to-node message type; the seed should log and
// ignore it rather than reply or crash.
func TestUnsupportedMessageType_IgnoredWithWarning(t *testing.T) {
	s, _ := startTestSeed(t)

	conn := dial(t, s.Addr())
	if err := wire.WriteMessage(conn, wire.GetBlocksMessage()); err != nil {
		t.Fatalf("send GetBlocks: %v", err)
	}
	conn.Close()

	// The seed's peer registry should be untouched by the stray message.
	time.Sleep(50 * time.Millisecond)
	if len(s.GetPeers()) != 0 {
		t.Error("unsupported message type should not mutate the peer registry")
	}
}
