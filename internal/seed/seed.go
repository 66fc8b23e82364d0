// Package seed implements the auxiliary peer-discovery service: a
// registry of node addresses reachable over the same wire protocol
// nodes use to gossip blocks and transactions. The seed takes no part
// in consensus.
package seed

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	klog "github.com/klingnet-tech/kchain/internal/log"
	"github.com/klingnet-tech/kchain/internal/wire"
	"github.com/rs/zerolog"
)

// connTimeout bounds how long a single connection is serviced for.
const connTimeout = 5 * time.Second

// Seed maintains an idempotent, unordered registry of peer addresses
// behind a read-write lock, and answers Register/GetPeers requests
// over the wire protocol's length-prefixed frames.
type Seed struct {
	mu    sync.RWMutex
	peers map[string]struct{}

	listener net.Listener
	logger   zerolog.Logger
}

// New constructs an empty Seed.
func New() *Seed {
	return &Seed{
		peers:  make(map[string]struct{}),
		logger: klog.Seed,
	}
}

// Start binds listenAddr and begins accepting connections in the
// background, returning once the bind succeeds or fails.
func (s *Seed) Start(ctx context.Context, listenAddr string) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("bind seed listener on %s: %w", listenAddr, err)
	}
	s.listener = ln
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("seed listening")

	go s.acceptLoop(ctx)
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	return nil
}

// Addr returns the resolved listen address. Only meaningful after
// Start has returned successfully.
func (s *Seed) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Seed) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn().Err(err).Msg("accept failed")
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Seed) handleConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	m, err := wire.ReadMessage(conn)
	if err != nil {
		s.logger.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("read message failed")
		return
	}

	switch m.Type {
	case wire.MsgRegister:
		s.Register(m.Address)
		s.logger.Debug().Str("addr", m.Address).Msg("registered peer")
	case wire.MsgGetPeers:
		resp := wire.PeersMessage(s.GetPeers())
		if err := wire.WriteMessage(conn, resp); err != nil {
			s.logger.Warn().Err(err).Msg("write GetPeers reply failed")
			return
		}
		s.logger.Debug().Msg("served peer list")
	default:
		s.logger.Warn().Str("type", m.Type.String()).Msg("unsupported message type on seed port")
	}
}

// Register idempotently inserts addr into the registry.
func (s *Seed) Register(addr string) {
	if addr == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[addr] = struct{}{}
}

// GetPeers returns a snapshot of every currently registered address,
// including the requester if it has already registered. Order is
// unspecified.
func (s *Seed) GetPeers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.peers))
	for addr := range s.peers {
		out = append(out, addr)
	}
	return out
}
