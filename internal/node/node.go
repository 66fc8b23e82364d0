// Package node implements the concurrent runtime that owns a Chain and
// a Mempool, accepts inbound peer connections, gossips blocks and
// transactions, mines new blocks, and resolves forks against known
// peers.
package node

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/klingnet-tech/kchain/internal/chain"
	klog "github.com/klingnet-tech/kchain/internal/log"
	"github.com/klingnet-tech/kchain/internal/mempool"
	"github.com/klingnet-tech/kchain/internal/wire"
	"github.com/klingnet-tech/kchain/pkg/block"
	"github.com/klingnet-tech/kchain/pkg/tx"
	"github.com/rs/zerolog"
)

// MiningReward is the fixed coinbase amount paid to a miner address for
// each locally mined block. Difficulty retargeting and reward halving
// are both out of scope.
const MiningReward = 50

// defaultDialTimeout bounds every outbound dial/read/write so a stuck
// peer cannot wedge Sync or a broadcast fan-out.
const defaultDialTimeout = 5 * time.Second

// miningIdleBackoff and miningAbortBackoff pace the mining loop: a
// short pause after a successful commit, a longer one after an abort
// (another block already landed on the tail we were extending).
const (
	miningIdleBackoff  = 200 * time.Millisecond
	miningAbortBackoff = 1 * time.Second
)

// Config holds the parameters a Node is constructed with.
type Config struct {
	// ListenAddr is both the bind address and, once resolved, this
	// node's advertised address — the same string peers dial and the
	// seed registry stores. Use ":0" style ephemeral ports only in
	// tests; production nodes bind a fixed host:port.
	ListenAddr string

	// MinerAddress receives the coinbase reward for locally mined
	// blocks.
	MinerAddress string

	// DialTimeout bounds outbound connects/reads/writes. Zero means
	// defaultDialTimeout.
	DialTimeout time.Duration
}

// Node is the shared runtime state of one participant: a Chain, a
// Mempool, and a peer address set, guarded by their own locks. Lock
// order is always Chain before Mempool before Peers, and no lock is
// held across a network suspension point.
type Node struct {
	cfg Config

	chain *chain.Chain
	pool  *mempool.Pool

	mu    sync.RWMutex
	peers map[string]struct{}

	listener net.Listener
	addr     string

	logger zerolog.Logger
}

// New constructs a Node over an existing chain and mempool. c and p
// are typically chain.New/chain.Empty and mempool.New, constructed by
// the CLI before Start is called.
func New(cfg Config, c *chain.Chain, p *mempool.Pool) *Node {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	return &Node{
		cfg:    cfg,
		chain:  c,
		pool:   p,
		peers:  make(map[string]struct{}),
		addr:   cfg.ListenAddr,
		logger: klog.Node,
	}
}

// Addr returns this node's resolved listen address. Only meaningful
// after Start has returned successfully.
func (n *Node) Addr() string {
	return n.addr
}

// Chain exposes the node's chain for callers that need a snapshot
// (e.g. the CLI printing status) without reaching into internals.
func (n *Node) Chain() *chain.Chain {
	return n.chain
}

// Start binds the listener and spawns the accept loop in the
// background, returning once the bind has succeeded or failed. A bind
// failure is the one condition the caller should treat as fatal
// (spec's listener-bind-at-startup case).
func (n *Node) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", n.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("bind listener on %s: %w", n.cfg.ListenAddr, err)
	}
	n.listener = ln
	n.addr = ln.Addr().String()

	n.logger.Info().Str("addr", n.addr).Msg("node listening")

	go n.acceptLoop(ctx)
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	return nil
}

func (n *Node) acceptLoop(ctx context.Context) {
	for {
		conn, err := n.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			n.logger.Warn().Err(err).Msg("accept failed")
			continue
		}
		go n.handleConn(ctx, conn)
	}
}

// handleConn services exactly one framed request per connection:
// request/response message types write a reply before returning, and
// one-way messages (NewBlock, NewTransaction) just mutate state.
func (n *Node) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(n.cfg.DialTimeout))
	m, err := wire.ReadMessage(conn)
	if err != nil {
		n.logger.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("read message failed")
		return
	}

	switch m.Type {
	case wire.MsgNewBlock:
		n.handleNewBlock(ctx, m.Block)
	case wire.MsgNewTransaction:
		n.handleNewTransaction(m.Transaction)
	case wire.MsgGetBlocks:
		resp := wire.BlocksMessage(n.chain.Snapshot())
		if err := wire.WriteMessage(conn, resp); err != nil {
			n.logger.Warn().Err(err).Msg("write GetBlocks reply failed")
		}
	case wire.MsgBlocks:
		// Responses are only meaningful on the requesting side.
	case wire.MsgRegister, wire.MsgGetPeers, wire.MsgPeers:
		n.logger.Warn().Str("type", m.Type.String()).Msg("seed-only message ignored by node")
	default:
		n.logger.Warn().Str("type", m.Type.String()).Msg("unknown message type ignored")
	}
}

// handleNewBlock implements the inbound block state machine from the
// node runtime spec: append on a clean extension, log a competing
// fork on a same-height mismatch, trigger sync on a gap, and ignore
// anything at or below the current tail.
func (n *Node) handleNewBlock(ctx context.Context, b *block.Block) {
	if n.chain.AddMinedBlock(b) {
		n.pool.RemoveConfirmed(b.Transactions)
		n.logger.Info().Uint64("index", b.Index).Str("hash", b.Hash).Msg("accepted inbound block")
		return
	}

	tail := n.chain.LastBlock()
	switch {
	case tail == nil:
		n.logger.Warn().Uint64("index", b.Index).Msg("rejected inbound block: empty local chain")
	case b.Index == tail.Index+1:
		n.logger.Warn().Uint64("index", b.Index).Msg("rejected inbound block: competing fork at tail height")
	case b.Index > tail.Index+1:
		n.logger.Info().Uint64("index", b.Index).Uint64("tail", tail.Index).Msg("inbound block gap, triggering sync")
		go n.Sync(ctx)
	default:
		n.logger.Debug().Uint64("index", b.Index).Uint64("tail", tail.Index).Msg("rejected stale inbound block")
	}
}

func (n *Node) handleNewTransaction(t *tx.Transaction) {
	if err := n.AddTransaction(t); err != nil {
		n.logger.Debug().Err(err).Msg("inbound transaction not added")
	}
}

// AddTransaction dedups t by content hash and appends it to the
// mempool. Used both for local submission and as the NewTransaction
// handler.
func (n *Node) AddTransaction(t *tx.Transaction) error {
	return n.pool.Add(t)
}

// AddPeer registers a peer address, skipping the node's own address.
func (n *Node) AddPeer(addr string) {
	if addr == "" || addr == n.addr {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.peers[addr] = struct{}{}
}

// Peers returns a snapshot of known peer addresses.
func (n *Node) Peers() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, 0, len(n.peers))
	for addr := range n.peers {
		out = append(out, addr)
	}
	return out
}

func (n *Node) dial(ctx context.Context, addr string) (net.Conn, error) {
	dctx, cancel := context.WithTimeout(ctx, n.cfg.DialTimeout)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(dctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Now().Add(n.cfg.DialTimeout))
	return conn, nil
}

// requestBlocks opens a connection to addr, sends GetBlocks, and
// returns the peer's Blocks response.
func (n *Node) requestBlocks(ctx context.Context, addr string) ([]*block.Block, error) {
	conn, err := n.dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := wire.WriteMessage(conn, wire.GetBlocksMessage()); err != nil {
		return nil, fmt.Errorf("send GetBlocks to %s: %w", addr, err)
	}
	resp, err := wire.ReadMessage(conn)
	if err != nil {
		return nil, fmt.Errorf("read Blocks from %s: %w", addr, err)
	}
	return resp.Blocks, nil
}

// Sync polls every known peer with GetBlocks and replaces the local
// chain with the longest valid response strictly longer than the
// current chain. A peer that fails to answer is logged and skipped;
// if no peer offers a longer valid chain, local state is untouched.
func (n *Node) Sync(ctx context.Context) {
	for _, addr := range n.Peers() {
		blocks, err := n.requestBlocks(ctx, addr)
		if err != nil {
			n.logger.Warn().Str("peer", addr).Err(err).Msg("sync request failed")
			continue
		}
		if n.chain.ReplaceWith(blocks) {
			n.logger.Info().Str("peer", addr).Int("len", len(blocks)).Msg("adopted longer valid chain")
		}
	}
}

// BroadcastBlock fans b out to every known peer sequentially. Per-peer
// failures are logged and swallowed; the node stays up regardless.
func (n *Node) BroadcastBlock(ctx context.Context, b *block.Block) {
	n.broadcast(ctx, wire.NewBlockMessage(b))
}

// BroadcastTransaction fans t out to every known peer.
func (n *Node) BroadcastTransaction(ctx context.Context, t *tx.Transaction) {
	n.broadcast(ctx, wire.NewTransactionMessage(t))
}

func (n *Node) broadcast(ctx context.Context, m wire.Message) {
	for _, addr := range n.Peers() {
		conn, err := n.dial(ctx, addr)
		if err != nil {
			n.logger.Warn().Str("peer", addr).Err(err).Msg("broadcast dial failed")
			continue
		}
		if err := wire.WriteMessage(conn, m); err != nil {
			n.logger.Warn().Str("peer", addr).Err(err).Msg("broadcast send failed")
		}
		conn.Close()
	}
}

// RegisterWithSeed tells the seed at seedAddr about this node's own
// address. Registration is fire-and-forget: the protocol defines no
// response.
func (n *Node) RegisterWithSeed(ctx context.Context, seedAddr string) error {
	conn, err := n.dial(ctx, seedAddr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := wire.WriteMessage(conn, wire.RegisterMessage(n.addr)); err != nil {
		return fmt.Errorf("register with seed %s: %w", seedAddr, err)
	}
	return nil
}

// GetPeersFromSeed queries the seed at seedAddr for its full peer
// registry snapshot.
func (n *Node) GetPeersFromSeed(ctx context.Context, seedAddr string) ([]string, error) {
	conn, err := n.dial(ctx, seedAddr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := wire.WriteMessage(conn, wire.GetPeersMessage()); err != nil {
		return nil, fmt.Errorf("request peers from seed %s: %w", seedAddr, err)
	}
	resp, err := wire.ReadMessage(conn)
	if err != nil {
		return nil, fmt.Errorf("read peers from seed %s: %w", seedAddr, err)
	}
	return resp.Addresses, nil
}

// Bootstrap runs the startup discovery sequence from the seed
// protocol: query the seed for its current registry first (so this
// node does not learn its own address back), add every peer returned,
// register with the seed, then optionally add a single static peer
// and sync the chain.
func (n *Node) Bootstrap(ctx context.Context, seedAddr, staticPeer string) {
	if seedAddr != "" {
		addrs, err := n.GetPeersFromSeed(ctx, seedAddr)
		if err != nil {
			n.logger.Warn().Str("seed", seedAddr).Err(err).Msg("get-peers-from-seed failed")
		}
		for _, addr := range addrs {
			n.AddPeer(addr)
		}
		if err := n.RegisterWithSeed(ctx, seedAddr); err != nil {
			n.logger.Warn().Str("seed", seedAddr).Err(err).Msg("register-with-seed failed")
		}
	}

	if staticPeer != "" {
		n.AddPeer(staticPeer)
	}

	n.Sync(ctx)
}

// ErrMiningCanceled is returned by MineOnce when ctx is canceled
// mid-search.
var ErrMiningCanceled = errors.New("node: mining canceled")

// MineOnce runs one iteration of the mining algorithm: drain the
// mempool, prepend a coinbase transaction paying minerAddr, mine a
// candidate block atop the current tail, then attempt to commit it.
// If the tail advanced while mining (another block landed first), the
// candidate is discarded, its non-coinbase transactions are restored
// to the mempool, and MineOnce returns (nil, nil). On success it
// returns the committed block for the caller to broadcast.
func (n *Node) MineOnce(ctx context.Context, minerAddr string) (*block.Block, error) {
	tail := n.chain.LastBlock()
	difficulty := n.chain.Difficulty()

	index := uint64(0)
	prevHash := block.GenesisPrevHash
	if tail != nil {
		index = tail.Index + 1
		prevHash = tail.Hash
	}

	drained := n.pool.Drain()
	coinbase := tx.Coinbase(minerAddr, MiningReward)
	candidateTxs := make([]*tx.Transaction, 0, len(drained)+1)
	candidateTxs = append(candidateTxs, coinbase)
	candidateTxs = append(candidateTxs, drained...)

	b := block.New(index, prevHash, candidateTxs, difficulty)
	if err := b.MineContext(ctx); err != nil {
		n.pool.Restore(drained)
		return nil, fmt.Errorf("%w: %v", ErrMiningCanceled, err)
	}

	if !n.chain.AddMinedBlock(b) {
		n.pool.Restore(drained)
		return nil, nil
	}

	return b, nil
}

// MiningLoop runs MineOnce forever until ctx is canceled, broadcasting
// every committed block and pacing itself with a short backoff after
// a commit and a longer one after an abort.
func (n *Node) MiningLoop(ctx context.Context, minerAddr string) {
	for {
		if ctx.Err() != nil {
			return
		}

		b, err := n.MineOnce(ctx, minerAddr)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			n.logger.Debug().Err(err).Msg("mining attempt ended early")
		case b != nil:
			n.logger.Info().Uint64("index", b.Index).Str("hash", b.Hash).Msg("mined block")
			n.BroadcastBlock(ctx, b)
			sleep(ctx, miningIdleBackoff)
			continue
		default:
			n.logger.Debug().Msg("mining attempt aborted: tail advanced")
		}
		sleep(ctx, miningAbortBackoff)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
