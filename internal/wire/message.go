// Package wire implements the length-prefixed binary frame format and
// the tagged-union Message type carried over every peer connection.
package wire

import (
	"github.com/klingnet-tech/kchain/pkg/block"
	"github.com/klingnet-tech/kchain/pkg/tx"
)

// MessageType tags the variant carried by a Message.
type MessageType byte

const (
	MsgNewBlock MessageType = iota + 1
	MsgNewTransaction
	MsgGetBlocks
	MsgBlocks
	MsgRegister
	MsgGetPeers
	MsgPeers
)

func (t MessageType) String() string {
	switch t {
	case MsgNewBlock:
		return "NewBlock"
	case MsgNewTransaction:
		return "NewTransaction"
	case MsgGetBlocks:
		return "GetBlocks"
	case MsgBlocks:
		return "Blocks"
	case MsgRegister:
		return "Register"
	case MsgGetPeers:
		return "GetPeers"
	case MsgPeers:
		return "Peers"
	default:
		return "Unknown"
	}
}

// Message is the tagged union carried by every frame. Only the
// field(s) matching Type are meaningful; the rest are zero.
type Message struct {
	Type MessageType

	Block       *block.Block       // MsgNewBlock
	Transaction *tx.Transaction    // MsgNewTransaction
	Blocks      []*block.Block     // MsgBlocks
	Address     string             // MsgRegister
	Addresses   []string           // MsgPeers
	// MsgGetBlocks and MsgGetPeers carry no payload.
}

// NewBlockMessage wraps a block for broadcast.
func NewBlockMessage(b *block.Block) Message {
	return Message{Type: MsgNewBlock, Block: b}
}

// NewTransactionMessage wraps a transaction for broadcast.
func NewTransactionMessage(t *tx.Transaction) Message {
	return Message{Type: MsgNewTransaction, Transaction: t}
}

// GetBlocksMessage requests the peer's full chain.
func GetBlocksMessage() Message {
	return Message{Type: MsgGetBlocks}
}

// BlocksMessage carries a chain snapshot in response to GetBlocks.
func BlocksMessage(blocks []*block.Block) Message {
	return Message{Type: MsgBlocks, Blocks: blocks}
}

// RegisterMessage registers own address with a seed node.
func RegisterMessage(addr string) Message {
	return Message{Type: MsgRegister, Address: addr}
}

// GetPeersMessage requests the seed's peer registry.
func GetPeersMessage() Message {
	return Message{Type: MsgGetPeers}
}

// PeersMessage carries a peer address list in response to GetPeers.
func PeersMessage(addrs []string) Message {
	return Message{Type: MsgPeers, Addresses: addrs}
}
