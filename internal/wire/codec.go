package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/klingnet-tech/kchain/pkg/block"
	"github.com/klingnet-tech/kchain/pkg/tx"
)

// Encode serializes a Message into its compact binary form: a single
// type-tag byte followed by the variant's fields.
func Encode(m Message) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, byte(m.Type))

	switch m.Type {
	case MsgNewBlock:
		buf = appendBlock(buf, m.Block)
	case MsgNewTransaction:
		buf = appendTx(buf, m.Transaction)
	case MsgGetBlocks:
		// unit: no payload
	case MsgBlocks:
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(m.Blocks)))
		for _, b := range m.Blocks {
			buf = appendBlock(buf, b)
		}
	case MsgRegister:
		buf = appendString(buf, m.Address)
	case MsgGetPeers:
		// unit: no payload
	case MsgPeers:
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(m.Addresses)))
		for _, a := range m.Addresses {
			buf = appendString(buf, a)
		}
	}

	return buf
}

// Decode parses a Message from its compact binary form. Returns an
// error on any truncation or unrecognized type tag.
func Decode(data []byte) (Message, error) {
	if len(data) < 1 {
		return Message{}, fmt.Errorf("wire: empty frame")
	}

	d := &decoder{buf: data[1:]}
	m := Message{Type: MessageType(data[0])}

	var err error
	switch m.Type {
	case MsgNewBlock:
		m.Block, err = d.readBlock()
	case MsgNewTransaction:
		m.Transaction, err = d.readTx()
	case MsgGetBlocks:
		// unit: no payload
	case MsgBlocks:
		var n uint32
		n, err = d.readUint32()
		if err == nil {
			m.Blocks = make([]*block.Block, n)
			for i := range m.Blocks {
				m.Blocks[i], err = d.readBlock()
				if err != nil {
					break
				}
			}
		}
	case MsgRegister:
		m.Address, err = d.readString()
	case MsgGetPeers:
		// unit: no payload
	case MsgPeers:
		var n uint32
		n, err = d.readUint32()
		if err == nil {
			m.Addresses = make([]string, n)
			for i := range m.Addresses {
				m.Addresses[i], err = d.readString()
				if err != nil {
					break
				}
			}
		}
	default:
		return Message{}, fmt.Errorf("wire: unknown message type %d", data[0])
	}

	if err != nil {
		return Message{}, fmt.Errorf("wire: decode %s: %w", m.Type, err)
	}
	return m, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func appendTx(buf []byte, t *tx.Transaction) []byte {
	buf = appendString(buf, t.From)
	buf = appendString(buf, t.To)
	buf = binary.BigEndian.AppendUint64(buf, t.Amount)
	buf = appendString(buf, t.PublicKey)
	buf = appendString(buf, t.Signature)
	return buf
}

func appendBlock(buf []byte, b *block.Block) []byte {
	buf = binary.BigEndian.AppendUint64(buf, b.Index)
	buf = binary.BigEndian.AppendUint64(buf, uint64(b.Timestamp))
	buf = appendString(buf, b.PrevHash)
	buf = binary.BigEndian.AppendUint64(buf, b.Nonce)
	buf = binary.BigEndian.AppendUint32(buf, uint32(b.Difficulty))
	buf = appendString(buf, b.Hash)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b.Transactions)))
	for _, t := range b.Transactions {
		buf = appendTx(buf, t)
	}
	return buf
}

// decoder reads sequentially from a byte slice, consuming it as it goes.
type decoder struct {
	buf []byte
}

func (d *decoder) take(n int) ([]byte, error) {
	if len(d.buf) < n {
		return nil, fmt.Errorf("unexpected end of frame: need %d bytes, have %d", n, len(d.buf))
	}
	out := d.buf[:n]
	d.buf = d.buf[n:]
	return out, nil
}

func (d *decoder) readUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *decoder) readUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (d *decoder) readString() (string, error) {
	n, err := d.readUint32()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) readTx() (*tx.Transaction, error) {
	from, err := d.readString()
	if err != nil {
		return nil, err
	}
	to, err := d.readString()
	if err != nil {
		return nil, err
	}
	amount, err := d.readUint64()
	if err != nil {
		return nil, err
	}
	pubKey, err := d.readString()
	if err != nil {
		return nil, err
	}
	sig, err := d.readString()
	if err != nil {
		return nil, err
	}
	return &tx.Transaction{From: from, To: to, Amount: amount, PublicKey: pubKey, Signature: sig}, nil
}

func (d *decoder) readBlock() (*block.Block, error) {
	index, err := d.readUint64()
	if err != nil {
		return nil, err
	}
	timestamp, err := d.readUint64()
	if err != nil {
		return nil, err
	}
	prevHash, err := d.readString()
	if err != nil {
		return nil, err
	}
	nonce, err := d.readUint64()
	if err != nil {
		return nil, err
	}
	difficulty, err := d.readUint32()
	if err != nil {
		return nil, err
	}
	hash, err := d.readString()
	if err != nil {
		return nil, err
	}
	txCount, err := d.readUint32()
	if err != nil {
		return nil, err
	}

	txs := make([]*tx.Transaction, txCount)
	for i := range txs {
		txs[i], err = d.readTx()
		if err != nil {
			return nil, err
		}
	}

	return &block.Block{
		Index:        index,
		Timestamp:    int64(timestamp),
		PrevHash:     prevHash,
		Nonce:        nonce,
		Difficulty:   int(difficulty),
		Hash:         hash,
		Transactions: txs,
	}, nil
}
