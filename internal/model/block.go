package model

import "time"

// Block is a block header row persisted to ClickHouse.
type Block struct {
	Coin       Coin
	Network    Network
	Height     uint64
	Hash       string
	PrevHash   string
	Timestamp  time.Time
	Version    int32
	MerkleRoot string
	Bits       uint32
	Nonce      uint32
	Size       uint32
	TXCount    uint32
}

// InsertBlock groups a block with the rows derived from its transactions.
type InsertBlock struct {
	Block   Block
	Txs     []Transaction
	Inputs  []TransactionInput
	Outputs []TransactionOutput
}

// Scope reports the coin and network a row belongs to.
func (b Block) Scope() (Coin, Network) { return b.Coin, b.Network }
