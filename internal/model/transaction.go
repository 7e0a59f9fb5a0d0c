package model

import "time"

// Transaction is a transaction row with aggregated metadata.
type Transaction struct {
	Coin        Coin
	Network     Network
	TxID        string
	BlockHeight uint64
	Timestamp   time.Time
	Size        uint32
	Version     int32
	LockTime    uint32
	InputCount  uint32
	OutputCount uint32
	HasWitness  bool
}

// TransactionInput references the output it spends. Value and Addresses
// are resolved from outputs seen earlier in the run and stay empty otherwise.
type TransactionInput struct {
	Coin         Coin
	Network      Network
	BlockHeight  uint64
	TxID         string
	Index        uint32
	PrevTxID     string
	PrevVout     uint32
	Sequence     uint32
	IsCoinbase   bool
	Value        uint64
	ScriptSigHex string
	Witness      []string
	Addresses    []string
}

// TransactionOutput is an output created by a transaction.
type TransactionOutput struct {
	Coin        Coin
	Network     Network
	BlockHeight uint64
	TxID        string
	Index       uint32
	Value       uint64
	ScriptType  string
	ScriptHex   string
	Addresses   []string
}

func (t Transaction) Scope() (Coin, Network)       { return t.Coin, t.Network }
func (i TransactionInput) Scope() (Coin, Network)  { return i.Coin, i.Network }
func (o TransactionOutput) Scope() (Coin, Network) { return o.Coin, o.Network }
