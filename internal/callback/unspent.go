package callback

import (
	"bytes"

	"github.com/btcsuite/btcd/txscript"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
)

type unspentOutput struct {
	Value  int64
	Script []byte
	Height uint64
	// Known is false for the zero value returned for untracked outpoints.
	Known bool
}

// unspentSet follows the outputs created and spent during a run. Outputs
// created before the first delivered block are unknown to it.
type unspentSet struct {
	outputs map[block.OutPoint]unspentOutput
}

func newUnspentSet() *unspentSet {
	return &unspentSet{outputs: make(map[block.OutPoint]unspentOutput)}
}

// apply spends the inputs of tx and adds its outputs. It returns the spent
// outputs in input order; unknown ones are zero.
func (u *unspentSet) apply(tx *block.Transaction, height uint64) []unspentOutput {
	var spent []unspentOutput
	if !tx.IsCoinbase() {
		spent = make([]unspentOutput, len(tx.Inputs))
		for i := range tx.Inputs {
			spent[i], _ = u.spend(tx.Inputs[i].PrevOut)
		}
	}
	u.add(tx, height)
	return spent
}

func (u *unspentSet) add(tx *block.Transaction, height uint64) {
	for i, out := range tx.Outputs {
		if isUnspendable(out.ScriptPubKey) {
			continue
		}
		u.outputs[block.OutPoint{TxID: tx.TxID, Index: uint32(i)}] = unspentOutput{
			Value:  out.Value,
			Script: bytes.Clone(out.ScriptPubKey),
			Height: height,
			Known:  true,
		}
	}
}

func (u *unspentSet) spend(op block.OutPoint) (unspentOutput, bool) {
	out, ok := u.outputs[op]
	if ok {
		delete(u.outputs, op)
	}
	return out, ok
}

// script is a signature.ScriptLookup over the set.
func (u *unspentSet) script(op block.OutPoint) []byte {
	return u.outputs[op].Script
}

func (u *unspentSet) len() int {
	return len(u.outputs)
}

func isUnspendable(pkScript []byte) bool {
	return len(pkScript) > 0 && pkScript[0] == txscript.OP_RETURN
}
