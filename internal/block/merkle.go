package block

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MerkleRoot folds txids pairwise, duplicating the last node of odd levels.
func MerkleRoot(txids []chainhash.Hash) chainhash.Hash {
	if len(txids) == 0 {
		return chainhash.Hash{}
	}

	level := append([]chainhash.Hash(nil), txids...)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := level[:0]
		for i := 0; i < len(level); i += 2 {
			next = append(next, blockchain.HashMerkleBranches(&level[i], &level[i+1]))
		}
		level = next
	}
	return level[0]
}
