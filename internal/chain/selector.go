// Package chain picks the canonical chain out of a block index table.
package chain

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/index"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
)

const noParent = -1

type Options struct {
	// GenesisHash, when set, is the only record allowed to have no parent.
	GenesisHash *chainhash.Hash
	// RequireData restricts tips to chains whose blocks are all stored.
	RequireData bool
}

// Chain is the selected chain, ordered by height from genesis.
type Chain struct {
	records []*index.Record
	work    *big.Int
}

func (c *Chain) Len() int { return len(c.records) }

// TipHeight is the height of the last block.
func (c *Chain) TipHeight() uint64 { return uint64(len(c.records) - 1) }

func (c *Chain) Tip() *index.Record { return c.records[len(c.records)-1] }

// At returns the record at height h.
func (c *Chain) At(h uint64) *index.Record { return c.records[h] }

// Work is the cumulative work of the tip.
func (c *Chain) Work() *big.Int { return new(big.Int).Set(c.work) }

// Window returns the records in [r.Start, r.End] with End clamped to the
// tip, and the resolved range.
func (c *Chain) Window(r model.HeightRange) ([]*index.Record, model.HeightRange, error) {
	tip := c.TipHeight()
	if r.Start > tip || r.End < r.Start {
		return nil, r, fmt.Errorf("range %d..%d with tip %d: %w", r.Start, r.End, tip, ErrRangeOutOfBounds)
	}
	end := min(r.End, tip)
	return c.records[r.Start : end+1], model.HeightRange{Start: r.Start, End: end}, nil
}

type selector struct {
	table  *index.Table
	opts   Options
	parent []int
	// complete is 0 unknown, 1 yes, 2 no.
	complete []uint8
	work     []*big.Int
}

// Select returns the chain ending at the complete tip with the most
// cumulative work. Ties keep the tip seen first in table order.
func Select(table *index.Table, opts Options) (*Chain, error) {
	s := &selector{
		table:    table,
		opts:     opts,
		parent:   make([]int, table.Len()),
		complete: make([]uint8, table.Len()),
		work:     make([]*big.Int, table.Len()),
	}
	if err := s.link(); err != nil {
		return nil, err
	}

	for i := range s.complete {
		s.resolveComplete(i)
	}

	hasCompleteChild := make([]bool, table.Len())
	for i, p := range s.parent {
		if p != noParent && s.complete[i] == 1 {
			hasCompleteChild[p] = true
		}
	}

	best := noParent
	var bestWork *big.Int
	for i := range s.complete {
		if s.complete[i] != 1 || hasCompleteChild[i] {
			continue
		}
		w, err := s.cumulativeWork(i)
		if err != nil {
			return nil, err
		}
		if best == noParent || w.Cmp(bestWork) > 0 {
			best, bestWork = i, w
		}
	}
	if best == noParent {
		return nil, ErrNoChain
	}

	return s.walk(best, bestWork)
}

func (s *selector) link() error {
	for i, rec := range s.table.Records() {
		if rec.PrevHash == (chainhash.Hash{}) {
			if s.opts.GenesisHash != nil && rec.Hash != *s.opts.GenesisHash {
				return &BrokenChainError{Hash: rec.Hash, PrevHash: rec.PrevHash, Height: rec.Height}
			}
			s.parent[i] = noParent
			continue
		}
		p, ok := s.table.Lookup(rec.PrevHash)
		if !ok {
			return &BrokenChainError{Hash: rec.Hash, PrevHash: rec.PrevHash, Height: rec.Height}
		}
		s.parent[i] = p
	}
	return nil
}

func (s *selector) eligible(rec *index.Record) bool {
	if rec.Status.Failed() {
		return false
	}
	return !s.opts.RequireData || rec.HasLocator
}

// resolveComplete marks i and its unresolved ancestors. A record is
// complete when it and every ancestor are eligible.
func (s *selector) resolveComplete(i int) {
	var pending []int
	for cur := i; cur != noParent && s.complete[cur] == 0; cur = s.parent[cur] {
		if len(pending) > len(s.complete) {
			break
		}
		pending = append(pending, cur)
	}

	for k := len(pending) - 1; k >= 0; k-- {
		cur := pending[k]
		ok := s.eligible(s.table.At(cur))
		if p := s.parent[cur]; ok && p != noParent {
			ok = s.complete[p] == 1
		}
		if ok {
			s.complete[cur] = 1
		} else {
			s.complete[cur] = 2
		}
	}
}

func (s *selector) cumulativeWork(i int) (*big.Int, error) {
	var pending []int
	cur := i
	for cur != noParent && s.work[cur] == nil {
		if len(pending) > len(s.work) {
			rec := s.table.At(i)
			return nil, &index.CorruptError{Hash: rec.Hash, Err: fmt.Errorf("ancestry of %s loops", rec.Hash)}
		}
		pending = append(pending, cur)
		cur = s.parent[cur]
	}

	acc := new(big.Int)
	if cur != noParent {
		acc.Set(s.work[cur])
	}
	for k := len(pending) - 1; k >= 0; k-- {
		idx := pending[k]
		acc = new(big.Int).Add(acc, blockWork(s.table.At(idx)))
		s.work[idx] = acc
	}
	return s.work[i], nil
}

func blockWork(rec *index.Record) *big.Int {
	if rec.Work != nil {
		return rec.Work
	}
	return blockchain.CalcWork(rec.Header.Bits)
}

func (s *selector) walk(tip int, work *big.Int) (*Chain, error) {
	var path []*index.Record
	for cur := tip; cur != noParent; cur = s.parent[cur] {
		path = append(path, s.table.At(cur))
	}

	n := len(path)
	records := make([]*index.Record, n)
	for i, rec := range path {
		h := n - 1 - i
		if rec.Height != uint64(h) {
			return nil, &index.CorruptError{
				Hash: rec.Hash,
				Err:  fmt.Errorf("declared height %d, chain position %d", rec.Height, h),
			}
		}
		records[h] = rec
	}
	return &Chain{records: records, work: work}, nil
}
