package callback

import (
	"context"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/signature"
	"go.uber.org/zap"
)

// SigDump writes one CSV row per signature found in a standard single-key
// unlocking script: r;s;pubkey;txid;msghash;blocktime.
type SigDump struct {
	dir    string
	logger *zap.Logger

	file    *csvFile
	utxo    *unspentSet
	start   uint64
	started time.Time

	signatures uint64
	highS      uint64
	unknown    uint64
}

func NewSigDump(dir string, logger *zap.Logger) (*SigDump, error) {
	if dir == "" {
		return nil, errors.New("sigdump dump dir is required")
	}
	return &SigDump{dir: dir, logger: logger.Named("sigdump")}, nil
}

func (s *SigDump) OnStart(_ context.Context, coin model.CoinParams, rng model.HeightRange) error {
	file, err := createCSV(s.dir, "signatures")
	if err != nil {
		return err
	}
	s.file = file
	s.utxo = newUnspentSet()
	s.start = rng.Start
	s.started = time.Now()
	s.logger.Info("dumping signatures",
		zap.String("dir", s.dir),
		zap.String("coin", string(coin.Coin)),
		zap.Uint64("start", rng.Start),
		zap.Uint64("end", rng.End),
	)
	return nil
}

func (s *SigDump) OnBlock(_ context.Context, blk *block.Block, height uint64) error {
	blockTime := strconv.FormatUint(uint64(blk.Header.Timestamp), 10)
	for i := range blk.Transactions {
		tx := &blk.Transactions[i]
		txid := tx.TxID.String()

		for _, rec := range signature.ExtractTx(tx, s.lookup) {
			if err := s.file.write(
				hex.EncodeToString(rec.R[:]),
				hex.EncodeToString(rec.S[:]),
				hex.EncodeToString(rec.PubKey),
				txid,
				hex.EncodeToString(rec.Digest[:]),
				blockTime,
			); err != nil {
				return err
			}
			s.signatures++
			if rec.HighS {
				s.highS++
			}
		}
		s.utxo.apply(tx, height)
	}
	return nil
}

func (s *SigDump) lookup(op block.OutPoint) []byte {
	script := s.utxo.script(op)
	if script == nil {
		s.unknown++
	}
	return script
}

func (s *SigDump) OnComplete(_ context.Context, stats Stats) error {
	path, err := s.file.commit(s.start, stats.EndHeight())
	if err != nil {
		return err
	}
	s.logger.Info("signatures dumped",
		zap.String("file", path),
		zap.Uint64("signatures", s.signatures),
		zap.Uint64("high_s", s.highS),
		zap.Uint64("unknown_prevouts", s.unknown),
		zap.Uint64("blocks", stats.Blocks),
		zap.Uint64("transactions", stats.Transactions),
		zap.Duration("elapsed", time.Since(s.started)),
	)
	return nil
}

// Close releases the output file of a run that did not complete.
func (s *SigDump) Close() error {
	return closeAll(s.file)
}
