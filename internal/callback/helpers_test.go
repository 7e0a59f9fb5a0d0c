package callback

import (
	"context"
	"encoding/csv"
	"os"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/block"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/chaintest"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/signature"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) *btcec.PrivateKey {
	raw := make([]byte, 32)
	raw[31] = b
	key, _ := btcec.PrivKeyFromBytes(raw)
	return key
}

// p2pkh pays to the compressed key on regtest.
func p2pkh(t testing.TB, key *btcec.PrivateKey) (string, []byte) {
	t.Helper()
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(key.PubKey().SerializeCompressed()), &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return addr.EncodeAddress(), script
}

// signInput fills the unlocking script of input idx with a SIGHASH_ALL
// signature by key over prevScript.
func signInput(t testing.TB, tx *block.Transaction, idx int, prevScript []byte, key *btcec.PrivateKey) *ecdsa.Signature {
	t.Helper()
	digest := signature.LegacySigHash(tx, idx, prevScript, txscript.SigHashAll)
	sig := ecdsa.Sign(key, digest[:])
	script, err := txscript.NewScriptBuilder().
		AddData(append(sig.Serialize(), byte(txscript.SigHashAll))).
		AddData(key.PubKey().SerializeCompressed()).
		Script()
	require.NoError(t, err)
	tx.Inputs[idx].ScriptSig = script
	return sig
}

type testChain struct {
	blocks   []*block.Block
	coin     model.CoinParams
	keyA     *btcec.PrivateKey
	keyB     *btcec.PrivateKey
	addrA    string
	addrB    string
	scriptA  []byte
	spend    *block.Transaction
	spendSig *ecdsa.Signature
}

const subsidy = 50_0000_0000

// newTestChain builds two blocks: a genesis paying to A, and a block whose
// coinbase pays B and whose second transaction moves the genesis output to
// B, back to A and into an OP_RETURN.
func newTestChain(t testing.TB) *testChain {
	t.Helper()

	c := &testChain{keyA: testKey(1), keyB: testKey(2)}
	var scriptB []byte
	c.addrA, c.scriptA = p2pkh(t, c.keyA)
	c.addrB, scriptB = p2pkh(t, c.keyB)

	genesisCoinbase := chaintest.Coinbase(0, subsidy, c.scriptA)
	genesis := chaintest.NewBlock(chainhash.Hash{}, 0, genesisCoinbase)

	spend := block.Transaction{
		Version: 1,
		Inputs: []block.TxIn{{
			PrevOut:  block.OutPoint{TxID: genesisCoinbase.TxID, Index: 0},
			Sequence: 0xffffffff,
		}},
		Outputs: []block.TxOut{
			{Value: 30_0000_0000, ScriptPubKey: scriptB},
			{Value: 19_9000_0000, ScriptPubKey: c.scriptA},
			{Value: 0, ScriptPubKey: []byte{txscript.OP_RETURN, 0x02, 0xca, 0xfe}},
		},
	}
	c.spendSig = signInput(t, &spend, 0, c.scriptA, c.keyA)
	spend = chaintest.Finalize(spend)
	c.spend = &spend

	next := chaintest.NewBlock(genesis.Hash, 1, chaintest.Coinbase(1, subsidy, scriptB), spend)
	c.blocks = []*block.Block{genesis, next}
	c.coin = chaintest.Coin(genesis.Hash)
	return c
}

func runCallback(t testing.TB, cb Callback, c *testChain) Stats {
	t.Helper()
	ctx := context.Background()
	last := uint64(len(c.blocks) - 1)

	require.NoError(t, cb.OnStart(ctx, c.coin, model.HeightRange{Start: 0, End: last}))
	stats := Stats{StartHeight: 0, LastHeight: last}
	for h, blk := range c.blocks {
		require.NoError(t, cb.OnBlock(ctx, blk, uint64(h)))
		stats.Blocks++
		stats.Transactions += uint64(len(blk.Transactions))
	}
	require.NoError(t, cb.OnComplete(ctx, stats))
	return stats
}

func readCSV(t testing.TB, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func (c *testChain) rangeAll() model.HeightRange {
	return model.HeightRange{Start: 0, End: uint64(len(c.blocks) - 1)}
}
