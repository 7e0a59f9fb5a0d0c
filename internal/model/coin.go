// Package model defines the coin configuration and row types shared across the parser.
package model

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	ltccfg "github.com/ltcsuite/ltcd/chaincfg"
)

type Coin string
type Network string

var (
	BTC Coin = "BTC"
	LTC Coin = "LTC"
)

var (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Regtest Network = "regtest"
	Signet  Network = "signet"
)

// CoinParams describes how a coin lays out its data on disk.
type CoinParams struct {
	Coin    Coin
	Network Network
	// Magic prefixes every record in the block files.
	Magic       [4]byte
	GenesisHash chainhash.Hash
	// Params drives address encoding.
	Params *chaincfg.Params
	// DataDir is the node's default data directory for this network.
	DataDir string
	// MaxHeight is the last height whose blocks decode with the base
	// transaction format; zero means no limit.
	MaxHeight uint64
}

// BlocksDir is where the node keeps blk*.dat files.
func (p CoinParams) BlocksDir(dataDir string) string {
	if dataDir == "" {
		dataDir = p.DataDir
	}
	return filepath.Join(dataDir, "blocks")
}

// IndexDir is where the node keeps the LevelDB block index.
func (p CoinParams) IndexDir(dataDir string) string {
	return filepath.Join(p.BlocksDir(dataDir), "index")
}

// ParamsFor resolves the configuration of a coin on a network.
func ParamsFor(coin Coin, network Network) (CoinParams, error) {
	switch Coin(strings.ToUpper(string(coin))) {
	case BTC, "BITCOIN":
		return bitcoinParams(network)
	case LTC, "LITECOIN":
		return litecoinParams(network)
	default:
		return CoinParams{}, fmt.Errorf("unsupported coin %q", coin)
	}
}

func bitcoinParams(network Network) (CoinParams, error) {
	var (
		params *chaincfg.Params
		subdir string
	)
	switch strings.ToLower(string(network)) {
	case "main", "mainnet", "bitcoin":
		network, params = Mainnet, &chaincfg.MainNetParams
	case "testnet", "testnet3":
		network, params, subdir = Testnet, &chaincfg.TestNet3Params, "testnet3"
	case "regtest":
		network, params, subdir = Regtest, &chaincfg.RegressionNetParams, "regtest"
	case "signet":
		network, params, subdir = Signet, &chaincfg.SigNetParams, "signet"
	default:
		return CoinParams{}, fmt.Errorf("unsupported network %q", network)
	}

	return CoinParams{
		Coin:        BTC,
		Network:     network,
		Magic:       magicBytes(uint32(params.Net)),
		GenesisHash: *params.GenesisHash,
		Params:      params,
		DataDir:     filepath.Join(homeDir(), ".bitcoin", subdir),
	}, nil
}

// ltcMWEBHeight is the first Litecoin mainnet block carrying MWEB
// extension data after its transactions.
const ltcMWEBHeight = 2_265_984

func litecoinParams(network Network) (CoinParams, error) {
	var (
		src    *ltccfg.Params
		subdir string
	)
	var maxHeight uint64
	switch strings.ToLower(string(network)) {
	case "main", "mainnet", "litecoin":
		network, src, maxHeight = Mainnet, &ltccfg.MainNetParams, ltcMWEBHeight-1
	case "testnet", "testnet4":
		network, src, subdir = Testnet, &ltccfg.TestNet4Params, "testnet4"
	case "regtest":
		network, src, subdir = Regtest, &ltccfg.RegressionNetParams, "regtest"
	default:
		return CoinParams{}, fmt.Errorf("unsupported network %q", network)
	}

	// btcd's address encoders only read the version bytes and the bech32 prefix.
	params := chaincfg.MainNetParams
	params.Name = src.Name
	params.PubKeyHashAddrID = src.PubKeyHashAddrID
	params.ScriptHashAddrID = src.ScriptHashAddrID
	params.PrivateKeyID = src.PrivateKeyID
	params.Bech32HRPSegwit = src.Bech32HRPSegwit

	return CoinParams{
		Coin:        LTC,
		Network:     network,
		Magic:       magicBytes(uint32(src.Net)),
		GenesisHash: chainhash.Hash(*src.GenesisHash),
		Params:      &params,
		DataDir:     filepath.Join(homeDir(), ".litecoin", subdir),
		MaxHeight:   maxHeight,
	}, nil
}

func magicBytes(net uint32) [4]byte {
	var magic [4]byte
	binary.LittleEndian.PutUint32(magic[:], net)
	return magic
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
