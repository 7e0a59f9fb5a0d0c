// Package signature extracts ECDSA signatures, public keys and the signed
// digests from standard single-key unlocking scripts.
package signature

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	ErrNotSignaturePattern = errors.New("script is not a signature and public key push")
	ErrInvalidDER          = errors.New("invalid DER signature")
)

// ScriptSig is the content of a signature plus public key unlocking script.
type ScriptSig struct {
	// DER is the signature without the hash type byte.
	DER      []byte
	HashType txscript.SigHashType
	PubKey   []byte
}

// ParseScriptSig recognises exactly two data pushes: a signature followed
// by its hash type byte, then a compressed or uncompressed public key.
// The returned slices alias script.
func ParseScriptSig(script []byte) (ScriptSig, error) {
	var pushes [2][]byte
	n := 0
	tok := txscript.MakeScriptTokenizer(0, script)
	for tok.Next() {
		op := tok.Opcode()
		if op < txscript.OP_DATA_1 || op > txscript.OP_PUSHDATA4 || n == len(pushes) {
			return ScriptSig{}, ErrNotSignaturePattern
		}
		pushes[n] = tok.Data()
		n++
	}
	if err := tok.Err(); err != nil {
		return ScriptSig{}, fmt.Errorf("%w: %w", ErrNotSignaturePattern, err)
	}
	if n != len(pushes) {
		return ScriptSig{}, ErrNotSignaturePattern
	}

	sig, pub := pushes[0], pushes[1]
	if len(sig) < 2 || !isPubKey(pub) {
		return ScriptSig{}, ErrNotSignaturePattern
	}
	return ScriptSig{
		DER:      sig[:len(sig)-1],
		HashType: txscript.SigHashType(sig[len(sig)-1]),
		PubKey:   pub,
	}, nil
}

func isPubKey(b []byte) bool {
	switch len(b) {
	case 33:
		return b[0] == 0x02 || b[0] == 0x03
	case 65:
		return b[0] == 0x04
	default:
		return false
	}
}

// ParseDER returns the big-endian r and s of a strict DER signature. High s
// values are returned as encoded.
func ParseDER(der []byte) (r, s [32]byte, err error) {
	// The sequence length must cover the input exactly; btcec ignores
	// bytes past it.
	if len(der) < 2 || int(der[1])+2 != len(der) {
		return r, s, fmt.Errorf("%w: sequence length does not match %d bytes", ErrInvalidDER, len(der))
	}
	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return r, s, fmt.Errorf("%w: %w", ErrInvalidDER, err)
	}
	rs, ss := sig.R(), sig.S()
	return rs.Bytes(), ss.Bytes(), nil
}

// IsHighS reports whether s lies in the upper half of the curve order.
func IsHighS(s [32]byte) bool {
	var n secp256k1.ModNScalar
	n.SetBytes(&s)
	return n.IsOverHalfOrder()
}
