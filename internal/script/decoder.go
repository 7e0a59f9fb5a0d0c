// Package script classifies locking scripts and extracts their addresses.
package script

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// Decoder extracts human-readable addresses using the params of one network.
type Decoder struct {
	params *chaincfg.Params
}

func NewDecoder(params *chaincfg.Params) (*Decoder, error) {
	if params == nil {
		return nil, errors.New("chain params are required")
	}
	return &Decoder{params: params}, nil
}

// Decode returns the script class and the encoded addresses it pays to.
// Non-standard scripts yield no addresses.
func (d *Decoder) Decode(pkScript []byte) (string, []string, error) {
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, d.params)
	if err != nil {
		return txscript.NonStandardTy.String(), nil, err
	}
	if len(addrs) == 0 {
		return class.String(), nil, nil
	}

	result := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		result = append(result, addr.EncodeAddress())
	}
	return class.String(), result, nil
}

// Address is the single address of a one-address script, or "".
func (d *Decoder) Address(pkScript []byte) string {
	_, addrs, err := d.Decode(pkScript)
	if err != nil || len(addrs) != 1 {
		return ""
	}
	return addrs[0]
}
