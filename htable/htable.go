// Package htable selects one of the interchangeable index strategies by name.
package htable

import (
	"fmt"
	"strings"

	"hashidx/constants"
	"hashidx/exthash"
	"hashidx/linhash"
	"hashidx/openaddr"
	"hashidx/types"
)

// Kind names a growth strategy.
type Kind uint8

const (
	OpenAddressing Kind = iota
	Extendible
	Linear
)

// Kinds lists every strategy in a stable order.
var Kinds = []Kind{OpenAddressing, Extendible, Linear}

var kindNames = [...]string{
	OpenAddressing: "openaddr",
	Extendible:     "exthash",
	Linear:         "linhash",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + fmt.Sprint(uint8(k)) + ")"
}

// ParseKind accepts a strategy name, case-insensitively, including a few long aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openaddr", "open-addressing", "oa":
		return OpenAddressing, nil
	case "exthash", "extendible", "eh":
		return Extendible, nil
	case "linhash", "linear", "lh":
		return Linear, nil
	}
	return 0, fmt.Errorf("unknown strategy %q (want openaddr, exthash or linhash)", s)
}

// New builds an empty index of the given kind. hint is the initial slot count for
// open addressing, the initial global depth for extendible hashing and the initial
// modulus M for linear hashing; hint ≤ 0 selects each strategy's default. Hints above
// the constants.MaxInitial* bounds are rejected rather than allocated.
func New(kind Kind, hint int) (types.Table, error) {
	switch kind {
	case OpenAddressing:
		if hint <= 0 {
			hint = constants.OpenAddrDefaultCapacity
		}
		if hint > constants.MaxInitialCapacity {
			return nil, fmt.Errorf("openaddr capacity %d exceeds %d", hint, constants.MaxInitialCapacity)
		}
		return openaddr.New(hint), nil
	case Extendible:
		if hint <= 0 {
			return exthash.New(), nil
		}
		if hint > constants.MaxInitialDepth {
			return nil, fmt.Errorf("exthash depth %d exceeds %d", hint, constants.MaxInitialDepth)
		}
		return exthash.NewWithDepth(hint), nil
	case Linear:
		if hint <= 0 {
			return linhash.New(), nil
		}
		if hint > constants.MaxInitialModulus {
			return nil, fmt.Errorf("linhash modulus %d exceeds %d", hint, constants.MaxInitialModulus)
		}
		return linhash.NewWithModulus(hint), nil
	}
	return nil, fmt.Errorf("unknown strategy %v", kind)
}
