// Package units converts between denominated ether amounts and wei.
//
// Conversions are exact: values are handled as decimal fractions and never
// go through floating point, except for ToWeiFloat which first renders the
// float in its shortest decimal form.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/params"
)

var ErrUnknownUnit = errors.New("unknown unit")
var ErrOutOfRange = errors.New("resulting wei value must be between 1 and 2**256 - 1")
var ErrInvalidAmount = errors.New("invalid amount")

// decimals maps every supported denomination to its power of ten.
var decimals = map[string]int64{
	"wei":        0,
	"kwei":       3,
	"babbage":    3,
	"femtoether": 3,
	"mwei":       6,
	"lovelace":   6,
	"picoether":  6,
	"gwei":       9,
	"shannon":    9,
	"nanoether":  9,
	"nano":       9,
	"szabo":      12,
	"microether": 12,
	"micro":      12,
	"finney":     15,
	"milliether": 15,
	"milli":      15,
	"ether":      18,
	"kether":     21,
	"grand":      21,
	"mether":     24,
	"gether":     27,
	"tether":     30,
}

// Ether is one ether in wei.
var Ether = big.NewInt(params.Ether)

// GWei is one gwei in wei.
var GWei = big.NewInt(params.GWei)

// UnitValue returns how many wei one unit is worth.
func UnitValue(unit string) (*big.Int, error) {
	exp, ok := decimals[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}
	return math.BigPow(10, exp), nil
}

// ToWei converts a decimal amount expressed in unit into wei. Fractions of a
// wei are truncated, so amounts below 1 wei give 0.
func ToWei(value string, unit string) (*big.Int, error) {
	mul, err := UnitValue(unit)
	if err != nil {
		return nil, err
	}
	value = strings.TrimSpace(value)
	if strings.Contains(value, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	r, ok := new(big.Rat).SetString(value)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	r.Mul(r, new(big.Rat).SetInt(mul))

	if r.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrOutOfRange, value, unit)
	}
	wei := new(big.Int).Quo(r.Num(), r.Denom())
	if wei.Cmp(math.MaxBig256) > 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrOutOfRange, value, unit)
	}
	return wei, nil
}

// ToWeiFloat converts f through its shortest decimal representation, so
// ToWeiFloat(0.1, "ether") is exactly 1e17 wei.
func ToWeiFloat(f float64, unit string) (*big.Int, error) {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if s == "NaN" || strings.HasSuffix(s, "Inf") {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, f)
	}
	return ToWei(s, unit)
}

// MustToWei is like ToWei but panics on error.
func MustToWei(value string, unit string) *big.Int {
	wei, err := ToWei(value, unit)
	if err != nil {
		panic(err)
	}
	return wei
}

// FromWei renders wei in unit as an exact decimal string without trailing
// zeros.
func FromWei(wei *big.Int, unit string) (string, error) {
	div, err := UnitValue(unit)
	if err != nil {
		return "", err
	}
	exp := decimals[strings.ToLower(strings.TrimSpace(unit))]
	r := new(big.Rat).SetFrac(wei, div)
	s := r.FloatString(int(exp))
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s, nil
}
