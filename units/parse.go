package units

import (
	"fmt"
	"math/big"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Amounts are written as a number optionally followed by a unit:
//   0.0123654103 ether
//   100000000000000000
//   25 gwei

var AmountLexer = lexer.MustSimple([]lexer.Rule{
	{Name: `Number`, Pattern: `[-+]?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?`, Action: nil},
	{Name: `Unit`, Pattern: `[a-zA-Z]+`, Action: nil},
	{Name: "whitespace", Pattern: `\s+`, Action: nil},
})

type Amount struct {
	Value string `parser:"@Number"`
	Unit  string `parser:"@Unit?"`
}

var AmountParser = participle.MustBuild(&Amount{},
	participle.Lexer(AmountLexer),
	participle.Elide("whitespace"),
)

// ParseAmount parses a denominated amount without converting it.
func ParseAmount(s string) (*Amount, error) {
	amount := &Amount{}
	if err := AmountParser.ParseString("", s, amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if amount.Unit == "" {
		amount.Unit = "wei"
	}
	return amount, nil
}

// Wei converts the amount into wei.
func (a *Amount) Wei() (*big.Int, error) {
	return ToWei(a.Value, a.Unit)
}

func (a *Amount) String() string {
	return a.Value + " " + a.Unit
}

// Parse parses s and returns its value in wei.
func Parse(s string) (*big.Int, error) {
	amount, err := ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return amount.Wei()
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *big.Int {
	wei, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return wei
}
