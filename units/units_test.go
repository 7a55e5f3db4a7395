package units

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
)

func TestToWei(t *testing.T) {
	cases := []struct {
		value string
		unit  string
		wei   string
	}{
		{"1", "ether", "1000000000000000000"},
		{"0.0123654103", "ether", "12365410300000000"},
		{"0.0143654103", "ether", "14365410300000000"},
		{"50", "gwei", "50000000000"},
		{"1.5", "kwei", "1500"},
		{"1e-3", "ether", "1000000000000000"},
		{"0", "ether", "0"},
		{"1.9", "wei", "1"},
		{"2", "Finney", "2000000000000000"},
		{"1", "tether", "1000000000000000000000000000000"},
	}

	for _, c := range cases {
		wei, err := ToWei(c.value, c.unit)
		require.NoError(t, err, c.value)
		require.Equal(t, c.wei, wei.String(), "%s %s", c.value, c.unit)
	}
}

func TestToWeiErrors(t *testing.T) {
	_, err := ToWei("1", "dogecoin")
	require.ErrorIs(t, err, ErrUnknownUnit)

	_, err = ToWei("abc", "ether")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ToWei("1/3", "ether")
	require.ErrorIs(t, err, ErrInvalidAmount)

	// fractions of a wei truncate to zero
	wei, err := ToWei("0.5", "wei")
	require.NoError(t, err)
	require.Equal(t, "0", wei.String())
	wei, err = ToWei("0.0000000000000000001", "ether")
	require.NoError(t, err)
	require.Equal(t, "0", wei.String())

	_, err = ToWei("-1", "ether")
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = ToWei("1e60", "ether")
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestToWeiFloat(t *testing.T) {
	wei, err := ToWeiFloat(0.0123654103, "ether")
	require.NoError(t, err)
	require.Equal(t, "12365410300000000", wei.String())

	wei, err = ToWeiFloat(0.1, "ether")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(params.Ether/10), wei)
}

func TestFromWei(t *testing.T) {
	s, err := FromWei(big.NewInt(25000000000000000), "ether")
	require.NoError(t, err)
	require.Equal(t, "0.025", s)

	s, err = FromWei(MustToWei("3", "ether"), "ether")
	require.NoError(t, err)
	require.Equal(t, "3", s)

	s, err = FromWei(big.NewInt(13365410318096765), "gwei")
	require.NoError(t, err)
	require.Equal(t, "13365410.318096765", s)

	s, err = FromWei(big.NewInt(42), "wei")
	require.NoError(t, err)
	require.Equal(t, "42", s)
}

func TestUnitValueMatchesParams(t *testing.T) {
	ether, err := UnitValue("ether")
	require.NoError(t, err)
	require.Equal(t, Ether, ether)

	gwei, err := UnitValue("shannon")
	require.NoError(t, err)
	require.Equal(t, GWei, gwei)
}

func TestParse(t *testing.T) {
	wei, err := Parse("0.1 ether")
	require.NoError(t, err)
	require.Equal(t, "100000000000000000", wei.String())

	wei, err = Parse("100000000000000000")
	require.NoError(t, err)
	require.Equal(t, "100000000000000000", wei.String())

	wei, err = Parse("  25gwei ")
	require.NoError(t, err)
	require.Equal(t, "25000000000", wei.String())

	amount, err := ParseAmount("1.5 finney")
	require.NoError(t, err)
	require.Equal(t, "1.5", amount.Value)
	require.Equal(t, "finney", amount.Unit)

	_, err = Parse("ether 1")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Parse("1 parsec")
	require.ErrorIs(t, err, ErrUnknownUnit)

	require.Panics(t, func() { MustParse("") })
}
