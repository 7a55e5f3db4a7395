package contract

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// Args are the arguments of a call, Values what it returns. Accessors
// convert the loosely typed entries and fail with ErrBadArgument.
type Args []interface{}

type Values = Args

func (a Args) Get(i int) (interface{}, error) {
	if i < 0 || i >= len(a) {
		return nil, fmt.Errorf("%w: index %d out of %d", ErrBadArgument, i, len(a))
	}
	return a[i], nil
}

func (a Args) Address(i int) (common.Address, error) {
	v, err := a.Get(i)
	if err != nil {
		return common.Address{}, err
	}
	switch addr := v.(type) {
	case common.Address:
		return addr, nil
	case *common.Address:
		if addr != nil {
			return *addr, nil
		}
	case string:
		if common.IsHexAddress(addr) {
			return common.HexToAddress(addr), nil
		}
	}
	return common.Address{}, fmt.Errorf("%w: %d: %v is not an address", ErrBadArgument, i, v)
}

func (a Args) Big(i int) (*big.Int, error) {
	v, err := a.Get(i)
	if err != nil {
		return nil, err
	}
	switch n := v.(type) {
	case *big.Int:
		if n != nil {
			return new(big.Int).Set(n), nil
		}
	case big.Int:
		return new(big.Int).Set(&n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case string:
		if b, ok := math.ParseBig256(strings.TrimSpace(n)); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %d: %v is not an integer", ErrBadArgument, i, v)
}

func (a Args) Uint64(i int) (uint64, error) {
	n, err := a.Big(i)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, fmt.Errorf("%w: %d: %s overflows uint64", ErrBadArgument, i, n)
	}
	return n.Uint64(), nil
}

func (a Args) Uint8(i int) (uint8, error) {
	n, err := a.Uint64(i)
	if err != nil {
		return 0, err
	}
	if n > 255 {
		return 0, fmt.Errorf("%w: %d: %d overflows uint8", ErrBadArgument, i, n)
	}
	return uint8(n), nil
}

func (a Args) Hash(i int) (common.Hash, error) {
	v, err := a.Get(i)
	if err != nil {
		return common.Hash{}, err
	}
	switch h := v.(type) {
	case common.Hash:
		return h, nil
	case [32]byte:
		return common.Hash(h), nil
	case string:
		if raw := common.FromHex(h); len(raw) == common.HashLength {
			return common.BytesToHash(raw), nil
		}
	}
	return common.Hash{}, fmt.Errorf("%w: %d: %v is not a hash", ErrBadArgument, i, v)
}

func (a Args) Text(i int) (string, error) {
	v, err := a.Get(i)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %d: %v is not a string", ErrBadArgument, i, v)
	}
	return s, nil
}

// From returns the arguments starting at i.
func (a Args) From(i int) Args {
	if i >= len(a) {
		return Args{}
	}
	return a[i:]
}
