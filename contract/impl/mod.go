// Package impl holds the native contracts deployable on the dev chain: the
// Lottery and the mocks it depends on locally.
package impl

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/lottery/contract"
)

// Code names, as stored in contract accounts.
const (
	LotteryName          = "Lottery"
	MockV3AggregatorName = "MockV3Aggregator"
	LinkTokenName        = "LinkToken"
	VRFCoordinatorName   = "VRFCoordinatorMock"
)

// Registry returns a registry holding every contract of this package.
func Registry() *contract.Registry {
	return contract.NewRegistry().MustRegister(
		LotteryCode(),
		MockV3AggregatorCode(),
		LinkTokenCode(),
		VRFCoordinatorMockCode(),
	)
}

func view(name string, run func(ctx *contract.Context, args contract.Args) (contract.Values, error)) *contract.Method {
	return &contract.Method{Name: name, View: true, Run: run}
}

func tx(name string, run func(ctx *contract.Context, args contract.Args) (contract.Values, error)) *contract.Method {
	return &contract.Method{Name: name, Run: run}
}

func payable(name string, run func(ctx *contract.Context, args contract.Args) (contract.Values, error)) *contract.Method {
	return &contract.Method{Name: name, Payable: true, Run: run}
}

// getter exposes a storage field read by get as a view method.
func getter(name string, get func(s *contract.Storage) (interface{}, error)) *contract.Method {
	return view(name, func(ctx *contract.Context, args contract.Args) (contract.Values, error) {
		v, err := get(ctx.Storage())
		if err != nil {
			return nil, err
		}
		return contract.Values{v}, nil
	})
}

func indexKey(prefix string, i uint64) string {
	return fmt.Sprintf("%s.%d", prefix, i)
}

func addrKey(prefix string, addr common.Address) string {
	return prefix + "." + addr.Hex()
}
