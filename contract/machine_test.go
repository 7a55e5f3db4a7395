package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/lottery/blockchain/account"
	"go.dedis.ch/lottery/blockchain/storage"
)

var (
	alice   = common.HexToAddress("0xa11ce")
	counter = common.HexToAddress("0xc0")
	other   = common.HexToAddress("0xc1")
)

func counterCode() *Code {
	return NewCode("Counter",
		func(ctx *Context, args Args) error {
			start, err := args.Big(0)
			if err != nil {
				return err
			}
			return ctx.Storage().SetBig("count", start)
		},
		&Method{Name: "count", View: true, Run: func(ctx *Context, args Args) (Values, error) {
			n, err := ctx.Storage().Big("count")
			return Values{n}, err
		}},
		&Method{Name: "increment", Run: func(ctx *Context, args Args) (Values, error) {
			n, err := ctx.Storage().Big("count")
			if err != nil {
				return nil, err
			}
			n.Add(n, big.NewInt(1))
			if err := ctx.Storage().SetBig("count", n); err != nil {
				return nil, err
			}
			return nil, ctx.Emit("Incremented", map[string]interface{}{"count": n})
		}},
		&Method{Name: "incrementThenFail", Run: func(ctx *Context, args Args) (Values, error) {
			if _, err := ctx.Call(ctx.Self(), "increment", nil); err != nil {
				return nil, err
			}
			return nil, Revert("nope")
		}},
		&Method{Name: "tryOther", Run: func(ctx *Context, args Args) (Values, error) {
			to, err := args.Address(0)
			if err != nil {
				return nil, err
			}
			// the callee failure is swallowed, its effects must be gone
			_, _ = ctx.Call(to, "incrementThenFail", nil)
			return nil, nil
		}},
		&Method{Name: "deposit", Payable: true, Run: func(ctx *Context, args Args) (Values, error) {
			return Values{ctx.Value(), ctx.SelfBalance()}, nil
		}},
		&Method{Name: "payout", Run: func(ctx *Context, args Args) (Values, error) {
			return nil, ctx.Transfer(ctx.Caller(), ctx.SelfBalance())
		}},
		&Method{Name: "sneakyView", View: true, Run: func(ctx *Context, args Args) (Values, error) {
			return nil, ctx.Storage().SetBig("count", big.NewInt(0))
		}},
		&Method{Name: "recurse", Run: func(ctx *Context, args Args) (Values, error) {
			return ctx.Call(ctx.Self(), "recurse", nil)
		}},
	)
}

func newMachine(t *testing.T) *Machine {
	world := storage.NewSimpleKV()
	require.NoError(t, world.Put(account.Key(alice),
		account.NewStateBuilder(storage.CreateSimpleKV).SetBalance(big.NewInt(1000)).Build()))
	registry := NewRegistry().MustRegister(counterCode())
	m := NewMachine(registry, world, storage.CreateSimpleKV, BlockContext{Number: 1, Time: 10}, alice)
	require.NoError(t, m.Create(alice, counter, "Counter", nil, Args{5}))
	return m
}

func count(t *testing.T, m *Machine, addr common.Address) int64 {
	ret, err := m.StaticCall(alice, addr, "count", nil)
	require.NoError(t, err)
	n, err := ret.Big(0)
	require.NoError(t, err)
	return n.Int64()
}

func TestCreateAndCall(t *testing.T) {
	m := newMachine(t)
	require.Equal(t, int64(5), count(t, m, counter))

	_, err := m.Call(alice, counter, nil, "increment", nil)
	require.NoError(t, err)
	require.Equal(t, int64(6), count(t, m, counter))
	require.Len(t, m.Logs(), 1)
	require.Equal(t, "Incremented", m.Logs()[0].Event)
	require.Equal(t, counter, m.Logs()[0].Address)

	err = m.Create(alice, counter, "Counter", nil, Args{1})
	require.ErrorIs(t, err, ErrContractExists)

	err = m.Create(alice, other, "Missing", nil, nil)
	require.ErrorIs(t, err, ErrNoCode)
}

func TestRevertRollsBackFrame(t *testing.T) {
	m := newMachine(t)

	_, err := m.Call(alice, counter, nil, "incrementThenFail", nil)
	require.ErrorIs(t, err, ErrExecutionReverted)
	require.Equal(t, "nope", Reason(err))
	require.Equal(t, int64(5), count(t, m, counter))
	require.Empty(t, m.Logs())

	require.NoError(t, m.Create(alice, other, "Counter", nil, Args{0}))
	_, err = m.Call(alice, counter, nil, "tryOther", Args{other})
	require.NoError(t, err)
	require.Equal(t, int64(0), count(t, m, other))
}

func TestValueTransfer(t *testing.T) {
	m := newMachine(t)

	ret, err := m.Call(alice, counter, big.NewInt(300), "deposit", nil)
	require.NoError(t, err)
	require.Equal(t, Values{big.NewInt(300), big.NewInt(300)}, ret)

	_, err = m.Call(alice, counter, big.NewInt(1), "increment", nil)
	require.ErrorIs(t, err, ErrNotPayable)

	_, err = m.Call(alice, counter, big.NewInt(5000), "deposit", nil)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = m.Call(alice, counter, nil, "payout", nil)
	require.NoError(t, err)
	state, err := account.RetrieveState(alice, m.World())
	require.NoError(t, err)
	require.Equal(t, "1000", state.Balance.String())

	// plain transfer to a fresh account
	bob := common.HexToAddress("0xb0b")
	_, err = m.Call(alice, bob, big.NewInt(10), "", nil)
	require.NoError(t, err)
	state, err = account.RetrieveState(bob, m.World())
	require.NoError(t, err)
	require.Equal(t, "10", state.Balance.String())

	_, err = m.Call(alice, bob, nil, "count", nil)
	require.ErrorIs(t, err, ErrNoCode)
}

func TestWriteProtection(t *testing.T) {
	m := newMachine(t)

	_, err := m.Call(alice, counter, nil, "sneakyView", nil)
	require.ErrorIs(t, err, ErrWriteProtection)

	_, err = m.StaticCall(alice, counter, "increment", nil)
	require.ErrorIs(t, err, ErrWriteProtection)
	require.Equal(t, int64(5), count(t, m, counter))
}

func TestCallDepth(t *testing.T) {
	m := newMachine(t)
	_, err := m.Call(alice, counter, nil, "recurse", nil)
	require.ErrorIs(t, err, ErrDepth)
}

func TestUnknownMethod(t *testing.T) {
	m := newMachine(t)
	_, err := m.Call(alice, counter, nil, "missing", nil)
	require.ErrorIs(t, err, ErrUnknownMethod)
}

func TestArgs(t *testing.T) {
	args := Args{common.HexToAddress("0x01"), "0x0000000000000000000000000000000000000002",
		uint8(8), "1000", big.NewInt(-1), common.Hash{1}, "text"}

	addr, err := args.Address(1)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x02"), addr)

	d, err := args.Uint8(2)
	require.NoError(t, err)
	require.Equal(t, uint8(8), d)

	n, err := args.Big(3)
	require.NoError(t, err)
	require.Equal(t, "1000", n.String())

	_, err = args.Uint64(4)
	require.ErrorIs(t, err, ErrBadArgument)

	h, err := args.Hash(5)
	require.NoError(t, err)
	require.Equal(t, common.Hash{1}, h)

	s, err := args.Text(6)
	require.NoError(t, err)
	require.Equal(t, "text", s)

	_, err = args.Address(2)
	require.ErrorIs(t, err, ErrBadArgument)
	_, err = args.Get(10)
	require.ErrorIs(t, err, ErrBadArgument)
	require.Len(t, args.From(5), 2)
	require.Empty(t, args.From(10))
}
