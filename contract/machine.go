package contract

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/lottery/blockchain/account"
	"go.dedis.ch/lottery/blockchain/storage"
	"go.dedis.ch/lottery/blockchain/transaction"
)

// MaxCallDepth bounds nested calls.
const MaxCallDepth = 1024

// BlockContext is the block a transaction executes in.
type BlockContext struct {
	Number   uint64
	Time     uint64
	Coinbase common.Address
}

// Machine executes contract creations and calls for one transaction. A
// failing frame leaves the world state and logs as they were before it.
type Machine struct {
	registry  *Registry
	world     storage.KV
	kvFactory storage.KVFactory
	block     BlockContext
	origin    common.Address

	logs     []*transaction.Log
	depth    int
	readOnly bool
}

func NewMachine(registry *Registry, world storage.KV, kvFactory storage.KVFactory,
	block BlockContext, origin common.Address) *Machine {
	return &Machine{
		registry:  registry,
		world:     world,
		kvFactory: kvFactory,
		block:     block,
		origin:    origin,
	}
}

// World returns the world state after the executed frames. Reverted frames
// replace it, so it must be read after execution.
func (m *Machine) World() storage.KV {
	return m.world
}

func (m *Machine) Logs() []*transaction.Log {
	return m.logs
}

// frame runs f with a snapshot of the world state and logs, restoring them
// when f fails.
func (m *Machine) frame(readOnly bool, f func() (Values, error)) (Values, error) {
	if m.depth >= MaxCallDepth {
		return nil, ErrDepth
	}
	snapshot := m.world.Copy()
	logsLen := len(m.logs)
	prevReadOnly := m.readOnly
	m.depth++
	m.readOnly = m.readOnly || readOnly
	defer func() {
		m.depth--
		m.readOnly = prevReadOnly
	}()

	ret, err := f()
	if err != nil {
		m.world = snapshot
		m.logs = m.logs[:logsLen]
		return nil, err
	}
	return ret, nil
}

// Create deploys code at addr with value taken from caller, then runs the
// constructor.
func (m *Machine) Create(caller, addr common.Address, codeName string, value *big.Int, args Args) error {
	code, err := m.registry.Lookup(codeName)
	if err != nil {
		return err
	}
	_, err = m.frame(false, func() (Values, error) {
		if m.readOnly {
			return nil, ErrWriteProtection
		}
		if existing, err := account.RetrieveState(addr, m.world); err == nil {
			if existing.IsContract() || existing.Nonce > 0 {
				return nil, fmt.Errorf("%w: %s", ErrContractExists, addr.Hex())
			}
		}
		state, err := account.RetrieveOrCreateState(addr, m.world, m.kvFactory)
		if err != nil {
			return nil, err
		}
		state.Code = code.Name
		state.Nonce = 1

		if value != nil && value.Sign() > 0 && !code.Payable {
			return nil, fmt.Errorf("%w: %s constructor", ErrNotPayable, code.Name)
		}
		if err := m.transfer(caller, addr, value); err != nil {
			return nil, err
		}
		if code.Constructor == nil {
			return nil, nil
		}
		ctx := m.newContext(addr, caller, value)
		return nil, code.Constructor(ctx, args)
	})
	return err
}

// Call runs method on the contract at to. Calling an external account only
// moves value, and fails if a method is named.
func (m *Machine) Call(caller, to common.Address, value *big.Int, method string, args Args) (Values, error) {
	return m.call(caller, to, value, method, args, false)
}

// StaticCall is Call without write access.
func (m *Machine) StaticCall(caller, to common.Address, method string, args Args) (Values, error) {
	return m.call(caller, to, nil, method, args, true)
}

func (m *Machine) call(caller, to common.Address, value *big.Int, method string, args Args, static bool) (Values, error) {
	var code *Code
	if state, err := account.RetrieveState(to, m.world); err == nil && state.IsContract() {
		code, err = m.registry.Lookup(state.Code)
		if err != nil {
			return nil, err
		}
	}
	if code == nil {
		if method != "" {
			return nil, fmt.Errorf("%w: at %s", ErrNoCode, to.Hex())
		}
		return m.frame(static, func() (Values, error) {
			return nil, m.transfer(caller, to, value)
		})
	}

	meth, err := code.Method(method)
	if err != nil {
		return nil, err
	}
	return m.frame(static || meth.View, func() (Values, error) {
		if value != nil && value.Sign() > 0 && !meth.Payable {
			return nil, fmt.Errorf("%w: %s.%s", ErrNotPayable, code.Name, method)
		}
		if err := m.transfer(caller, to, value); err != nil {
			return nil, err
		}
		ctx := m.newContext(to, caller, value)
		return meth.Run(ctx, args)
	})
}

// transfer moves value from one account to another.
func (m *Machine) transfer(from, to common.Address, value *big.Int) error {
	if value == nil || value.Sign() == 0 {
		return nil
	}
	if m.readOnly {
		return ErrWriteProtection
	}
	if value.Sign() < 0 {
		return fmt.Errorf("%w: negative value %s", ErrInsufficientBalance, value)
	}
	fromState, err := account.RetrieveState(from, m.world)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInsufficientBalance, err)
	}
	if fromState.Balance.Cmp(value) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), fromState.Balance, value)
	}
	toState, err := account.RetrieveOrCreateState(to, m.world, m.kvFactory)
	if err != nil {
		return err
	}
	fromState.Balance.Sub(fromState.Balance, value)
	toState.Balance.Add(toState.Balance, value)
	return nil
}

func (m *Machine) emit(addr common.Address, event string, fields map[string]interface{}) error {
	if m.readOnly {
		return ErrWriteProtection
	}
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if b, ok := v.(*big.Int); ok {
			v = new(big.Int).Set(b)
		}
		copied[k] = v
	}
	m.logs = append(m.logs, &transaction.Log{
		Address:     addr,
		Event:       event,
		Fields:      copied,
		BlockNumber: m.block.Number,
		Index:       uint(len(m.logs)),
	})
	return nil
}

func (m *Machine) newContext(self, caller common.Address, value *big.Int) *Context {
	if value == nil {
		value = new(big.Int)
	}
	return &Context{machine: m, self: self, caller: caller, value: new(big.Int).Set(value)}
}
