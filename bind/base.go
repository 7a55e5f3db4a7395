// Package bind gives typed Go handles over the contracts deployed on a
// node, in the manner of generated contract bindings.
package bind

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/lottery/blockchain/transaction"
	"go.dedis.ch/lottery/contract"
)

var ErrNoOpts = errors.New("missing transact options")

// TransactOpts is the sender side of a state changing call
type TransactOpts struct {
	From    common.Address
	Value   *big.Int        // ether sent along, nil for none
	Context context.Context // nil means context.Background()
}

// CallOpts configures a read-only call
type CallOpts struct {
	From common.Address
}

// ContractBackend is a node that can deploy, transact with and call
// contracts
type ContractBackend interface {
	DeployContract(ctx context.Context, from common.Address, value *big.Int,
		code string, args ...interface{}) (common.Address, *transaction.Receipt, error)
	Transact(ctx context.Context, from, to common.Address, value *big.Int,
		method string, args ...interface{}) (*transaction.Receipt, error)
	CallContract(from, to common.Address, method string, args ...interface{}) (contract.Values, error)
}

// BoundContract is a contract address paired with the backend it lives on
type BoundContract struct {
	address common.Address
	backend ContractBackend
}

func NewBoundContract(address common.Address, backend ContractBackend) *BoundContract {
	return &BoundContract{address: address, backend: backend}
}

// DeployContract deploys code and binds the result
func DeployContract(opts *TransactOpts, code string, backend ContractBackend,
	args ...interface{}) (common.Address, *transaction.Receipt, *BoundContract, error) {
	if opts == nil {
		return common.Address{}, nil, nil, ErrNoOpts
	}
	addr, receipt, err := backend.DeployContract(opts.context(), opts.From, opts.Value, code, args...)
	if err != nil {
		return common.Address{}, receipt, nil, err
	}
	return addr, receipt, NewBoundContract(addr, backend), nil
}

func (c *BoundContract) Address() common.Address {
	return c.address
}

// Call invokes a method without mining
func (c *BoundContract) Call(opts *CallOpts, method string, args ...interface{}) (contract.Values, error) {
	if opts == nil {
		opts = &CallOpts{}
	}
	return c.backend.CallContract(opts.From, c.address, method, args...)
}

// Transact mines a transaction invoking method
func (c *BoundContract) Transact(opts *TransactOpts, method string, args ...interface{}) (*transaction.Receipt, error) {
	if opts == nil {
		return nil, ErrNoOpts
	}
	return c.backend.Transact(opts.context(), opts.From, c.address, opts.Value, method, args...)
}

func (c *BoundContract) callBig(opts *CallOpts, method string, args ...interface{}) (*big.Int, error) {
	ret, err := c.Call(opts, method, args...)
	if err != nil {
		return nil, err
	}
	return ret.Big(0)
}

func (c *BoundContract) callUint64(opts *CallOpts, method string, args ...interface{}) (uint64, error) {
	ret, err := c.Call(opts, method, args...)
	if err != nil {
		return 0, err
	}
	return ret.Uint64(0)
}

func (c *BoundContract) callAddress(opts *CallOpts, method string, args ...interface{}) (common.Address, error) {
	ret, err := c.Call(opts, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	return ret.Address(0)
}

func (opts *TransactOpts) context() context.Context {
	if opts.Context == nil {
		return context.Background()
	}
	return opts.Context
}
