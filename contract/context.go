package contract

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/lottery/blockchain/account"
	"go.dedis.ch/lottery/blockchain/storage"
)

// Context is handed to running contract code.
type Context struct {
	machine *Machine
	self    common.Address
	caller  common.Address
	value   *big.Int
}

func (c *Context) Self() common.Address   { return c.self }
func (c *Context) Caller() common.Address { return c.caller }
func (c *Context) Origin() common.Address { return c.machine.origin }
func (c *Context) Block() BlockContext    { return c.machine.block }
func (c *Context) ReadOnly() bool         { return c.machine.readOnly }

// Value is the wei sent along with the call.
func (c *Context) Value() *big.Int {
	return new(big.Int).Set(c.value)
}

func (c *Context) Storage() *Storage {
	return &Storage{ctx: c}
}

// BalanceOf returns the balance of addr, zero for unknown accounts.
func (c *Context) BalanceOf(addr common.Address) *big.Int {
	state, err := account.RetrieveState(addr, c.machine.world)
	if err != nil {
		return new(big.Int)
	}
	return new(big.Int).Set(state.Balance)
}

// IsContract tells whether code is deployed at addr.
func (c *Context) IsContract(addr common.Address) bool {
	state, err := account.RetrieveState(addr, c.machine.world)
	return err == nil && state.IsContract()
}

func (c *Context) SelfBalance() *big.Int {
	return c.BalanceOf(c.self)
}

// Transfer sends amount from this contract to an account.
func (c *Context) Transfer(to common.Address, amount *big.Int) error {
	_, err := c.machine.Call(c.self, to, amount, "", nil)
	return err
}

// Call invokes method on another contract with this contract as caller.
func (c *Context) Call(to common.Address, method string, value *big.Int, args ...interface{}) (Values, error) {
	return c.machine.Call(c.self, to, value, method, args)
}

// StaticCall invokes method on another contract without write access.
func (c *Context) StaticCall(to common.Address, method string, args ...interface{}) (Values, error) {
	return c.machine.StaticCall(c.self, to, method, args)
}

// Emit records an event in the transaction receipt.
func (c *Context) Emit(event string, fields map[string]interface{}) error {
	return c.machine.emit(c.self, event, fields)
}

// Storage gives typed access to the fields of the running contract. Missing
// keys read as zero values.
type Storage struct {
	ctx *Context
}

func (s *Storage) kv() (storage.KV, error) {
	state, err := account.RetrieveState(s.ctx.self, s.ctx.machine.world)
	if err != nil {
		return nil, err
	}
	return state.StorageRoot, nil
}

func (s *Storage) Get(key string) (interface{}, bool, error) {
	kv, err := s.kv()
	if err != nil {
		return nil, false, err
	}
	v, err := kv.Get(key)
	if err == storage.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *Storage) Put(key string, value interface{}) error {
	if s.ctx.machine.readOnly {
		return ErrWriteProtection
	}
	kv, err := s.kv()
	if err != nil {
		return err
	}
	return kv.Put(key, value)
}

func (s *Storage) Del(key string) error {
	if s.ctx.machine.readOnly {
		return ErrWriteProtection
	}
	kv, err := s.kv()
	if err != nil {
		return err
	}
	if err := kv.Del(key); err != nil && err != storage.ErrKeyNotFound {
		return err
	}
	return nil
}

func (s *Storage) Big(key string) (*big.Int, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return new(big.Int), err
	}
	n, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("field %s is %T, not *big.Int", key, v)
	}
	return new(big.Int).Set(n), nil
}

func (s *Storage) SetBig(key string, n *big.Int) error {
	return s.Put(key, new(big.Int).Set(n))
}

func (s *Storage) Uint64(key string) (uint64, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return 0, err
	}
	n, ok := v.(uint64)
	if !ok {
		return 0, fmt.Errorf("field %s is %T, not uint64", key, v)
	}
	return n, nil
}

func (s *Storage) SetUint64(key string, n uint64) error {
	return s.Put(key, n)
}

func (s *Storage) Address(key string) (common.Address, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return common.Address{}, err
	}
	addr, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("field %s is %T, not an address", key, v)
	}
	return addr, nil
}

func (s *Storage) SetAddress(key string, addr common.Address) error {
	return s.Put(key, addr)
}

func (s *Storage) Hash(key string) (common.Hash, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return common.Hash{}, err
	}
	h, ok := v.(common.Hash)
	if !ok {
		return common.Hash{}, fmt.Errorf("field %s is %T, not a hash", key, v)
	}
	return h, nil
}

func (s *Storage) SetHash(key string, h common.Hash) error {
	return s.Put(key, h)
}
