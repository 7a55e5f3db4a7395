package account

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/lottery/blockchain/storage"
)

// Account on the dev chain
// https://ethereum.org/en/developers/docs/accounts/
type Account struct {
	addr  common.Address
	state *State
}

func (a *Account) GetAddr() common.Address {
	return a.addr
}

func (a *Account) GetState() *State {
	return a.state
}

func (a *Account) String() string {
	return fmt.Sprintf("{addr: %s, state: %s}", a.addr.Hex(), a.state)
}

type AccountBuilder struct {
	addr  common.Address
	state *StateBuilder
}

func NewAccountBuilder(addr common.Address, kvFactory storage.KVFactory) *AccountBuilder {
	return &AccountBuilder{addr: addr, state: NewStateBuilder(kvFactory)}
}

// NewContractBuilder starts a contract account running code.
func NewContractBuilder(addr common.Address, code string, kvFactory storage.KVFactory) *AccountBuilder {
	ab := NewAccountBuilder(addr, kvFactory)
	ab.state.SetCode(code)
	return ab
}

func (ab *AccountBuilder) WithBalance(balance *big.Int) *AccountBuilder {
	ab.state.SetBalance(balance)
	return ab
}

func (ab *AccountBuilder) WithNonce(nonce uint64) *AccountBuilder {
	ab.state.SetNonce(nonce)
	return ab
}

func (ab *AccountBuilder) WithKV(key string, value interface{}) *AccountBuilder {
	ab.state.SetKV(key, value)
	return ab
}

func (ab *AccountBuilder) Build() *Account {
	return &Account{ab.addr, ab.state.Build()}
}

// RetrieveState fetches the state of addr from worldState.
func RetrieveState(addr common.Address, worldState storage.KV) (*State, error) {
	value, err := worldState.Get(Key(addr))
	if err != nil {
		return nil, fmt.Errorf("address %s dont exist: %w", addr.Hex(), err)
	}
	state, ok := value.(*State)
	if !ok {
		return nil, fmt.Errorf("state of %s is corrupted: %v", addr.Hex(), value)
	}
	return state, nil
}

// RetrieveOrCreateState is like RetrieveState but inserts an empty external
// account when addr is unknown.
func RetrieveOrCreateState(addr common.Address, worldState storage.KV, kvFactory storage.KVFactory) (*State, error) {
	state, err := RetrieveState(addr, worldState)
	if err == nil {
		return state, nil
	}
	if _, getErr := worldState.Get(Key(addr)); getErr != storage.ErrKeyNotFound {
		return nil, err
	}
	state = NewState(kvFactory)
	if err := worldState.Put(Key(addr), state); err != nil {
		return nil, fmt.Errorf("cannot create account %s: %w", addr.Hex(), err)
	}
	return state, nil
}
