package account

import (
	"fmt"
	"math/big"

	"go.dedis.ch/lottery/blockchain/storage"
)

type State struct {
	Nonce       uint64     // number of transactions sent
	Balance     *big.Int   // wei owned
	StorageRoot storage.KV // contract storage, empty for external account
	Code        string     // code name, only for contract account. empty for external account
}

func NewState(kvFactory storage.KVFactory) *State {
	return &State{
		Balance:     new(big.Int),
		StorageRoot: kvFactory(),
	}
}

func (s *State) IsContract() bool {
	return s.Code != ""
}

func (s *State) Copy() *State {
	return &State{
		Nonce:       s.Nonce,
		Balance:     new(big.Int).Set(s.Balance),
		StorageRoot: s.StorageRoot.Copy(),
		Code:        s.Code,
	}
}

// DeepCopy implements storage.Copier so world state snapshots do not share
// balances or contract storage.
func (s *State) DeepCopy() interface{} {
	return s.Copy()
}

func (s *State) String() string {
	return fmt.Sprintf("{nonce=%d, balance=%s, storageRoot=%s, code=%s}",
		s.Nonce, s.Balance, s.StorageRoot.Hash()[:8], s.Code)
}

type StateBuilder struct {
	state *State
}

func NewStateBuilder(kvFactory storage.KVFactory) *StateBuilder {
	return &StateBuilder{state: NewState(kvFactory)}
}

func (sb *StateBuilder) SetNonce(nonce uint64) *StateBuilder {
	sb.state.Nonce = nonce
	return sb
}

func (sb *StateBuilder) SetBalance(balance *big.Int) *StateBuilder {
	sb.state.Balance = new(big.Int).Set(balance)
	return sb
}

func (sb *StateBuilder) SetCode(code string) *StateBuilder {
	sb.state.Code = code
	return sb
}

func (sb *StateBuilder) SetKV(key string, value interface{}) *StateBuilder {
	if err := sb.state.StorageRoot.Put(key, value); err != nil {
		panic(err)
	}
	return sb
}

func (sb *StateBuilder) Build() *State {
	return sb.state
}
