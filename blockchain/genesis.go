package blockchain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/lottery/blockchain/account"
	"go.dedis.ch/lottery/blockchain/block"
	"go.dedis.ch/lottery/blockchain/storage"
	"go.dedis.ch/lottery/contract"
)

// GenesisAccount is an account funded in block 0
type GenesisAccount struct {
	Balance *big.Int
	Nonce   uint64
}

// Predeploy is a contract constructed in block 0 at a fixed address. It
// stands for a contract that already lives on a forked network.
type Predeploy struct {
	Address  common.Address
	Code     string
	Args     []interface{}
	Deployer common.Address
}

// Genesis describes block 0
type Genesis struct {
	Timestamp  uint64
	Difficulty uint64
	Alloc      map[common.Address]GenesisAccount
	Contracts  []Predeploy
}

// ToBlock builds block 0, running the constructors of the predeployed
// contracts against the allocated accounts.
func (g *Genesis) ToBlock(registry *contract.Registry, kvFactory storage.KVFactory) (*block.Block, error) {
	world := kvFactory()
	for addr, alloc := range g.Alloc {
		balance := new(big.Int)
		if alloc.Balance != nil {
			balance.Set(alloc.Balance)
		}
		state := account.NewStateBuilder(kvFactory).SetNonce(alloc.Nonce).SetBalance(balance).Build()
		if err := world.Put(account.Key(addr), state); err != nil {
			return nil, err
		}
	}

	blockCtx := contract.BlockContext{Number: 0, Time: g.Timestamp}
	for _, p := range g.Contracts {
		machine := contract.NewMachine(registry, world, kvFactory, blockCtx, p.Deployer)
		if err := machine.Create(p.Deployer, p.Address, p.Code, nil, p.Args); err != nil {
			return nil, fmt.Errorf("predeploy %s at %s: %w", p.Code, p.Address.Hex(), err)
		}
		world = machine.World()
	}

	return block.NewBlockBuilder(kvFactory).
		SetParentHash(block.DUMMY_PARENT_HASH).
		SetNumber(0).
		SetTime(g.Timestamp).
		SetDifficulty(g.Difficulty).
		SetWorldState(world).
		Build(), nil
}
