package testing

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/lottery/blockchain"
	"go.dedis.ch/lottery/blockchain/wallet"
	"go.dedis.ch/lottery/contract/impl"
	"go.dedis.ch/lottery/units"
)

// DevSeed derives the accounts of test nodes
const DevSeed = "lottery-test"

type configTemplate struct {
	accounts   int
	balance    *big.Int
	genesis    *blockchain.Genesis
	difficulty uint64
	dataDir    string
	autoStart  bool
}

func newConfigTemplate() configTemplate {
	return configTemplate{
		accounts:  3,
		balance:   units.MustToWei("100", "ether"),
		genesis:   &blockchain.Genesis{},
		autoStart: true,
	}
}

// Option is the type of options to set up a test node
type Option func(*configTemplate)

// WithAccounts sets how many funded dev accounts the node holds
func WithAccounts(n int) Option {
	return func(ct *configTemplate) {
		ct.accounts = n
	}
}

// WithBalance sets the genesis balance of every dev account
func WithBalance(balance *big.Int) Option {
	return func(ct *configTemplate) {
		ct.balance = balance
	}
}

// WithGenesis starts the chain from g. Dev accounts are added to its alloc.
func WithGenesis(g *blockchain.Genesis) Option {
	return func(ct *configTemplate) {
		ct.genesis = g
	}
}

func WithDifficulty(difficulty uint64) Option {
	return func(ct *configTemplate) {
		ct.difficulty = difficulty
	}
}

func WithDataDir(dir string) Option {
	return func(ct *configTemplate) {
		ct.dataDir = dir
	}
}

// WithAutostart sets the autostart option.
func WithAutostart(autostart bool) Option {
	return func(ct *configTemplate) {
		ct.autoStart = autostart
	}
}

// NewTestNode creates a dev node with funded accounts and stops it when the
// test ends
func NewTestNode(t *testing.T, opts ...Option) *blockchain.FullNode {
	template := newConfigTemplate()
	for _, opt := range opts {
		opt(&template)
	}

	w, err := wallet.NewDevWallet(DevSeed, template.accounts)
	require.NoError(t, err)

	genesis := *template.genesis
	genesis.Alloc = make(map[common.Address]blockchain.GenesisAccount, len(template.genesis.Alloc)+template.accounts)
	for addr, alloc := range template.genesis.Alloc {
		genesis.Alloc[addr] = alloc
	}
	for _, addr := range w.Accounts() {
		genesis.Alloc[addr] = blockchain.GenesisAccount{Balance: new(big.Int).Set(template.balance)}
	}

	node, err := blockchain.NewFullNode(&blockchain.FullNodeConf{
		Addr:       t.Name(),
		Genesis:    &genesis,
		Registry:   impl.Registry(),
		Wallet:     w,
		Difficulty: template.difficulty,
		DataDir:    template.dataDir,
	})
	require.NoError(t, err)

	if template.autoStart {
		node.Start()
		t.Cleanup(node.Stop)
	}
	return node
}
