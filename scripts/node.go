// Package scripts deploys and drives the lottery on a configured network,
// deploying mocks where the network has no contracts of its own.
package scripts

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"go.dedis.ch/lottery/blockchain"
	"go.dedis.ch/lottery/blockchain/wallet"
	"go.dedis.ch/lottery/config"
	"go.dedis.ch/lottery/contract/impl"
	"go.dedis.ch/lottery/logging"
)

var (
	ErrLiveNetwork   = errors.New("live networks are not supported, use a fork")
	ErrNoSnapshot    = errors.New("fork network without snapshot")
	ErrNoSuchAccount = errors.New("no such account")
)

// Env is a running node bound to one network of the configuration
type Env struct {
	logger zerolog.Logger

	Config  *config.Config
	Network string
	NetCfg  *config.NetworkConfig
	Node    *blockchain.FullNode

	mocks map[string]common.Address
}

type nodeOptions struct {
	dataDir string
}

type Option func(*nodeOptions)

// WithDataDir keeps the chain db in dir instead of memory
func WithDataDir(dir string) Option {
	return func(o *nodeOptions) {
		o.dataDir = dir
	}
}

// NewNode starts a dev node for network. Fork networks start from a snapshot
// holding their price feed, LINK token and VRF coordinator at the configured
// addresses.
func NewNode(cfg *config.Config, network string, opts ...Option) (*Env, error) {
	var o nodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	netCfg, err := cfg.Network(network)
	if err != nil {
		return nil, err
	}
	if !config.IsLocal(network) && !config.IsFork(network) {
		return nil, fmt.Errorf("%w: %s", ErrLiveNetwork, network)
	}

	accounts := cfg.Dev.Accounts
	if accounts < 1 {
		accounts = 1
	}
	w, err := wallet.NewDevWallet(cfg.Dev.Seed, accounts)
	if err != nil {
		return nil, err
	}
	if cfg.Wallets.FromKey != "" {
		if _, err := w.ImportHex(cfg.Wallets.FromKey); err != nil {
			return nil, fmt.Errorf("wallets.from_key: %w", err)
		}
	}

	balance, err := cfg.DevBalance()
	if err != nil {
		return nil, err
	}
	genesis := &blockchain.Genesis{Alloc: make(map[common.Address]blockchain.GenesisAccount)}
	for _, addr := range w.Accounts() {
		genesis.Alloc[addr] = blockchain.GenesisAccount{Balance: new(big.Int).Set(balance)}
	}
	if config.IsFork(network) {
		predeploys, err := forkSnapshot(netCfg, w.Accounts()[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", network, err)
		}
		genesis.Contracts = predeploys
	}

	node, err := blockchain.NewFullNode(&blockchain.FullNodeConf{
		Addr:       network,
		Genesis:    genesis,
		Registry:   impl.Registry(),
		Wallet:     w,
		Difficulty: cfg.Dev.Difficulty,
		DataDir:    o.dataDir,
	})
	if err != nil {
		return nil, err
	}
	node.Start()

	env := &Env{
		Config:  cfg,
		Network: network,
		NetCfg:  netCfg,
		Node:    node,
		mocks:   make(map[string]common.Address),
	}
	env.logger = logging.RootLogger.With().Str("Network", network).Logger()
	env.logger.Info().Msgf("node ready, %d accounts", len(w.Accounts()))
	return env, nil
}

// forkSnapshot lists the contracts the forked network already has. The LINK
// supply goes to funder.
func forkSnapshot(netCfg *config.NetworkConfig, funder common.Address) ([]blockchain.Predeploy, error) {
	if netCfg.Fork == nil {
		return nil, ErrNoSnapshot
	}
	feed, err := netCfg.Address(config.KeyPriceFeed)
	if err != nil {
		return nil, err
	}
	predeploys := []blockchain.Predeploy{{
		Address: feed,
		Code:    impl.MockV3AggregatorName,
		Args:    []interface{}{netCfg.Fork.Decimals, big.NewInt(netCfg.Fork.EthUsdPrice)},
	}}
	if netCfg.LinkToken == "" {
		return predeploys, nil
	}
	link, err := netCfg.Address(config.KeyLinkToken)
	if err != nil {
		return nil, err
	}
	predeploys = append(predeploys, blockchain.Predeploy{
		Address:  link,
		Code:     impl.LinkTokenName,
		Deployer: funder,
	})
	if netCfg.VRFCoordinator != "" {
		coordinator, err := netCfg.Address(config.KeyVRFCoordinator)
		if err != nil {
			return nil, err
		}
		predeploys = append(predeploys, blockchain.Predeploy{
			Address: coordinator,
			Code:    impl.VRFCoordinatorName,
			Args:    []interface{}{link},
		})
	}
	return predeploys, nil
}

// Close stops the node
func (e *Env) Close() {
	e.Node.Stop()
}

// GetAccount returns the index-th account of the node wallet
func (e *Env) GetAccount(index int) (common.Address, error) {
	accounts := e.Node.Accounts()
	if index < 0 || index >= len(accounts) {
		return common.Address{}, fmt.Errorf("%w: %d of %d", ErrNoSuchAccount, index, len(accounts))
	}
	return accounts[index], nil
}
