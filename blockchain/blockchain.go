package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"go.dedis.ch/lottery/blockchain/account"
	"go.dedis.ch/lottery/blockchain/block"
	"go.dedis.ch/lottery/blockchain/miner"
	"go.dedis.ch/lottery/blockchain/storage"
	"go.dedis.ch/lottery/blockchain/transaction"
	"go.dedis.ch/lottery/blockchain/wallet"
	"go.dedis.ch/lottery/contract"
	"go.dedis.ch/lottery/logging"
)

var ErrNoRegistry = errors.New("no contract registry")

type FullNodeConf struct {
	Addr       string
	Genesis    *Genesis
	Registry   *contract.Registry
	KVFactory  storage.KVFactory
	Wallet     *wallet.Wallet
	Difficulty uint64
	// DataDir holds the chain db; empty keeps it in memory
	DataDir string
	Clock   func() time.Time
}

// FullNode is a Wallet as well as a Miner
type FullNode struct {
	logger zerolog.Logger
	*wallet.Wallet
	miner     *miner.Miner
	chainDB   *storage.ChainDB
	kvFactory storage.KVFactory

	// serializes nonce assignment
	sendMu sync.Mutex
}

// NewFullNode creates a node whose chain starts at conf.Genesis
func NewFullNode(conf *FullNodeConf) (*FullNode, error) {
	if conf.Registry == nil {
		return nil, ErrNoRegistry
	}
	kvFactory := conf.KVFactory
	if kvFactory == nil {
		kvFactory = storage.CreateSimpleKV
	}
	genesis := conf.Genesis
	if genesis == nil {
		genesis = &Genesis{}
	}
	genesisBlock, err := genesis.ToBlock(conf.Registry, kvFactory)
	if err != nil {
		return nil, fmt.Errorf("cannot build genesis: %w", err)
	}

	var chainDB *storage.ChainDB
	if conf.DataDir != "" {
		chainDB, err = storage.OpenChainDB(conf.DataDir)
	} else {
		chainDB, err = storage.OpenMemoryChainDB()
	}
	if err != nil {
		return nil, err
	}
	if err := chainDB.PutBlock(0, genesisBlock.Hash().Hex(), genesisBlock.Record()); err != nil {
		chainDB.Close()
		return nil, err
	}

	w := conf.Wallet
	if w == nil {
		w = wallet.NewWallet(conf.Addr)
	}

	m := miner.NewMiner(miner.MinerConf{
		Addr:       conf.Addr,
		Bootstrap:  block.NewBlockChainWithGenesis(genesisBlock),
		KVFactory:  kvFactory,
		Registry:   conf.Registry,
		ChainDB:    chainDB,
		Difficulty: conf.Difficulty,
		Clock:      conf.Clock,
	})

	f := &FullNode{Wallet: w, miner: m, chainDB: chainDB, kvFactory: kvFactory}
	f.logger = logging.RootLogger.With().Str("FullNode", conf.Addr).Logger()
	f.logger.Info().Msg("created")
	return f, nil
}

func (f *FullNode) Start() {
	f.logger.Info().Msg("full node starting...")
	f.miner.Start()
}

func (f *FullNode) Stop() {
	f.logger.Info().Msg("full node stopping...")
	f.miner.Stop()
	if err := f.chainDB.Close(); err != nil {
		f.logger.Err(err).Msg("cannot close chain db")
	}
}

func (f *FullNode) Chain() *block.BlockChain {
	return f.miner.GetChain()
}

func (f *FullNode) ChainDB() *storage.ChainDB {
	return f.chainDB
}

// ImportKey adds a key to the node wallet
func (f *FullNode) ImportKey(key *ecdsa.PrivateKey) common.Address {
	return f.Wallet.Import(key)
}

func (f *FullNode) BlockNumber() uint64 {
	return f.Chain().Last().Header.Number
}

func (f *FullNode) latestState(addr common.Address) *account.State {
	world, _ := f.Chain().LatestWorldState()
	state, err := account.RetrieveState(addr, world)
	if err != nil {
		return nil
	}
	return state
}

// BalanceAt returns the balance of addr in the latest block
func (f *FullNode) BalanceAt(addr common.Address) *big.Int {
	if state := f.latestState(addr); state != nil {
		return new(big.Int).Set(state.Balance)
	}
	return new(big.Int)
}

func (f *FullNode) NonceAt(addr common.Address) uint64 {
	if state := f.latestState(addr); state != nil {
		return state.Nonce
	}
	return 0
}

// CodeAt returns the code name of the contract at addr, empty for external
// accounts
func (f *FullNode) CodeAt(addr common.Address) string {
	if state := f.latestState(addr); state != nil {
		return state.Code
	}
	return ""
}

// DeployContract creates a contract running code
func (f *FullNode) DeployContract(ctx context.Context, from common.Address, value *big.Int,
	code string, args ...interface{}) (common.Address, *transaction.Receipt, error) {
	receipt, err := f.send(ctx, transaction.Transaction{From: from, Value: value, Code: code, Args: args})
	if err != nil {
		return common.Address{}, receipt, fmt.Errorf("deploy %s: %w", code, err)
	}
	f.logger.Info().Msgf("deployed %s at %s", code, receipt.ContractAddress.Hex())
	return receipt.ContractAddress, receipt, nil
}

// Transact sends a transaction calling method on to and waits until it is
// mined
func (f *FullNode) Transact(ctx context.Context, from, to common.Address, value *big.Int,
	method string, args ...interface{}) (*transaction.Receipt, error) {
	receipt, err := f.send(ctx, transaction.Transaction{From: from, To: &to, Value: value, Method: method, Args: args})
	if err != nil {
		return receipt, fmt.Errorf("%s: %w", method, err)
	}
	return receipt, nil
}

// CallContract runs method against the latest state without mining
func (f *FullNode) CallContract(from, to common.Address, method string, args ...interface{}) (contract.Values, error) {
	return f.miner.Call(from, to, method, args)
}

func (f *FullNode) send(ctx context.Context, txn transaction.Transaction) (*transaction.Receipt, error) {
	f.sendMu.Lock()
	defer f.sendMu.Unlock()

	if txn.Value == nil {
		txn.Value = new(big.Int)
	}
	txn.Nonce = f.NonceAt(txn.From)
	signed, err := f.Wallet.Sign(txn)
	if err != nil {
		return nil, err
	}
	receipt, err := f.miner.SubmitTxn(ctx, signed)
	if err != nil {
		return nil, err
	}
	if !receipt.Succeeded() {
		return receipt, contract.Revert(receipt.RevertReason)
	}
	return receipt, nil
}
