package miner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/lottery/blockchain/block"
	"go.dedis.ch/lottery/blockchain/storage"
	"go.dedis.ch/lottery/blockchain/transaction"
	"go.dedis.ch/lottery/contract"
	"go.dedis.ch/lottery/logging"
)

// miner state
const (
	KILL = iota
	ALIVE
)

var ErrMinerStopped = errors.New("miner stopped")

// miner Conf
type MinerConf struct {
	Addr        string // name used in logs
	Beneficiary common.Address
	Bootstrap   *block.BlockChain
	KVFactory   storage.KVFactory // kv factory to create Blocks
	Registry    *contract.Registry
	ChainDB     *storage.ChainDB // optional, receives every mined block
	Difficulty  uint64           // leading zero bytes of mined block hashes
	Clock       func() time.Time // defaults to time.Now
}

type request struct {
	id    xid.ID
	txn   *transaction.SignedTransaction
	reply chan result
}

type result struct {
	receipt *transaction.Receipt
	err     error
}

// Miner verifies submitted transactions and seals each one in its own block
type Miner struct {
	logger zerolog.Logger

	addr        string
	beneficiary common.Address
	chain       *block.BlockChain
	chainDB     *storage.ChainDB
	registry    *contract.Registry
	kvFactory   storage.KVFactory // kv factory to create Blocks
	difficulty  uint64
	clock       func() time.Time

	txnCh chan *request
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once

	// Service
	stat int32
}

func NewMiner(conf MinerConf) *Miner {
	m := Miner{}
	m.addr = conf.Addr
	m.beneficiary = conf.Beneficiary
	m.chain = conf.Bootstrap
	if m.chain == nil {
		m.chain = block.NewBlockChain()
	}
	m.chainDB = conf.ChainDB
	m.registry = conf.Registry
	m.kvFactory = conf.KVFactory
	if m.kvFactory == nil {
		m.kvFactory = storage.CreateSimpleKV
	}
	m.difficulty = conf.Difficulty
	m.clock = conf.Clock
	if m.clock == nil {
		m.clock = time.Now
	}
	m.txnCh = make(chan *request, 100)
	m.quit = make(chan struct{})
	m.logger = logging.RootLogger.With().Str("Miner", conf.Addr).Logger()
	m.logger.Debug().Msgf("miner created:\n %s", m.chain.String())
	return &m
}

func (m *Miner) Start() {
	if !atomic.CompareAndSwapInt32(&m.stat, KILL, ALIVE) {
		return
	}
	select {
	case <-m.quit:
		// stopped miners stay stopped
		atomic.StoreInt32(&m.stat, KILL)
		return
	default:
	}
	m.wg.Add(1)
	go m.verifyAndExecuteTxnd()
	m.logger.Info().Msg("miner started")
}

// Stop terminates the daemon and waits for it to return
func (m *Miner) Stop() {
	atomic.StoreInt32(&m.stat, KILL)
	m.once.Do(func() { close(m.quit) })
	m.wg.Wait()
	m.logger.Info().Msg("miner stopped")
}

func (m *Miner) isKilled() bool {
	return atomic.LoadInt32(&m.stat) == KILL
}

func (m *Miner) GetChain() *block.BlockChain {
	return m.chain
}

// SubmitTxn hands txn to the daemon and waits until it is mined. Rejected
// transactions return an error and no receipt; reverted ones are mined and
// return a failed receipt.
func (m *Miner) SubmitTxn(ctx context.Context, txn *transaction.SignedTransaction) (*transaction.Receipt, error) {
	if m.isKilled() {
		return nil, ErrMinerStopped
	}
	req := &request{id: xid.New(), txn: txn, reply: make(chan result, 1)}
	logger := m.logger.With().Str("req", req.id.String()).Logger()
	logger.Debug().Msgf("submit %s", txn)

	select {
	case m.txnCh <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.quit:
		return nil, ErrMinerStopped
	}

	select {
	case res := <-req.reply:
		if res.err != nil {
			logger.Warn().Msgf("txn rejected: %v", res.err)
		}
		return res.receipt, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.quit:
		return nil, ErrMinerStopped
	}
}

// Call runs method on the latest world state and throws the changes away
func (m *Miner) Call(from, to common.Address, method string, args contract.Args) (contract.Values, error) {
	world, last := m.chain.LatestWorldState()
	blockCtx := contract.BlockContext{Number: last.Header.Number, Time: last.Header.Time, Coinbase: m.beneficiary}
	machine := contract.NewMachine(m.registry, world, m.kvFactory, blockCtx, from)
	ret, err := machine.Call(from, to, nil, method, args)
	if err != nil {
		return nil, fmt.Errorf("call %s.%s: %w", to.Hex(), method, err)
	}
	return ret, nil
}
