package miner

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/lottery/blockchain/account"
	"go.dedis.ch/lottery/blockchain/block"
	"go.dedis.ch/lottery/blockchain/storage"
	"go.dedis.ch/lottery/blockchain/transaction"
	"go.dedis.ch/lottery/contract"
	"go.dedis.ch/lottery/contract/impl"
	"go.uber.org/goleak"
)

var bob = common.HexToAddress("0xb0b")

type fixture struct {
	key   *ecdsa.PrivateKey
	addr  common.Address
	miner *Miner
	db    *storage.ChainDB
}

func newFixture(t *testing.T, difficulty uint64) *fixture {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	funded := account.NewStateBuilder(storage.CreateSimpleKV).SetBalance(big.NewInt(1000)).Build()
	genesis := block.NewBlockBuilder(storage.CreateSimpleKV).
		SetParentHash(block.DUMMY_PARENT_HASH).
		SetAddrState(addr, funded).
		Build()

	db, err := storage.OpenMemoryChainDB()
	require.NoError(t, err)

	m := NewMiner(MinerConf{
		Addr:       "test",
		Bootstrap:  block.NewBlockChainWithGenesis(genesis),
		KVFactory:  storage.CreateSimpleKV,
		Registry:   impl.Registry(),
		ChainDB:    db,
		Difficulty: difficulty,
	})
	m.Start()
	t.Cleanup(func() {
		m.Stop()
		db.Close()
	})
	return &fixture{key: key, addr: addr, miner: m, db: db}
}

func (f *fixture) submit(t *testing.T, txn transaction.Transaction) (*transaction.Receipt, error) {
	signed, err := transaction.Sign(txn, f.key)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return f.miner.SubmitTxn(ctx, signed)
}

func stateOf(t *testing.T, m *Miner, addr common.Address) *account.State {
	world, _ := m.GetChain().LatestWorldState()
	state, err := account.RetrieveState(addr, world)
	require.NoError(t, err)
	return state
}

func TestMiner_Transfer(t *testing.T) {
	f := newFixture(t, 1)

	receipt, err := f.submit(t, transaction.Transaction{Nonce: 0, From: f.addr, To: &bob, Value: big.NewInt(300)})
	require.NoError(t, err)
	require.True(t, receipt.Succeeded())
	require.Equal(t, uint64(1), receipt.BlockNumber)

	chain := f.miner.GetChain()
	require.Equal(t, 2, chain.Len())
	last := chain.Last()
	require.Equal(t, byte(0), last.Hash().Bytes()[0])
	require.Equal(t, receipt.BlockHash, last.Hash())

	require.Equal(t, "700", stateOf(t, f.miner, f.addr).Balance.String())
	require.Equal(t, uint64(1), stateOf(t, f.miner, f.addr).Nonce)
	require.Equal(t, "300", stateOf(t, f.miner, bob).Balance.String())

	head, err := f.db.Head()
	require.NoError(t, err)
	require.Equal(t, uint64(1), head)
	var stored transaction.Receipt
	require.NoError(t, f.db.Receipt(receipt.TxHash.Hex(), &stored))
	require.Equal(t, receipt.TxHash, stored.TxHash)
}

func TestMiner_RejectInvalid(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.submit(t, transaction.Transaction{Nonce: 5, From: f.addr, To: &bob, Value: big.NewInt(1)})
	require.True(t, errors.Is(err, ErrNonceMismatch))

	_, err = f.submit(t, transaction.Transaction{Nonce: 0, From: f.addr, To: &bob, Value: big.NewInt(5000)})
	require.True(t, errors.Is(err, ErrInsufficientFunds))

	// tampered after signing
	signed, err := transaction.Sign(transaction.Transaction{From: f.addr, To: &bob, Value: big.NewInt(1)}, f.key)
	require.NoError(t, err)
	signed.Txn.Value = big.NewInt(2)
	_, err = f.miner.SubmitTxn(context.Background(), signed)
	require.True(t, errors.Is(err, transaction.ErrInvalidSignature))

	require.Equal(t, 1, f.miner.GetChain().Len())
}

func TestMiner_DeployAndRevert(t *testing.T) {
	f := newFixture(t, 0)

	receipt, err := f.submit(t, transaction.Transaction{Nonce: 0, From: f.addr,
		Code: impl.MockV3AggregatorName, Args: []interface{}{uint8(8), big.NewInt(200000000000)}})
	require.NoError(t, err)
	require.True(t, receipt.Succeeded())
	feed := receipt.ContractAddress
	require.Equal(t, crypto.CreateAddress(f.addr, 0), feed)
	require.Equal(t, impl.MockV3AggregatorName, stateOf(t, f.miner, feed).Code)

	to := feed
	receipt, err = f.submit(t, transaction.Transaction{Nonce: 1, From: f.addr, To: &to,
		Method: "getRoundData", Args: []interface{}{uint64(99)}})
	require.NoError(t, err)
	require.False(t, receipt.Succeeded())
	require.Equal(t, "No data present", receipt.RevertReason)
	// mined anyway, the nonce is consumed
	require.Equal(t, 3, f.miner.GetChain().Len())
	require.Equal(t, uint64(2), stateOf(t, f.miner, f.addr).Nonce)

	ret, err := f.miner.Call(f.addr, feed, "latestAnswer", nil)
	require.NoError(t, err)
	answer, err := ret.Big(0)
	require.NoError(t, err)
	require.Equal(t, "200000000000", answer.String())

	_, err = f.miner.Call(f.addr, feed, "getRoundData", contract.Args{uint64(99)})
	require.True(t, errors.Is(err, contract.ErrExecutionReverted))
}

func TestMiner_StopReleasesDaemon(t *testing.T) {
	opt := goleak.IgnoreCurrent()

	m := NewMiner(MinerConf{Addr: "leak", Registry: impl.Registry()})
	_, err := m.SubmitTxn(context.Background(), &transaction.SignedTransaction{})
	require.True(t, errors.Is(err, ErrMinerStopped))

	m.Start()
	m.Stop()
	goleak.VerifyNone(t, opt)

	_, err = m.SubmitTxn(context.Background(), &transaction.SignedTransaction{})
	require.True(t, errors.Is(err, ErrMinerStopped))

	// a stopped miner cannot be restarted
	m.Start()
	require.True(t, m.isKilled())
}
