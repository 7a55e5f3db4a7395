package block

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/lottery/blockchain/account"
	"go.dedis.ch/lottery/blockchain/storage"
	"go.dedis.ch/lottery/blockchain/transaction"
)

func childOf(parent *Block, difficulty uint64) *Block {
	return NewBlockBuilder(storage.CreateSimpleKV).
		SetParentHash(parent.Hash()).
		SetNumber(parent.Header.Number + 1).
		SetTime(parent.Header.Time + 1).
		SetDifficulty(difficulty).
		Build()
}

func mine(b *Block) *Block {
	for !b.Header.SatisfiesDifficulty() {
		b.Header.Nonce++
	}
	return b
}

func TestBlockBuilder(t *testing.T) {
	var kvFactory storage.KVFactory = storage.CreateSimpleKV

	addr1 := common.HexToAddress("0x01")
	addr2 := common.HexToAddress("0x02")
	state1 := account.NewStateBuilder(kvFactory).SetBalance(big.NewInt(100)).Build()
	state2 := account.NewStateBuilder(kvFactory).SetBalance(big.NewInt(200)).Build()

	b1 := NewBlockBuilder(kvFactory).
		SetParentHash(DUMMY_PARENT_HASH).
		SetNonce(0).
		SetNumber(0).
		SetAddrState(addr1, state1).
		SetAddrState(addr2, state2).
		SetBeneficiary(common.Address{}).Build()

	require.Equal(t, 2, b1.State.Len())
	require.Equal(t, common.HexToHash(b1.State.Hash()), b1.Header.StateHash)
	require.Contains(t, b1.String(), "idx  | 0")

	// same content, same hash
	b2 := NewBlockBuilder(kvFactory).
		SetAddrState(addr2, state2).
		SetAddrState(addr1, state1).Build()
	require.Equal(t, b1.Hash(), b2.Hash())

	b3 := NewBlockBuilder(kvFactory).SetAddrState(addr1, state1).Build()
	require.NotEqual(t, b1.Hash(), b3.Hash())
}

func TestBlockBuilderTxns(t *testing.T) {
	txn := &transaction.SignedTransaction{Digest: []byte{1}, Signature: []byte{2}}
	receipt := &transaction.Receipt{TxHash: txn.Hash(), Status: transaction.ReceiptStatusSuccessful}
	b := NewBlockBuilder(storage.CreateSimpleKV).AddTxn(txn, receipt).Build()

	require.Len(t, b.Transactions, 1)
	require.NotEqual(t, DefaultGenesis().Header.TxHash, b.Header.TxHash)
	require.Equal(t, []common.Hash{txn.Hash()}, b.Record().TxHashes)
}

func TestBlockChainAppend(t *testing.T) {
	bc := NewBlockChain()
	genesis := bc.Last()
	require.Equal(t, 1, bc.Len())

	b1 := mine(childOf(genesis, 1))
	require.NoError(t, bc.TryAppend(b1))
	require.NoError(t, bc.Append(b1))
	require.Equal(t, 2, bc.Len())
	require.Equal(t, b1, bc.Last())

	got, err := bc.BlockByNumber(1)
	require.NoError(t, err)
	require.Equal(t, b1, got)
	got, err = bc.BlockByHash(b1.Hash())
	require.NoError(t, err)
	require.Equal(t, b1, got)

	_, err = bc.BlockByNumber(7)
	require.ErrorIs(t, err, ErrUnknownBlock)
	_, err = bc.BlockByHash(common.Hash{1})
	require.ErrorIs(t, err, ErrUnknownBlock)

	require.Contains(t, bc.Tree(), "#1 ")
	require.Contains(t, bc.String(), "idx  | 1")
}

func TestBlockChainRejectsBadBlocks(t *testing.T) {
	bc := NewBlockChain()
	genesis := bc.Last()

	// wrong number
	tooNew := childOf(genesis, 0)
	tooNew.Header.Number = 5
	require.Error(t, bc.Append(tooNew))

	// wrong parent
	orphan := childOf(genesis, 0)
	orphan.Header.ParentHash = common.Hash{1}
	require.Error(t, bc.Append(orphan))

	// not mined
	unmined := childOf(genesis, 1)
	for unmined.Header.SatisfiesDifficulty() {
		unmined.Header.Nonce++
	}
	require.Error(t, bc.TryAppend(unmined))
	require.Equal(t, 1, bc.Len())
}

func TestLatestWorldStateIsACopy(t *testing.T) {
	kvFactory := storage.CreateSimpleKV
	addr := common.HexToAddress("0x01")
	genesis := NewBlockBuilder(kvFactory).
		SetAddrState(addr, account.NewStateBuilder(kvFactory).SetBalance(big.NewInt(1)).Build()).
		Build()
	bc := NewBlockChainWithGenesis(genesis)

	world, last := bc.LatestWorldState()
	require.Equal(t, genesis, last)
	state, err := account.RetrieveState(addr, world)
	require.NoError(t, err)
	state.Balance.SetInt64(1000)

	world, _ = bc.LatestWorldState()
	state, err = account.RetrieveState(addr, world)
	require.NoError(t, err)
	require.Equal(t, "1", state.Balance.String())
}
