package blockchain_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/lottery/blockchain"
	"go.dedis.ch/lottery/blockchain/block"
	"go.dedis.ch/lottery/blockchain/storage"
	"go.dedis.ch/lottery/blockchain/wallet"
	"go.dedis.ch/lottery/contract"
	"go.dedis.ch/lottery/contract/impl"
	z "go.dedis.ch/lottery/internal/testing"
	"go.dedis.ch/lottery/units"
)

var feedAddr = common.HexToAddress("0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419")

func TestFullNode_Predeploy(t *testing.T) {
	node := z.NewTestNode(t, z.WithGenesis(&blockchain.Genesis{
		Contracts: []blockchain.Predeploy{{
			Address: feedAddr,
			Code:    impl.MockV3AggregatorName,
			Args:    []interface{}{uint8(8), big.NewInt(374100000000)},
		}},
	}))

	require.Equal(t, uint64(0), node.BlockNumber())
	require.Equal(t, impl.MockV3AggregatorName, node.CodeAt(feedAddr))
	require.Equal(t, "", node.CodeAt(node.Accounts()[0]))

	ret, err := node.CallContract(node.Accounts()[0], feedAddr, "latestAnswer")
	require.NoError(t, err)
	answer, err := ret.Big(0)
	require.NoError(t, err)
	require.Equal(t, "374100000000", answer.String())
}

func TestFullNode_Transfer(t *testing.T) {
	node := z.NewTestNode(t, z.WithAccounts(2), z.WithDifficulty(1))
	alice, bob := node.Accounts()[0], node.Accounts()[1]

	value := units.MustToWei("1.5", "ether")
	receipt, err := node.Transact(context.Background(), alice, bob, value, "")
	require.NoError(t, err)
	require.True(t, receipt.Succeeded())

	require.Equal(t, uint64(1), node.BlockNumber())
	require.Equal(t, uint64(1), node.NonceAt(alice))
	require.Equal(t, units.MustToWei("98.5", "ether").String(), node.BalanceAt(alice).String())
	require.Equal(t, units.MustToWei("101.5", "ether").String(), node.BalanceAt(bob).String())
	require.Equal(t, byte(0), node.Chain().Last().Hash().Bytes()[0])

	var record block.Record
	require.NoError(t, node.ChainDB().BlockByNumber(1, &record))
}

func TestFullNode_Revert(t *testing.T) {
	node := z.NewTestNode(t)
	from := node.Accounts()[0]

	feed, receipt, err := node.DeployContract(context.Background(), from, nil,
		impl.MockV3AggregatorName, uint8(8), big.NewInt(200000000000))
	require.NoError(t, err)
	require.Equal(t, feed, receipt.ContractAddress)

	receipt, err = node.Transact(context.Background(), from, feed, nil, "getRoundData", uint64(42))
	require.Error(t, err)
	require.True(t, errors.Is(err, contract.ErrExecutionReverted))
	require.NotNil(t, receipt)
	require.False(t, receipt.Succeeded())
	require.Equal(t, uint64(2), node.NonceAt(from))

	// the aggregator constructor is not payable
	_, _, err = node.DeployContract(context.Background(), from, big.NewInt(1),
		impl.MockV3AggregatorName, uint8(8), big.NewInt(1))
	require.True(t, errors.Is(err, contract.ErrExecutionReverted))
}

func TestFullNode_UnknownSender(t *testing.T) {
	node := z.NewTestNode(t)
	stranger := common.HexToAddress("0x5742")

	_, err := node.Transact(context.Background(), stranger, node.Accounts()[0], big.NewInt(1), "")
	require.True(t, errors.Is(err, wallet.ErrUnknownAccount))
	require.Equal(t, uint64(0), node.BlockNumber())
}

func TestFullNode_DataDir(t *testing.T) {
	dir := t.TempDir()
	node := z.NewTestNode(t, z.WithDataDir(dir), z.WithAutostart(false))
	node.Start()
	_, err := node.Transact(context.Background(), node.Accounts()[0], node.Accounts()[1], big.NewInt(7), "")
	require.NoError(t, err)
	node.Stop()

	db, err := storage.OpenChainDB(dir)
	require.NoError(t, err)
	defer db.Close()
	head, err := db.Head()
	require.NoError(t, err)
	require.Equal(t, uint64(1), head)
}

func TestFullNode_ImportKey(t *testing.T) {
	node := z.NewTestNode(t, z.WithAccounts(1))
	key, err := wallet.DevKey("imported", 0)
	require.NoError(t, err)

	addr := node.ImportKey(key)
	require.True(t, node.Has(addr))
	require.Len(t, node.Accounts(), 2)

	// unfunded, so it cannot pay
	_, err = node.Transact(context.Background(), addr, node.Accounts()[0], big.NewInt(1), "")
	require.Error(t, err)
	require.Equal(t, "0", node.BalanceAt(addr).String())
}
