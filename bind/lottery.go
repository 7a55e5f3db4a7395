package bind

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/lottery/blockchain/transaction"
	"go.dedis.ch/lottery/contract/impl"
)

// Lottery is a handle on a deployed Lottery contract
type Lottery struct {
	*BoundContract
}

// VRFConfig tells a lottery where to ask for randomness and how to pay it
type VRFConfig struct {
	Coordinator common.Address
	Link        common.Address
	Fee         *big.Int
	KeyHash     common.Hash
}

// DeployLottery deploys a lottery priced through priceFeed. Without vrf the
// lottery can take entries but cannot pick a winner.
func DeployLottery(opts *TransactOpts, backend ContractBackend, priceFeed common.Address,
	vrf *VRFConfig) (*Lottery, *transaction.Receipt, error) {
	args := []interface{}{priceFeed}
	if vrf != nil {
		args = append(args, vrf.Coordinator, vrf.Link, vrf.Fee, vrf.KeyHash)
	}
	_, receipt, c, err := DeployContract(opts, impl.LotteryName, backend, args...)
	if err != nil {
		return nil, receipt, err
	}
	return &Lottery{c}, receipt, nil
}

func NewLottery(address common.Address, backend ContractBackend) *Lottery {
	return &Lottery{NewBoundContract(address, backend)}
}

// EntranceFee is the ticket price in wei at the current feed price
func (l *Lottery) EntranceFee(opts *CallOpts) (*big.Int, error) {
	return l.callBig(opts, "getEntranceFee")
}

func (l *Lottery) UsdEntryFee(opts *CallOpts) (*big.Int, error) {
	return l.callBig(opts, "usdEntryFee")
}

func (l *Lottery) Enter(opts *TransactOpts) (*transaction.Receipt, error) {
	return l.Transact(opts, "enter")
}

func (l *Lottery) StartLottery(opts *TransactOpts) (*transaction.Receipt, error) {
	return l.Transact(opts, "startLottery")
}

// EndLottery closes the round and returns the id of the randomness request
func (l *Lottery) EndLottery(opts *TransactOpts) (common.Hash, *transaction.Receipt, error) {
	receipt, err := l.Transact(opts, "endLottery")
	if err != nil {
		return common.Hash{}, receipt, err
	}
	ev, ok := receipt.Event("RequestedRandomness")
	if !ok {
		return common.Hash{}, receipt, fmt.Errorf("endLottery: no RequestedRandomness event in %s", receipt.TxHash.Hex())
	}
	id, ok := ev.Fields["requestId"].(common.Hash)
	if !ok {
		return common.Hash{}, receipt, fmt.Errorf("endLottery: malformed request id %v", ev.Fields["requestId"])
	}
	return id, receipt, nil
}

func (l *Lottery) State(opts *CallOpts) (uint64, error) {
	return l.callUint64(opts, "lottery_state")
}

func (l *Lottery) Players(opts *CallOpts, i uint64) (common.Address, error) {
	return l.callAddress(opts, "players", i)
}

func (l *Lottery) PlayersLength(opts *CallOpts) (uint64, error) {
	return l.callUint64(opts, "playersLength")
}

func (l *Lottery) RecentWinner(opts *CallOpts) (common.Address, error) {
	return l.callAddress(opts, "recentWinner")
}

func (l *Lottery) Owner(opts *CallOpts) (common.Address, error) {
	return l.callAddress(opts, "owner")
}

func (l *Lottery) Randomness(opts *CallOpts) (*big.Int, error) {
	return l.callBig(opts, "randomness")
}

func (l *Lottery) PriceFeed(opts *CallOpts) (common.Address, error) {
	return l.callAddress(opts, "ethUsdPriceFeed")
}
