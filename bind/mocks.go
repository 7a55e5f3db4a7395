package bind

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/lottery/blockchain/transaction"
	"go.dedis.ch/lottery/contract/impl"
)

// PriceFeed is a handle on an aggregator (real or mocked)
type PriceFeed struct {
	*BoundContract
}

// RoundData is what latestRoundData and getRoundData return
type RoundData struct {
	RoundID         uint64
	Answer          *big.Int
	StartedAt       uint64
	UpdatedAt       uint64
	AnsweredInRound uint64
}

func DeployMockV3Aggregator(opts *TransactOpts, backend ContractBackend, decimals uint8,
	initialAnswer *big.Int) (*PriceFeed, *transaction.Receipt, error) {
	_, receipt, c, err := DeployContract(opts, impl.MockV3AggregatorName, backend, decimals, initialAnswer)
	if err != nil {
		return nil, receipt, err
	}
	return &PriceFeed{c}, receipt, nil
}

func NewPriceFeed(address common.Address, backend ContractBackend) *PriceFeed {
	return &PriceFeed{NewBoundContract(address, backend)}
}

func (p *PriceFeed) Decimals(opts *CallOpts) (uint8, error) {
	ret, err := p.Call(opts, "decimals")
	if err != nil {
		return 0, err
	}
	return ret.Uint8(0)
}

func (p *PriceFeed) LatestAnswer(opts *CallOpts) (*big.Int, error) {
	return p.callBig(opts, "latestAnswer")
}

func (p *PriceFeed) LatestRoundData(opts *CallOpts) (RoundData, error) {
	ret, err := p.Call(opts, "latestRoundData")
	if err != nil {
		return RoundData{}, err
	}
	var rd RoundData
	if rd.RoundID, err = ret.Uint64(0); err != nil {
		return RoundData{}, err
	}
	if rd.Answer, err = ret.Big(1); err != nil {
		return RoundData{}, err
	}
	if rd.StartedAt, err = ret.Uint64(2); err != nil {
		return RoundData{}, err
	}
	if rd.UpdatedAt, err = ret.Uint64(3); err != nil {
		return RoundData{}, err
	}
	if rd.AnsweredInRound, err = ret.Uint64(4); err != nil {
		return RoundData{}, err
	}
	return rd, nil
}

func (p *PriceFeed) UpdateAnswer(opts *TransactOpts, answer *big.Int) (*transaction.Receipt, error) {
	return p.Transact(opts, "updateAnswer", answer)
}

// LinkToken is a handle on an ERC677 LINK token
type LinkToken struct {
	*BoundContract
}

func DeployLinkToken(opts *TransactOpts, backend ContractBackend) (*LinkToken, *transaction.Receipt, error) {
	_, receipt, c, err := DeployContract(opts, impl.LinkTokenName, backend)
	if err != nil {
		return nil, receipt, err
	}
	return &LinkToken{c}, receipt, nil
}

func NewLinkToken(address common.Address, backend ContractBackend) *LinkToken {
	return &LinkToken{NewBoundContract(address, backend)}
}

func (l *LinkToken) BalanceOf(opts *CallOpts, owner common.Address) (*big.Int, error) {
	return l.callBig(opts, "balanceOf", owner)
}

func (l *LinkToken) TotalSupply(opts *CallOpts) (*big.Int, error) {
	return l.callBig(opts, "totalSupply")
}

func (l *LinkToken) Allowance(opts *CallOpts, owner, spender common.Address) (*big.Int, error) {
	return l.callBig(opts, "allowance", owner, spender)
}

func (l *LinkToken) Transfer(opts *TransactOpts, to common.Address, value *big.Int) (*transaction.Receipt, error) {
	return l.Transact(opts, "transfer", to, value)
}

func (l *LinkToken) Approve(opts *TransactOpts, spender common.Address, value *big.Int) (*transaction.Receipt, error) {
	return l.Transact(opts, "approve", spender, value)
}

func (l *LinkToken) TransferFrom(opts *TransactOpts, from, to common.Address, value *big.Int) (*transaction.Receipt, error) {
	return l.Transact(opts, "transferFrom", from, to, value)
}

// VRFCoordinator is a handle on the mocked VRF coordinator
type VRFCoordinator struct {
	*BoundContract
}

func DeployVRFCoordinatorMock(opts *TransactOpts, backend ContractBackend,
	link common.Address) (*VRFCoordinator, *transaction.Receipt, error) {
	_, receipt, c, err := DeployContract(opts, impl.VRFCoordinatorName, backend, link)
	if err != nil {
		return nil, receipt, err
	}
	return &VRFCoordinator{c}, receipt, nil
}

func NewVRFCoordinator(address common.Address, backend ContractBackend) *VRFCoordinator {
	return &VRFCoordinator{NewBoundContract(address, backend)}
}

// CallBackWithRandomness answers requestID, which makes consumer pick its
// winner
func (v *VRFCoordinator) CallBackWithRandomness(opts *TransactOpts, requestID common.Hash,
	randomness *big.Int, consumer common.Address) (*transaction.Receipt, error) {
	return v.Transact(opts, "callBackWithRandomness", requestID, randomness, consumer)
}
