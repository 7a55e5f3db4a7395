package scripts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/disiqueira/gotree/v3"
	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/lottery/bind"
	"go.dedis.ch/lottery/config"
	"go.dedis.ch/lottery/contract/impl"
	"go.dedis.ch/lottery/units"
	"golang.org/x/sync/errgroup"
)

// Mock parameters: an ETH/USD feed with 8 decimals reporting 2000 USD
const (
	Decimals = 8
)

var (
	StartingPrice = big.NewInt(200000000000)
	// DefaultLinkFunding is what FundWithLink sends when no amount is given
	DefaultLinkFunding = units.MustToWei("0.1", "ether")
	// entryMargin is added on top of the entrance fee when entering
	entryMargin = big.NewInt(100000000)
)

var lotteryStates = map[uint64]string{
	impl.LotteryOpen:              "OPEN",
	impl.LotteryClosed:            "CLOSED",
	impl.LotteryCalculatingWinner: "CALCULATING_WINNER",
}

func (e *Env) opts(from common.Address) *bind.TransactOpts {
	return &bind.TransactOpts{From: from, Context: context.Background()}
}

func (e *Env) owner() (common.Address, error) {
	return e.GetAccount(0)
}

// DeployMocks deploys a price feed, a LINK token and a VRF coordinator
func (e *Env) DeployMocks(decimals uint8, initialAnswer *big.Int) error {
	from, err := e.owner()
	if err != nil {
		return err
	}
	e.logger.Info().Msgf("deploying mocks on %s", e.Network)
	feed, _, err := bind.DeployMockV3Aggregator(e.opts(from), e.Node, decimals, initialAnswer)
	if err != nil {
		return err
	}
	link, _, err := bind.DeployLinkToken(e.opts(from), e.Node)
	if err != nil {
		return err
	}
	coordinator, _, err := bind.DeployVRFCoordinatorMock(e.opts(from), e.Node, link.Address())
	if err != nil {
		return err
	}
	e.mocks[config.KeyPriceFeed] = feed.Address()
	e.mocks[config.KeyLinkToken] = link.Address()
	e.mocks[config.KeyVRFCoordinator] = coordinator.Address()
	e.logger.Info().Msg("mocks deployed")
	return nil
}

// GetContract returns the address of one of the contracts the lottery
// depends on. Local networks get mocks, deployed on first use; other
// networks read it from the configuration.
func (e *Env) GetContract(key string) (common.Address, error) {
	if !config.IsLocal(e.Network) {
		return e.NetCfg.Address(key)
	}
	if _, ok := e.mocks[key]; !ok {
		if err := e.DeployMocks(Decimals, StartingPrice); err != nil {
			return common.Address{}, err
		}
	}
	addr, ok := e.mocks[key]
	if !ok {
		return common.Address{}, fmt.Errorf("no mock for %s", key)
	}
	return addr, nil
}

// FundWithLink sends amount LINK (DefaultLinkFunding if nil) from the
// owner account to addr
func (e *Env) FundWithLink(addr common.Address, amount *big.Int) error {
	if amount == nil {
		amount = DefaultLinkFunding
	}
	from, err := e.owner()
	if err != nil {
		return err
	}
	linkAddr, err := e.GetContract(config.KeyLinkToken)
	if err != nil {
		return err
	}
	link := bind.NewLinkToken(linkAddr, e.Node)
	if _, err := link.Transfer(e.opts(from), addr, amount); err != nil {
		return fmt.Errorf("fund %s with LINK: %w", addr.Hex(), err)
	}
	e.logger.Info().Msgf("funded %s with %s LINK", addr.Hex(), amount)
	return nil
}

// DeployLottery deploys a lottery wired to the network's price feed and
// VRF coordinator
func (e *Env) DeployLottery() (*bind.Lottery, error) {
	from, err := e.owner()
	if err != nil {
		return nil, err
	}
	feed, err := e.GetContract(config.KeyPriceFeed)
	if err != nil {
		return nil, err
	}
	var vrf bind.VRFConfig
	if vrf.Coordinator, err = e.GetContract(config.KeyVRFCoordinator); err != nil {
		return nil, err
	}
	if vrf.Link, err = e.GetContract(config.KeyLinkToken); err != nil {
		return nil, err
	}
	if vrf.Fee, err = e.NetCfg.Fee(); err != nil {
		return nil, err
	}
	if e.NetCfg.KeyHashHex != "" {
		if vrf.KeyHash, err = e.NetCfg.KeyHash(); err != nil {
			return nil, err
		}
	}
	lottery, _, err := bind.DeployLottery(e.opts(from), e.Node, feed, &vrf)
	if err != nil {
		return nil, err
	}
	e.logger.Info().Msgf("deployed lottery at %s", lottery.Address().Hex())
	return lottery, nil
}

func (e *Env) StartLottery(lottery *bind.Lottery) error {
	from, err := e.owner()
	if err != nil {
		return err
	}
	if _, err := lottery.StartLottery(e.opts(from)); err != nil {
		return err
	}
	e.logger.Info().Msg("lottery started")
	return nil
}

// EnterLottery buys a ticket for player, paying slightly more than the fee
func (e *Env) EnterLottery(lottery *bind.Lottery, player common.Address) error {
	fee, err := lottery.EntranceFee(&bind.CallOpts{From: player})
	if err != nil {
		return err
	}
	opts := e.opts(player)
	opts.Value = new(big.Int).Add(fee, entryMargin)
	if _, err := lottery.Enter(opts); err != nil {
		return fmt.Errorf("%s cannot enter: %w", player.Hex(), err)
	}
	e.logger.Info().Msgf("%s entered the lottery", player.Hex())
	return nil
}

// EnterLotteryN enters the first n accounts concurrently
func (e *Env) EnterLotteryN(ctx context.Context, lottery *bind.Lottery, n int) error {
	accounts := e.Node.Accounts()
	if n > len(accounts) {
		return fmt.Errorf("%w: %d players requested, %d accounts", ErrNoSuchAccount, n, len(accounts))
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, player := range accounts[:n] {
		player := player
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return e.EnterLottery(lottery, player)
		})
	}
	return g.Wait()
}

// EndLottery closes the round and answers its randomness request with
// randomness, returning the winner
func (e *Env) EndLottery(lottery *bind.Lottery, randomness *big.Int) (common.Address, error) {
	from, err := e.owner()
	if err != nil {
		return common.Address{}, err
	}
	fee, err := e.NetCfg.Fee()
	if err != nil {
		return common.Address{}, err
	}
	if err := e.FundWithLink(lottery.Address(), fee); err != nil {
		return common.Address{}, err
	}
	requestID, _, err := lottery.EndLottery(e.opts(from))
	if err != nil {
		return common.Address{}, err
	}
	coordinatorAddr, err := e.GetContract(config.KeyVRFCoordinator)
	if err != nil {
		return common.Address{}, err
	}
	coordinator := bind.NewVRFCoordinator(coordinatorAddr, e.Node)
	if _, err := coordinator.CallBackWithRandomness(e.opts(from), requestID, randomness, lottery.Address()); err != nil {
		return common.Address{}, err
	}
	winner, err := lottery.RecentWinner(nil)
	if err != nil {
		return common.Address{}, err
	}
	e.logger.Info().Msgf("%s is the new winner", winner.Hex())
	return winner, nil
}

// Status renders the state of lottery as a tree
func (e *Env) Status(lottery *bind.Lottery) (string, error) {
	state, err := lottery.State(nil)
	if err != nil {
		return "", err
	}
	fee, err := lottery.EntranceFee(nil)
	if err != nil {
		return "", err
	}
	n, err := lottery.PlayersLength(nil)
	if err != nil {
		return "", err
	}
	winner, err := lottery.RecentWinner(nil)
	if err != nil {
		return "", err
	}
	feeEther, err := units.FromWei(fee, "ether")
	if err != nil {
		return "", err
	}
	potEther, err := units.FromWei(e.Node.BalanceAt(lottery.Address()), "ether")
	if err != nil {
		return "", err
	}

	root := gotree.New(fmt.Sprintf("Lottery %s on %s", lottery.Address().Hex(), e.Network))
	root.Add("state: " + lotteryStates[state])
	root.Add(fmt.Sprintf("entrance fee: %s ether", feeEther))
	root.Add(fmt.Sprintf("pot: %s ether", potEther))
	players := root.Add(fmt.Sprintf("players: %d", n))
	for i := uint64(0); i < n; i++ {
		player, err := lottery.Players(nil, i)
		if err != nil {
			return "", err
		}
		players.Add(player.Hex())
	}
	if winner != (common.Address{}) {
		root.Add("recent winner: " + winner.Hex())
	}
	return root.Print(), nil
}
