package impl

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"go.dedis.ch/lottery/contract"
)

// Lottery states, in declaration order.
const (
	LotteryOpen uint64 = iota
	LotteryClosed
	LotteryCalculatingWinner
)

// USDEntryFee is the price of a ticket, in USD with 18 decimals.
var USDEntryFee = new(big.Int).Mul(big.NewInt(50), math.BigPow(10, 18))

var (
	ether        = math.BigPow(10, 18)
	feedDecimals = uint8(18)
)

// LotteryCode is a lottery whose ticket costs a fixed USD amount paid in
// ether at the rate of an ETH/USD price feed. The owner opens and closes
// rounds; closing asks the VRF coordinator for randomness and the answer
// picks the winner, who receives the whole pot.
func LotteryCode() *contract.Code {
	return contract.NewCode(LotteryName, lotteryConstructor,
		view("getEntranceFee", lotteryGetEntranceFee),
		payable("enter", lotteryEnter),
		tx("startLottery", lotteryStart),
		tx("endLottery", lotteryEnd),
		tx("rawFulfillRandomness", lotteryRawFulfillRandomness),
		view("players", lotteryPlayers),
		getter("playersLength", func(s *contract.Storage) (interface{}, error) { return s.Uint64("players.length") }),
		getter("owner", func(s *contract.Storage) (interface{}, error) { return s.Address("owner") }),
		getter("lottery_state", func(s *contract.Storage) (interface{}, error) { return s.Uint64("state") }),
		getter("recentWinner", func(s *contract.Storage) (interface{}, error) { return s.Address("recentWinner") }),
		getter("randomness", func(s *contract.Storage) (interface{}, error) { return s.Big("randomness") }),
		getter("usdEntryFee", func(s *contract.Storage) (interface{}, error) { return s.Big("usdEntryFee") }),
		getter("ethUsdPriceFeed", func(s *contract.Storage) (interface{}, error) { return s.Address("ethUsdPriceFeed") }),
		getter("fee", func(s *contract.Storage) (interface{}, error) { return s.Big("fee") }),
		getter("keyhash", func(s *contract.Storage) (interface{}, error) { return s.Hash("keyhash") }),
	)
}

// constructor(address priceFeed[, address vrfCoordinator, address link, uint256 fee, bytes32 keyhash])
func lotteryConstructor(ctx *contract.Context, args contract.Args) error {
	if len(args) != 1 && len(args) != 5 {
		return contract.Revert("Lottery: expected price feed, optionally followed by vrfCoordinator, link, fee, keyhash")
	}
	s := ctx.Storage()
	priceFeed, err := args.Address(0)
	if err != nil {
		return err
	}
	if err := s.SetAddress("ethUsdPriceFeed", priceFeed); err != nil {
		return err
	}
	if err := s.SetAddress("owner", ctx.Caller()); err != nil {
		return err
	}
	if err := s.SetBig("usdEntryFee", USDEntryFee); err != nil {
		return err
	}
	if err := s.SetUint64("state", LotteryClosed); err != nil {
		return err
	}
	if err := s.SetUint64("players.length", 0); err != nil {
		return err
	}
	if len(args) == 1 {
		return nil
	}

	coordinator, err := args.Address(1)
	if err != nil {
		return err
	}
	link, err := args.Address(2)
	if err != nil {
		return err
	}
	fee, err := args.Big(3)
	if err != nil {
		return err
	}
	keyHash, err := args.Hash(4)
	if err != nil {
		return err
	}
	if err := s.SetAddress("vrfCoordinator", coordinator); err != nil {
		return err
	}
	if err := s.SetAddress("link", link); err != nil {
		return err
	}
	if err := s.SetBig("fee", fee); err != nil {
		return err
	}
	return s.SetHash("keyhash", keyHash)
}

func onlyOwner(ctx *contract.Context) error {
	owner, err := ctx.Storage().Address("owner")
	if err != nil {
		return err
	}
	return contract.Require(ctx.Caller() == owner, "Ownable: caller is not the owner")
}

func requireState(ctx *contract.Context, want uint64, reason string) error {
	state, err := ctx.Storage().Uint64("state")
	if err != nil {
		return err
	}
	return contract.Require(state == want, reason)
}

// entranceFee converts the USD entry fee into wei at the latest feed price.
// The answer is scaled to 18 decimals first, so the division floors once.
func entranceFee(ctx *contract.Context) (*big.Int, error) {
	s := ctx.Storage()
	feed, err := s.Address("ethUsdPriceFeed")
	if err != nil {
		return nil, err
	}
	round, err := ctx.StaticCall(feed, "latestRoundData")
	if err != nil {
		return nil, err
	}
	answer, err := round.Big(1)
	if err != nil {
		return nil, err
	}
	if answer.Sign() <= 0 {
		return nil, contract.Revert("invalid price")
	}
	ret, err := ctx.StaticCall(feed, "decimals")
	if err != nil {
		return nil, err
	}
	decimals, err := ret.Uint8(0)
	if err != nil {
		return nil, err
	}

	adjusted := new(big.Int)
	if decimals <= feedDecimals {
		adjusted.Mul(answer, math.BigPow(10, int64(feedDecimals-decimals)))
	} else {
		adjusted.Quo(answer, math.BigPow(10, int64(decimals-feedDecimals)))
	}
	if adjusted.Sign() == 0 {
		return nil, contract.Revert("invalid price")
	}

	usdEntryFee, err := s.Big("usdEntryFee")
	if err != nil {
		return nil, err
	}
	cost := new(big.Int).Mul(usdEntryFee, ether)
	return cost.Quo(cost, adjusted), nil
}

func lotteryGetEntranceFee(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	fee, err := entranceFee(ctx)
	if err != nil {
		return nil, err
	}
	return contract.Values{fee}, nil
}

func lotteryEnter(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	if err := requireState(ctx, LotteryOpen, "Lottery is not open"); err != nil {
		return nil, err
	}
	fee, err := entranceFee(ctx)
	if err != nil {
		return nil, err
	}
	if err := contract.Require(ctx.Value().Cmp(fee) >= 0, "Not enough ETH!"); err != nil {
		return nil, err
	}
	s := ctx.Storage()
	n, err := s.Uint64("players.length")
	if err != nil {
		return nil, err
	}
	if err := s.SetAddress(indexKey("players", n), ctx.Caller()); err != nil {
		return nil, err
	}
	return nil, s.SetUint64("players.length", n+1)
}

func lotteryStart(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	if err := onlyOwner(ctx); err != nil {
		return nil, err
	}
	if err := requireState(ctx, LotteryClosed, "Can't start a new lottery yet!"); err != nil {
		return nil, err
	}
	return nil, ctx.Storage().SetUint64("state", LotteryOpen)
}

// endLottery() returns (bytes32 requestId)
func lotteryEnd(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	if err := onlyOwner(ctx); err != nil {
		return nil, err
	}
	if err := requireState(ctx, LotteryOpen, "Lottery is not open"); err != nil {
		return nil, err
	}
	s := ctx.Storage()
	coordinator, err := s.Address("vrfCoordinator")
	if err != nil {
		return nil, err
	}
	if err := contract.Require(coordinator != (common.Address{}), "Lottery: no randomness source"); err != nil {
		return nil, err
	}
	link, err := s.Address("link")
	if err != nil {
		return nil, err
	}
	fee, err := s.Big("fee")
	if err != nil {
		return nil, err
	}
	keyHash, err := s.Hash("keyhash")
	if err != nil {
		return nil, err
	}

	ret, err := ctx.StaticCall(link, "balanceOf", ctx.Self())
	if err != nil {
		return nil, err
	}
	linkBalance, err := ret.Big(0)
	if err != nil {
		return nil, err
	}
	if err := contract.Require(linkBalance.Cmp(fee) >= 0, "Not enough LINK"); err != nil {
		return nil, err
	}

	if err := s.SetUint64("state", LotteryCalculatingWinner); err != nil {
		return nil, err
	}
	requestID, err := requestRandomness(ctx, link, coordinator, keyHash, fee)
	if err != nil {
		return nil, err
	}
	if err := ctx.Emit("RequestedRandomness", map[string]interface{}{"requestId": requestID}); err != nil {
		return nil, err
	}
	return contract.Values{requestID}, nil
}

// rawFulfillRandomness(bytes32 requestId, uint256 randomness)
func lotteryRawFulfillRandomness(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	s := ctx.Storage()
	coordinator, err := s.Address("vrfCoordinator")
	if err != nil {
		return nil, err
	}
	if err := contract.Require(ctx.Caller() == coordinator, "Only VRFCoordinator can fulfill"); err != nil {
		return nil, err
	}
	randomness, err := args.Big(1)
	if err != nil {
		return nil, err
	}
	return nil, fulfillRandomness(ctx, randomness)
}

func fulfillRandomness(ctx *contract.Context, randomness *big.Int) error {
	if err := requireState(ctx, LotteryCalculatingWinner, "You aren't there yet!"); err != nil {
		return err
	}
	if err := contract.Require(randomness.Sign() > 0, "random-not-found"); err != nil {
		return err
	}
	s := ctx.Storage()
	n, err := s.Uint64("players.length")
	if err != nil {
		return err
	}
	if err := contract.Require(n > 0, "Lottery: no players"); err != nil {
		return err
	}

	index := new(big.Int).Mod(randomness, new(big.Int).SetUint64(n)).Uint64()
	winner, err := s.Address(indexKey("players", index))
	if err != nil {
		return err
	}
	if err := ctx.Transfer(winner, ctx.SelfBalance()); err != nil {
		return err
	}

	for i := uint64(0); i < n; i++ {
		if err := s.Del(indexKey("players", i)); err != nil {
			return err
		}
	}
	if err := s.SetUint64("players.length", 0); err != nil {
		return err
	}
	if err := s.SetAddress("recentWinner", winner); err != nil {
		return err
	}
	if err := s.SetBig("randomness", randomness); err != nil {
		return err
	}
	return s.SetUint64("state", LotteryClosed)
}

// players(uint256 index) returns (address)
func lotteryPlayers(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	i, err := args.Uint64(0)
	if err != nil {
		return nil, err
	}
	s := ctx.Storage()
	n, err := s.Uint64("players.length")
	if err != nil {
		return nil, err
	}
	if err := contract.Require(i < n, "index out of bounds"); err != nil {
		return nil, err
	}
	player, err := s.Address(indexKey("players", i))
	if err != nil {
		return nil, err
	}
	return contract.Values{player}, nil
}
