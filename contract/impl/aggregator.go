package impl

import (
	"math/big"

	"go.dedis.ch/lottery/contract"
)

// MockV3AggregatorCode is a price feed whose answer is set by anyone. It
// mirrors the Chainlink AggregatorV3Interface.
func MockV3AggregatorCode() *contract.Code {
	return contract.NewCode(MockV3AggregatorName, aggregatorConstructor,
		getter("decimals", func(s *contract.Storage) (interface{}, error) {
			d, err := s.Uint64("decimals")
			return uint8(d), err
		}),
		getter("latestAnswer", func(s *contract.Storage) (interface{}, error) { return s.Big("latestAnswer") }),
		getter("latestTimestamp", func(s *contract.Storage) (interface{}, error) { return s.Uint64("latestTimestamp") }),
		getter("latestRound", func(s *contract.Storage) (interface{}, error) { return s.Uint64("latestRound") }),
		getter("description", func(s *contract.Storage) (interface{}, error) {
			return "v0.6/tests/MockV3Aggregator.sol", nil
		}),
		getter("version", func(s *contract.Storage) (interface{}, error) { return uint64(0), nil }),
		view("latestRoundData", aggregatorLatestRoundData),
		view("getRoundData", aggregatorGetRoundData),
		tx("updateAnswer", aggregatorUpdateAnswer),
		tx("updateRoundData", aggregatorUpdateRoundData),
	)
}

// constructor(uint8 decimals, int256 initialAnswer)
func aggregatorConstructor(ctx *contract.Context, args contract.Args) error {
	decimals, err := args.Uint8(0)
	if err != nil {
		return err
	}
	answer, err := args.Big(1)
	if err != nil {
		return err
	}
	if err := ctx.Storage().SetUint64("decimals", uint64(decimals)); err != nil {
		return err
	}
	return updateAnswer(ctx, answer)
}

func updateAnswer(ctx *contract.Context, answer *big.Int) error {
	s := ctx.Storage()
	round, err := s.Uint64("latestRound")
	if err != nil {
		return err
	}
	round++
	now := ctx.Block().Time
	return writeRound(s, round, answer, now, now)
}

func writeRound(s *contract.Storage, round uint64, answer *big.Int, updatedAt, startedAt uint64) error {
	if err := s.SetBig("latestAnswer", answer); err != nil {
		return err
	}
	if err := s.SetUint64("latestTimestamp", updatedAt); err != nil {
		return err
	}
	if err := s.SetUint64("latestRound", round); err != nil {
		return err
	}
	if err := s.SetBig(indexKey("answer", round), answer); err != nil {
		return err
	}
	if err := s.SetUint64(indexKey("timestamp", round), updatedAt); err != nil {
		return err
	}
	return s.SetUint64(indexKey("startedAt", round), startedAt)
}

// updateAnswer(int256 answer)
func aggregatorUpdateAnswer(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	answer, err := args.Big(0)
	if err != nil {
		return nil, err
	}
	return nil, updateAnswer(ctx, answer)
}

// updateRoundData(uint80 roundId, int256 answer, uint256 timestamp, uint256 startedAt)
func aggregatorUpdateRoundData(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	round, err := args.Uint64(0)
	if err != nil {
		return nil, err
	}
	answer, err := args.Big(1)
	if err != nil {
		return nil, err
	}
	updatedAt, err := args.Uint64(2)
	if err != nil {
		return nil, err
	}
	startedAt, err := args.Uint64(3)
	if err != nil {
		return nil, err
	}
	return nil, writeRound(ctx.Storage(), round, answer, updatedAt, startedAt)
}

func roundData(s *contract.Storage, round uint64) (contract.Values, error) {
	_, ok, err := s.Get(indexKey("answer", round))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, contract.Revert("No data present")
	}
	answer, err := s.Big(indexKey("answer", round))
	if err != nil {
		return nil, err
	}
	startedAt, err := s.Uint64(indexKey("startedAt", round))
	if err != nil {
		return nil, err
	}
	updatedAt, err := s.Uint64(indexKey("timestamp", round))
	if err != nil {
		return nil, err
	}
	// roundId, answer, startedAt, updatedAt, answeredInRound
	return contract.Values{round, answer, startedAt, updatedAt, round}, nil
}

func aggregatorLatestRoundData(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	round, err := ctx.Storage().Uint64("latestRound")
	if err != nil {
		return nil, err
	}
	return roundData(ctx.Storage(), round)
}

// getRoundData(uint80 roundId)
func aggregatorGetRoundData(ctx *contract.Context, args contract.Args) (contract.Values, error) {
	round, err := args.Uint64(0)
	if err != nil {
		return nil, err
	}
	return roundData(ctx.Storage(), round)
}
