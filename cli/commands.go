package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"

	"github.com/urfave/cli/v2"
	"go.dedis.ch/lottery/config"
	"go.dedis.ch/lottery/scripts"
	"go.dedis.ch/lottery/units"
)

var feeCommand = &cli.Command{
	Name:   "fee",
	Usage:  "deploy a lottery and print its entrance fee",
	Action: fee,
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "deploy a lottery, play one round and print the winner",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "players", Value: 3, Usage: "number of accounts entering"},
		&cli.StringFlag{Name: "randomness", Usage: "VRF answer, random when empty"},
		&cli.BoolFlag{Name: "show-chain", Usage: "print the mined blocks"},
	},
	Action: run,
}

const convertUsage = "usage: lottery convert <value> <unit> [--to unit]"

var convertCommand = &cli.Command{
	Name:      "convert",
	Usage:     "convert an amount between ether units",
	ArgsUsage: "<value> <unit> [--to unit]",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "to", Value: "wei", Usage: "target unit"},
	},
	Action: convert,
}

var networksCommand = &cli.Command{
	Name:  "networks",
	Usage: "list the configured networks",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		active := activeNetwork(c, cfg)
		for _, name := range cfg.NetworkNames() {
			mark := " "
			if name == active {
				mark = "*"
			}
			kind := "live"
			if config.IsLocal(name) {
				kind = "local"
			} else if config.IsFork(name) {
				kind = "fork"
			}
			fmt.Fprintf(c.App.Writer, "%s %s (%s)\n", mark, name, kind)
		}
		return nil
	},
}

func newEnv(c *cli.Context) (*scripts.Env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	var opts []scripts.Option
	if dir := c.String(dataDirFlag.Name); dir != "" {
		opts = append(opts, scripts.WithDataDir(dir))
	}
	return scripts.NewNode(cfg, activeNetwork(c, cfg), opts...)
}

func fee(c *cli.Context) error {
	env, err := newEnv(c)
	if err != nil {
		return err
	}
	defer env.Close()

	lottery, err := env.DeployLottery()
	if err != nil {
		return err
	}
	wei, err := lottery.EntranceFee(nil)
	if err != nil {
		return err
	}
	eth, err := units.FromWei(wei, "ether")
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "entrance fee on %s: %s wei (%s ether)\n", env.Network, wei, eth)
	return nil
}

func run(c *cli.Context) error {
	randomness, err := parseRandomness(c.String("randomness"))
	if err != nil {
		return err
	}
	env, err := newEnv(c)
	if err != nil {
		return err
	}
	defer env.Close()

	lottery, err := env.DeployLottery()
	if err != nil {
		return err
	}
	if err := env.StartLottery(lottery); err != nil {
		return err
	}
	if err := env.EnterLotteryN(context.Background(), lottery, c.Int("players")); err != nil {
		return err
	}
	status, err := env.Status(lottery)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, status)

	winner, err := env.EndLottery(lottery, randomness)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "randomness %s picked %s\n", randomness, winner.Hex())
	status, err = env.Status(lottery)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, status)
	if c.Bool("show-chain") {
		fmt.Fprintln(c.App.Writer, env.Node.Chain().Tree())
	}
	return nil
}

func parseRandomness(s string) (*big.Int, error) {
	if s == "" {
		n, err := rand.Int(rand.Reader, new(big.Int).SetUint64(math.MaxUint64))
		if err != nil {
			return nil, err
		}
		return n.Add(n, big.NewInt(1)), nil
	}
	n, ok := new(big.Int).SetString(s, 0)
	if !ok || n.Sign() <= 0 {
		return nil, cli.Exit(fmt.Sprintf("invalid randomness %q", s), 2)
	}
	return n, nil
}

func convert(c *cli.Context) error {
	value, unit, to, err := convertArgs(c)
	if err != nil {
		return err
	}
	wei, err := units.ToWei(value, unit)
	if err != nil {
		return err
	}
	out, err := units.FromWei(wei, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s %s\n", out, to)
	return nil
}

// convertArgs accepts the target unit as --to before the arguments, as a
// trailing "--to unit" pair, or as a third argument
func convertArgs(c *cli.Context) (value, unit, to string, err error) {
	args := c.Args().Slice()
	to = c.String("to")
	switch {
	case len(args) == 4 && (args[2] == "--to" || args[2] == "-to"):
		to = args[3]
	case len(args) == 3:
		to = args[2]
	case len(args) != 2:
		return "", "", "", cli.Exit(convertUsage, 2)
	}
	return args[0], args[1], to, nil
}
