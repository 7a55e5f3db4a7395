package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.dedis.ch/lottery/config"
	"go.dedis.ch/lottery/logging"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML configuration file, built-in defaults when empty",
		EnvVars: []string{"LOTTERY_CONFIG"},
	}
	networkFlag = &cli.StringFlag{
		Name:    "network",
		Aliases: []string{"n"},
		Usage:   "network to use, overrides $" + config.EnvNetwork + " and networks.default",
	}
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "directory of the chain db, in memory when empty",
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Value: "info",
		Usage: "log level (trace, debug, info, warn, error)",
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lottery",
		Usage: "deploy and run the entrance-fee lottery on a local dev chain",
		Flags: []cli.Flag{configFlag, networkFlag, dataDirFlag, verbosityFlag},
		Before: func(c *cli.Context) error {
			return logging.SetLevel(c.String(verbosityFlag.Name))
		},
		Commands: []*cli.Command{feeCommand, runCommand, convertCommand, networksCommand},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String(configFlag.Name)
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(path)
}

func activeNetwork(c *cli.Context, cfg *config.Config) string {
	if name := c.String(networkFlag.Name); name != "" {
		return name
	}
	return cfg.ActiveNetwork()
}
