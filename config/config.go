// Package config reads the lottery configuration: which networks exist,
// where their contracts live and how the dev chain is set up.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"regexp"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/lottery/units"
	"gopkg.in/yaml.v3"
)

// EnvNetwork overrides networks.default
const EnvNetwork = "LOTTERY_NETWORK"

const (
	Development    = "development"
	GanacheLocal   = "ganache-local"
	MainnetFork    = "mainnet-fork"
	MainnetForkDev = "mainnet-fork-dev"
)

// Keys accepted by NetworkConfig.Address
const (
	KeyPriceFeed      = "eth_usd_price_feed"
	KeyVRFCoordinator = "vrf_coordinator"
	KeyLinkToken      = "link_token"
)

var (
	ErrUnknownNetwork = errors.New("unknown network")
	ErrInvalidConfig  = errors.New("invalid config")
)

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

type Config struct {
	Dev      DevConfig `yaml:"dev"`
	Wallets  Wallets   `yaml:"wallets"`
	Networks Networks  `yaml:"networks"`
}

// DevConfig sets up the in-process chain
type DevConfig struct {
	Seed       string `yaml:"seed"`
	Accounts   int    `yaml:"accounts"`
	Balance    string `yaml:"balance"` // per account, e.g. "100 ether"
	Difficulty uint64 `yaml:"difficulty"`
}

type Wallets struct {
	FromKey string `yaml:"from_key,omitempty"`
}

type Networks struct {
	Default string                    `yaml:"default"`
	Entries map[string]*NetworkConfig `yaml:",inline"`
}

type NetworkConfig struct {
	EthUsdPriceFeed string      `yaml:"eth_usd_price_feed,omitempty"`
	VRFCoordinator  string      `yaml:"vrf_coordinator,omitempty"`
	LinkToken       string      `yaml:"link_token,omitempty"`
	KeyHashHex      string      `yaml:"keyhash,omitempty"`
	FeeAmount       string      `yaml:"fee,omitempty"`
	Verify          bool        `yaml:"verify"`
	Fork            *ForkConfig `yaml:"fork,omitempty"`
}

// ForkConfig is the snapshot of the forked network the dev chain starts from
type ForkConfig struct {
	EthUsdPrice int64 `yaml:"eth_usd_price"` // feed answer, scaled by Decimals
	Decimals    uint8 `yaml:"decimals"`
}

// DefaultConfig has a development network backed by mocks and a
// mainnet-fork network whose feed reports 3741.00 USD
func DefaultConfig() *Config {
	return &Config{
		Dev: DevConfig{
			Seed:       "lottery",
			Accounts:   10,
			Balance:    "100 ether",
			Difficulty: 1,
		},
		Networks: Networks{
			Default: Development,
			Entries: map[string]*NetworkConfig{
				Development: {
					KeyHashHex: "0x2ed0feb3e7fd2022120aa84fab1945545a9f2ffc9076fd6156fa96eaff4c1311",
					FeeAmount:  "0.1 ether",
				},
				MainnetFork: {
					EthUsdPriceFeed: "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419",
					VRFCoordinator:  "0xf0d54349aDdcf704F77AE15b96510dEA15cb7952",
					LinkToken:       "0x514910771AF9Ca656af840dff83E8264EcF986CA",
					KeyHashHex:      "0xAA77729D3466CA35AE8D28B3BBAC7CC36A5031EFDC430821C02BC31A238AF445",
					FeeAmount:       "2 ether",
					Fork:            &ForkConfig{EthUsdPrice: 374100000000, Decimals: 8},
				},
			},
		},
	}
}

// Load reads the YAML file at path, expanding ${VAR} references from the
// environment first
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	expanded := envRef.ReplaceAllFunc(raw, func(ref []byte) []byte {
		name := envRef.FindSubmatch(ref)[1]
		return []byte(os.Getenv(string(name)))
	})
	cfg := &Config{}
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// ActiveNetwork is $LOTTERY_NETWORK, else networks.default
func (c *Config) ActiveNetwork() string {
	if name := os.Getenv(EnvNetwork); name != "" {
		return name
	}
	if c.Networks.Default != "" {
		return c.Networks.Default
	}
	return Development
}

func (c *Config) Network(name string) (*NetworkConfig, error) {
	n, ok := c.Networks.Entries[name]
	if !ok || n == nil {
		return nil, fmt.Errorf("%w: %q, known: %v", ErrUnknownNetwork, name, c.NetworkNames())
	}
	return n, nil
}

func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks.Entries))
	for name := range c.Networks.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DevBalance is the genesis balance of each dev account, in wei
func (c *Config) DevBalance() (*big.Int, error) {
	if c.Dev.Balance == "" {
		return units.ToWei("100", "ether")
	}
	return units.Parse(c.Dev.Balance)
}

func (c *Config) Validate() error {
	if c.Networks.Default != "" {
		if _, err := c.Network(c.Networks.Default); err != nil {
			return fmt.Errorf("%w: default network: %v", ErrInvalidConfig, err)
		}
	}
	if c.Dev.Accounts < 0 {
		return fmt.Errorf("%w: dev.accounts=%d", ErrInvalidConfig, c.Dev.Accounts)
	}
	if _, err := c.DevBalance(); err != nil {
		return fmt.Errorf("%w: dev.balance: %v", ErrInvalidConfig, err)
	}
	for _, name := range c.NetworkNames() {
		if err := c.Networks.Entries[name].validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (n *NetworkConfig) validate(name string) error {
	for _, key := range []string{KeyPriceFeed, KeyVRFCoordinator, KeyLinkToken} {
		if n.raw(key) == "" {
			continue
		}
		if _, err := n.Address(key); err != nil {
			return fmt.Errorf("%w: networks.%s: %v", ErrInvalidConfig, name, err)
		}
	}
	if !IsLocal(name) && n.EthUsdPriceFeed == "" {
		return fmt.Errorf("%w: networks.%s: %s is required", ErrInvalidConfig, name, KeyPriceFeed)
	}
	if n.KeyHashHex != "" {
		if _, err := n.KeyHash(); err != nil {
			return fmt.Errorf("%w: networks.%s: %v", ErrInvalidConfig, name, err)
		}
	}
	if n.FeeAmount != "" {
		if _, err := n.Fee(); err != nil {
			return fmt.Errorf("%w: networks.%s: %v", ErrInvalidConfig, name, err)
		}
	}
	return nil
}

func (n *NetworkConfig) raw(key string) string {
	switch key {
	case KeyPriceFeed:
		return n.EthUsdPriceFeed
	case KeyVRFCoordinator:
		return n.VRFCoordinator
	case KeyLinkToken:
		return n.LinkToken
	}
	return ""
}

// Address decodes one of the contract addresses of the network
func (n *NetworkConfig) Address(key string) (common.Address, error) {
	raw := n.raw(key)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: %q is not an address", key, raw)
	}
	return common.HexToAddress(raw), nil
}

// Fee is the LINK paid per randomness request, in its smallest unit
func (n *NetworkConfig) Fee() (*big.Int, error) {
	if n.FeeAmount == "" {
		return new(big.Int), nil
	}
	fee, err := units.Parse(n.FeeAmount)
	if err != nil {
		return nil, fmt.Errorf("fee: %w", err)
	}
	return fee, nil
}

func (n *NetworkConfig) KeyHash() (common.Hash, error) {
	raw, err := decodeHex(n.KeyHashHex)
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("keyhash: %q is not a 32 bytes hex string", n.KeyHashHex)
	}
	return common.BytesToHash(raw), nil
}

// IsLocal tells whether contracts of the network are mocks deployed on demand
func IsLocal(name string) bool {
	return name == Development || name == GanacheLocal
}

// IsFork tells whether the network is a local snapshot of a live one
func IsFork(name string) bool {
	return name == MainnetFork || name == MainnetForkDev
}
