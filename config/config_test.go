package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/lottery/units"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	fork, err := cfg.Network(MainnetFork)
	require.NoError(t, err)
	feed, err := fork.Address(KeyPriceFeed)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"), feed)
	require.Equal(t, int64(374100000000), fork.Fork.EthUsdPrice)
	require.Equal(t, uint8(8), fork.Fork.Decimals)

	dev, err := cfg.Network(Development)
	require.NoError(t, err)
	fee, err := dev.Fee()
	require.NoError(t, err)
	require.Equal(t, units.MustToWei("0.1", "ether").String(), fee.String())
	_, err = dev.Address(KeyPriceFeed)
	require.Error(t, err)

	_, err = cfg.Network("kovan")
	require.True(t, errors.Is(err, ErrUnknownNetwork))
}

func TestActiveNetwork(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv(EnvNetwork, "")
	require.Equal(t, Development, cfg.ActiveNetwork())

	t.Setenv(EnvNetwork, MainnetFork)
	require.Equal(t, MainnetFork, cfg.ActiveNetwork())
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lottery-config.yaml")
	cfg := DefaultConfig()
	cfg.Wallets.FromKey = "0x01"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Networks.Default, loaded.Networks.Default)
	require.Equal(t, cfg.NetworkNames(), loaded.NetworkNames())
	require.Equal(t, cfg.Networks.Entries[MainnetFork], loaded.Networks.Entries[MainnetFork])
	require.Equal(t, cfg.Dev, loaded.Dev)
	require.Equal(t, "0x01", loaded.Wallets.FromKey)
}

func TestParse(t *testing.T) {
	t.Setenv("LOTTERY_TEST_KEY", "0xabc")
	raw := []byte(`
dev:
  seed: s
  accounts: 2
  balance: 5 ether
wallets:
  from_key: ${LOTTERY_TEST_KEY}
networks:
  default: mainnet-fork-dev
  development:
    fee: 100000000000000000
  mainnet-fork-dev:
    eth_usd_price_feed: "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"
    keyhash: "0xAA77729D3466CA35AE8D28B3BBAC7CC36A5031EFDC430821C02BC31A238AF445"
    fee: 2 ether
    fork:
      eth_usd_price: 200000000000
      decimals: 8
`)
	cfg, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "0xabc", cfg.Wallets.FromKey)
	require.Equal(t, MainnetForkDev, cfg.Networks.Default)
	require.Equal(t, 2, cfg.Dev.Accounts)

	balance, err := cfg.DevBalance()
	require.NoError(t, err)
	require.Equal(t, units.MustToWei("5", "ether").String(), balance.String())

	n, err := cfg.Network(MainnetForkDev)
	require.NoError(t, err)
	keyHash, err := n.KeyHash()
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0xAA77729D3466CA35AE8D28B3BBAC7CC36A5031EFDC430821C02BC31A238AF445"), keyHash)

	dev, err := cfg.Network(Development)
	require.NoError(t, err)
	fee, err := dev.Fee()
	require.NoError(t, err)
	require.Equal(t, "100000000000000000", fee.String())
}

func TestValidateErrors(t *testing.T) {
	cases := map[string]string{
		"unknown default": "networks:\n  default: rinkeby\n",
		"bad address":     "networks:\n  mainnet-fork:\n    eth_usd_price_feed: 0x12\n",
		"missing feed":    "networks:\n  rinkeby:\n    fee: 1 ether\n",
		"bad fee":         "networks:\n  development:\n    fee: lots\n",
		"bad keyhash":     "networks:\n  development:\n    keyhash: 0x1234\n",
		"bad balance":     "dev:\n  balance: 1 parsec\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			require.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestNetworkKinds(t *testing.T) {
	require.True(t, IsLocal(Development))
	require.True(t, IsLocal(GanacheLocal))
	require.False(t, IsLocal(MainnetFork))
	require.True(t, IsFork(MainnetFork))
	require.True(t, IsFork(MainnetForkDev))
	require.False(t, IsFork("rinkeby"))
}
