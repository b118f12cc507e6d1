package flags

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// runWith parses args against the given flags and hands the context to fn.
func runWith(t *testing.T, appFlags []cli.Flag, args []string, fn func(cCtx *cli.Context) error) error {
	t.Helper()
	app := &cli.App{
		Name:   "test",
		Flags:  appFlags,
		Action: fn,
	}
	return app.Run(append([]string{"test"}, args...))
}

func TestTaskConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		err := runWith(t, BackendFlags, nil, func(cCtx *cli.Context) error {
			cfg, err := TaskConfig(cCtx)
			require.NoError(t, err)
			assert.Equal(t, 3, cfg.SubmitAttempts)
			assert.Equal(t, time.Second, cfg.PollInterval)
			assert.Equal(t, 2*time.Minute, cfg.PollTimeout)
			assert.Equal(t, big.NewInt(10_000), cfg.ResourcePrice)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("overrides", func(t *testing.T) {
		args := []string{"--submit-attempts", "5", "--submit-backoff", "250ms", "--max-polls", "10", "--resource-price", "42"}
		err := runWith(t, BackendFlags, args, func(cCtx *cli.Context) error {
			cfg, err := TaskConfig(cCtx)
			require.NoError(t, err)
			assert.Equal(t, 5, cfg.SubmitAttempts)
			assert.Equal(t, 250*time.Millisecond, cfg.SubmitBackoff)
			assert.Equal(t, 10, cfg.MaxPolls)
			assert.Equal(t, big.NewInt(42), cfg.ResourcePrice)
			return nil
		})
		require.NoError(t, err)
	})

	for _, args := range [][]string{
		{"--resource-price", "cheap"},
		{"--resource-price", "0"},
		{"--submit-attempts", "0"},
	} {
		err := runWith(t, BackendFlags, args, func(cCtx *cli.Context) error {
			_, err := TaskConfig(cCtx)
			return err
		})
		assert.Error(t, err, args)
	}
}

func TestParseAddress(t *testing.T) {
	err := runWith(t, BackendFlags, nil, func(cCtx *cli.Context) error {
		contract, err := ParseAddress(cCtx, ContractFlag)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(DefaultContract), contract)

		caller, err := ParseAddress(cCtx, CallerFlag)
		require.NoError(t, err)
		assert.Equal(t, common.Address{}, caller)
		return nil
	})
	require.NoError(t, err)

	err = runWith(t, BackendFlags, []string{"--contract", "not-an-address"}, func(cCtx *cli.Context) error {
		_, err := ParseAddress(cCtx, ContractFlag)
		return err
	})
	assert.Error(t, err)
}

func TestDNSAndCacheConfig(t *testing.T) {
	args := []string{"--dns-zone", "example.", "--dns-ttl", "5", "--cache-size", "100", "--cache-ttl", "1m"}
	err := runWith(t, append(DNSFlags, CacheFlags...), args, func(cCtx *cli.Context) error {
		dnsCfg := DNSConfig(cCtx)
		assert.Equal(t, "example.", dnsCfg.Zone)
		assert.Equal(t, uint32(5), dnsCfg.TTL)
		assert.Equal(t, "127.0.0.1:5353", dnsCfg.ListenAddr)

		cacheCfg := CacheConfig(cCtx)
		assert.Equal(t, 100, cacheCfg.MaxEntries)
		assert.Equal(t, time.Minute, cacheCfg.TTL)
		return nil
	})
	require.NoError(t, err)
}
