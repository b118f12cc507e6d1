package flags

import (
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/ruteri/secret-dns/cache"
	sdcommon "github.com/ruteri/secret-dns/common"
	"github.com/ruteri/secret-dns/dnsserver"
	"github.com/ruteri/secret-dns/httpserver"
	"github.com/ruteri/secret-dns/tasks"
)

// DefaultContract is the name registry deployment used by the development network.
const DefaultContract = "0x88987af7d35eabcad95915b93bfd3d2bc3308f06"

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := sdcommon.SetupLogger(&sdcommon.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: sdcommon.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *httpserver.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &httpserver.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		// A request may wait for a whole task confirmation.
		WriteTimeout: 3 * time.Minute,
	}
}

// TaskConfig reads the task lifecycle flags on top of tasks.DefaultConfig.
func TaskConfig(cCtx *cli.Context) (tasks.Config, error) {
	cfg := tasks.DefaultConfig()
	cfg.SubmitAttempts = cCtx.Int(SubmitAttemptsFlag.Name)
	cfg.SubmitBackoff = cCtx.Duration(SubmitBackoffFlag.Name)
	cfg.PollInterval = cCtx.Duration(PollIntervalFlag.Name)
	cfg.PollTimeout = cCtx.Duration(PollTimeoutFlag.Name)
	cfg.MaxPolls = cCtx.Int(MaxPollsFlag.Name)
	cfg.ResourceLimit = cCtx.Uint64(ResourceLimitFlag.Name)

	price, ok := new(big.Int).SetString(cCtx.String(ResourcePriceFlag.Name), 10)
	if !ok || price.Sign() <= 0 {
		return cfg, fmt.Errorf("invalid --%s: %q", ResourcePriceFlag.Name, cCtx.String(ResourcePriceFlag.Name))
	}
	cfg.ResourcePrice = price

	if cfg.SubmitAttempts < 1 {
		return cfg, fmt.Errorf("--%s must be at least 1", SubmitAttemptsFlag.Name)
	}
	return cfg, nil
}

func CacheConfig(cCtx *cli.Context) cache.Config {
	return cache.Config{
		MaxEntries: cCtx.Int(CacheSizeFlag.Name),
		TTL:        cCtx.Duration(CacheTTLFlag.Name),
	}
}

func DNSConfig(cCtx *cli.Context) dnsserver.Config {
	cfg := dnsserver.DefaultConfig()
	cfg.ListenAddr = cCtx.String(DNSAddrFlag.Name)
	cfg.Zone = cCtx.String(DNSZoneFlag.Name)
	cfg.TTL = uint32(cCtx.Uint(DNSTTLFlag.Name))
	return cfg
}

// ParseAddress accepts a hex address with or without the 0x prefix.
func ParseAddress(cCtx *cli.Context, flag *cli.StringFlag) (common.Address, error) {
	value := cCtx.String(flag.Name)
	if value == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid --%s: %q is not a hex address", flag.Name, value)
	}
	return common.HexToAddress(value), nil
}

var ListenAddrFlag = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:8080",
	Usage:   "address to listen on for API",
	EnvVars: []string{"SECRETDNS_LISTEN_ADDR"},
}

var RpcAddrFlag = &cli.StringFlag{
	Name:    "rpc-addr",
	Value:   "http://127.0.0.1:3333",
	Usage:   "task backend JSON-RPC endpoint (http, ws or ipc)",
	EnvVars: []string{"SECRETDNS_RPC_ADDR"},
}

var ContractFlag = &cli.StringFlag{
	Name:    "contract",
	Value:   DefaultContract,
	Usage:   "name registry secret contract address",
	EnvVars: []string{"SECRETDNS_CONTRACT"},
}

var CallerFlag = &cli.StringFlag{
	Name:    "caller",
	Usage:   "account submitting tasks; defaults to the address of the task key",
	EnvVars: []string{"SECRETDNS_CALLER"},
}

var TaskKeySeedFlag = &cli.StringFlag{
	Name:    "task-key-seed",
	Usage:   "seed the task key is derived from; a random key is used when empty",
	EnvVars: []string{"SECRETDNS_TASK_KEY_SEED"},
}

var SubmitAttemptsFlag = &cli.IntFlag{
	Name:  "submit-attempts",
	Value: 3,
	Usage: "task submission attempts before giving up",
}
var SubmitBackoffFlag = &cli.DurationFlag{
	Name:  "submit-backoff",
	Value: 0,
	Usage: "pause between task submission attempts",
}
var PollIntervalFlag = &cli.DurationFlag{
	Name:  "poll-interval",
	Value: time.Second,
	Usage: "pause between task status queries",
}
var PollTimeoutFlag = &cli.DurationFlag{
	Name:  "poll-timeout",
	Value: 2 * time.Minute,
	Usage: "maximum wait for task confirmation, 0 to wait forever",
}
var MaxPollsFlag = &cli.IntFlag{
	Name:  "max-polls",
	Value: 0,
	Usage: "maximum task status queries, 0 for no limit",
}
var ResourceLimitFlag = &cli.Uint64Flag{
	Name:  "resource-limit",
	Value: 90_000_000,
	Usage: "compute units a task may spend",
}
var ResourcePriceFlag = &cli.StringFlag{
	Name:  "resource-price",
	Value: "10000",
	Usage: "price per compute unit in grains",
}

var CacheSizeFlag = &cli.IntFlag{
	Name:  "cache-size",
	Value: 0,
	Usage: "maximum cached resolutions, 0 for no limit",
}
var CacheTTLFlag = &cli.DurationFlag{
	Name:  "cache-ttl",
	Value: 0,
	Usage: "lifetime of cached resolutions, 0 to keep them until the target changes",
}

var SnapshotURIFlag = &cli.StringFlag{
	Name:    "snapshot-uri",
	Usage:   "where resolution cache snapshots are kept (file:///path or s3://bucket/key, comma separated), empty to disable",
	EnvVars: []string{"SECRETDNS_SNAPSHOT_URI"},
}
var SnapshotIntervalFlag = &cli.DurationFlag{
	Name:  "snapshot-interval",
	Value: 5 * time.Minute,
	Usage: "how often the resolution cache is saved, 0 to save only on shutdown",
}

var DNSAddrFlag = &cli.StringFlag{
	Name:  "dns-addr",
	Value: "127.0.0.1:5353",
	Usage: "address to answer DNS queries on (udp and tcp), empty to disable",
}
var DNSZoneFlag = &cli.StringFlag{
	Name:  "dns-zone",
	Value: "enigma.",
	Usage: "zone the DNS server is authoritative for",
}
var DNSTTLFlag = &cli.UintFlag{
	Name:  "dns-ttl",
	Value: 60,
	Usage: "TTL of DNS answers in seconds",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait for load balancers after draining on shutdown",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics, empty to disable",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
}

var ServerFlags = []cli.Flag{
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}

var BackendFlags = []cli.Flag{
	RpcAddrFlag,
	ContractFlag,
	CallerFlag,
	TaskKeySeedFlag,
	SubmitAttemptsFlag,
	SubmitBackoffFlag,
	PollIntervalFlag,
	PollTimeoutFlag,
	MaxPollsFlag,
	ResourceLimitFlag,
	ResourcePriceFlag,
}

var CacheFlags = []cli.Flag{
	CacheSizeFlag,
	CacheTTLFlag,
	SnapshotURIFlag,
	SnapshotIntervalFlag,
}

var DNSFlags = []cli.Flag{
	DNSAddrFlag,
	DNSZoneFlag,
	DNSTTLFlag,
}
