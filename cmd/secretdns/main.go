package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/ruteri/secret-dns/abicodec"
	"github.com/ruteri/secret-dns/backend"
	"github.com/ruteri/secret-dns/cache"
	"github.com/ruteri/secret-dns/cmd/flags"
	"github.com/ruteri/secret-dns/common"
	"github.com/ruteri/secret-dns/cryptoutils"
	"github.com/ruteri/secret-dns/dnsserver"
	"github.com/ruteri/secret-dns/httpserver"
	"github.com/ruteri/secret-dns/interfaces"
	"github.com/ruteri/secret-dns/metrics"
	"github.com/ruteri/secret-dns/nameservice"
	"github.com/ruteri/secret-dns/storage"
)

func main() {
	appFlags := []cli.Flag{flags.ListenAddrFlag, flags.LogServiceFlagFn("secretdns")}
	appFlags = append(appFlags, flags.BackendFlags...)
	appFlags = append(appFlags, flags.CacheFlags...)
	appFlags = append(appFlags, flags.DNSFlags...)
	appFlags = append(appFlags, flags.ServerFlags...)
	appFlags = append(appFlags, flags.CommonFlags...)

	app := &cli.App{
		Name:    "secretdns",
		Usage:   "Serve the .enigma name registry over HTTP and DNS",
		Version: common.Version,
		Flags:   appFlags,
		Action:  run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	taskCfg, err := flags.TaskConfig(cCtx)
	if err != nil {
		return err
	}
	contract, err := flags.ParseAddress(cCtx, flags.ContractFlag)
	if err != nil {
		return err
	}
	caller, err := flags.ParseAddress(cCtx, flags.CallerFlag)
	if err != nil {
		return err
	}

	taskKey, err := loadTaskKey(cCtx.String(flags.TaskKeySeedFlag.Name), logger)
	if err != nil {
		return err
	}
	if cCtx.String(flags.CallerFlag.Name) == "" {
		caller = crypto.PubkeyToAddress(taskKey.PublicKey)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNewMetrics(common.PackageName, reg)

	resolved := cache.New(flags.CacheConfig(cCtx), m)
	snapshots, err := openSnapshots(cCtx, resolved, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	codec := abicodec.New()
	rpcAddr := cCtx.String(flags.RpcAddrFlag.Name)

	conn := nameservice.NewConnection(logger)
	conn.Connect(ctx, func(ctx context.Context) (interfaces.TaskBackend, error) {
		client, err := backend.Dial(ctx, rpcAddr, taskKey, codec, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	})
	defer conn.Close()

	client := nameservice.NewClient(conn, codec, resolved, nameservice.Config{
		Caller:   caller,
		Contract: contract,
		Tasks:    taskCfg,
	}, logger, m)

	logger.Info("Starting secretdns",
		slog.String("backend", rpcAddr),
		slog.String("contract", contract.Hex()),
		slog.String("caller", caller.Hex()))

	serverCfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flags.ListenAddrFlag.Name))
	serverCfg.MetricsGatherer = reg
	srv := httpserver.New(serverCfg, httpserver.NewHandler(client, logger), client)
	srv.RunInBackground()

	var dnsSrv *dnsserver.Server
	if dnsCfg := flags.DNSConfig(cCtx); dnsCfg.ListenAddr != "" {
		dnsSrv = dnsserver.New(dnsCfg, client, logger, m)
		go func() {
			if err := dnsSrv.ListenAndServe(); err != nil {
				logger.Error("DNS server failed", "err", err)
			}
		}()
	}

	if snapshots != nil {
		go snapshots.run(ctx, cCtx.Duration(flags.SnapshotIntervalFlag.Name))
	}

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	// A failed dial is terminal for the connection; stop instead of serving 503s forever.
	go func() {
		if err := conn.Wait(ctx); err != nil && ctx.Err() == nil {
			select {
			case exit <- syscall.SIGTERM:
			default:
			}
		}
	}()
	<-exit

	if dnsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverCfg.GracefulShutdownDuration)
		if err := dnsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful DNS server shutdown failed", "err", err)
		}
		shutdownCancel()
	}
	srv.Shutdown()
	cancel()

	if snapshots != nil {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer saveCancel()
		snapshots.save(saveCtx)
	}
	return nil
}

func loadTaskKey(seed string, logger *slog.Logger) (*ecdsa.PrivateKey, error) {
	if seed == "" {
		logger.Warn("No task key seed configured, using an ephemeral task key")
		return cryptoutils.GenerateTaskKey()
	}
	return cryptoutils.DeriveTaskKey([]byte(seed))
}

// snapshotter keeps the resolution cache in a SnapshotStore.
type snapshotter struct {
	store interfaces.SnapshotStore
	cache *cache.Cache
	log   *slog.Logger
}

func openSnapshots(cCtx *cli.Context, resolved *cache.Cache, logger *slog.Logger) (*snapshotter, error) {
	uri := cCtx.String(flags.SnapshotURIFlag.Name)
	if uri == "" {
		return nil, nil
	}

	store, err := storage.NewSnapshotStoreFor(uri, logger)
	if err != nil {
		return nil, fmt.Errorf("could not open snapshot store: %w", err)
	}

	s := &snapshotter{store: store, cache: resolved, log: logger.With("snapshots", store.LocationURI())}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := store.Load(ctx)
	switch {
	case errors.Is(err, interfaces.ErrSnapshotNotFound):
		s.log.Info("No cache snapshot yet")
	case err != nil:
		s.log.Warn("Could not load cache snapshot, starting cold", "err", err)
	default:
		n, err := resolved.UnmarshalSnapshot(data)
		if err != nil {
			s.log.Warn("Ignoring unreadable cache snapshot", "err", err)
		} else {
			s.log.Info("Loaded cache snapshot", slog.Int("entries", n))
		}
	}
	return s, nil
}

func (s *snapshotter) run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.save(ctx)
		}
	}
}

func (s *snapshotter) save(ctx context.Context) {
	data, err := s.cache.MarshalSnapshot()
	if err != nil {
		s.log.Error("Could not encode cache snapshot", "err", err)
		return
	}
	if err := s.store.Save(ctx, data); err != nil {
		s.log.Error("Could not save cache snapshot", "err", err)
		return
	}
	s.log.Debug("Saved cache snapshot", slog.Int("entries", s.cache.Len()))
}
