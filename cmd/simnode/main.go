package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/urfave/cli/v2"

	"github.com/ruteri/secret-dns/backend"
	"github.com/ruteri/secret-dns/cmd/flags"
	"github.com/ruteri/secret-dns/common"
)

var flagListenAddr = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:3333",
	Usage: "address to serve the task JSON-RPC API on",
}
var flagConfirmAfter = &cli.IntFlag{
	Name:  "confirm-after",
	Value: 1,
	Usage: "status queries a task stays recorded for before it is confirmed",
}

func main() {
	app := &cli.App{
		Name:    "simnode",
		Usage:   "Run an in-memory task worker with the name registry deployed",
		Version: common.Version,
		Flags: append([]cli.Flag{
			flagListenAddr,
			flagConfirmAfter,
			flags.ContractFlag,
			flags.LogServiceFlagFn("simnode"),
		}, flags.CommonFlags...),
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	contract, err := flags.ParseAddress(cCtx, flags.ContractFlag)
	if err != nil {
		return err
	}

	engine, err := backend.NewSimulatedEngine(logger)
	if err != nil {
		return err
	}
	engine.DeployNameRegistry(contract)
	engine.SetConfirmAfter(cCtx.Int(flagConfirmAfter.Name))

	rpcServer, err := backend.NewRPCServer(engine)
	if err != nil {
		return err
	}
	defer rpcServer.Stop()

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.With(func(next http.Handler) http.Handler {
		return httplogger.LoggingMiddlewareSlog(logger, next)
	}).Handle("/", rpcServer)
	mux.Get("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cCtx.String(flagListenAddr.Name),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting simulated task node",
			slog.String("listenAddress", srv.Addr),
			slog.String("contract", contract.Hex()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("RPC server failed", "err", err)
		}
	}()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
