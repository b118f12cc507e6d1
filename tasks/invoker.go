package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/secret-dns/interfaces"
	"github.com/ruteri/secret-dns/metrics"
)

// Invoker runs the whole submit, confirm and decode cycle for one call.
type Invoker struct {
	submitter *Submitter
	poller    *Poller
	decoder   *Decoder
	cfg       Config
	log       *slog.Logger
	metrics   *metrics.Metrics
}

func NewInvoker(backend interfaces.TaskBackend, codec interfaces.ArgumentCodec, cfg Config, log *slog.Logger, m *metrics.Metrics) *Invoker {
	return &Invoker{
		submitter: NewSubmitter(backend, cfg, log, m),
		poller:    NewPoller(backend, cfg, log, m),
		decoder:   NewDecoder(backend, codec, log),
		cfg:       cfg,
		log:       log,
		metrics:   m,
	}
}

// NewCall builds a call carrying the configured resource budget.
func (i *Invoker) NewCall(signature string, caller, target common.Address, args ...interfaces.TypedArg) *interfaces.RemoteCall {
	return interfaces.NewRemoteCall(signature, args, i.cfg.ResourceLimit, i.cfg.ResourcePrice, caller, target)
}

// Invoke submits call, waits for confirmation and decodes the output as returnType.
func (i *Invoker) Invoke(ctx context.Context, call *interfaces.RemoteCall, returnType interfaces.TypeTag) (value any, err error) {
	start := time.Now()
	function := call.FunctionName()
	defer func() {
		i.metrics.Invocation(function, outcomeLabel(err), time.Since(start))
	}()

	handle, err := i.submitter.Submit(ctx, call)
	if err != nil {
		return nil, err
	}

	handle, err = i.poller.AwaitConfirmation(ctx, handle)
	if err != nil {
		return nil, err
	}

	value, err = i.decoder.FetchAndDecode(ctx, handle, returnType)
	if err != nil {
		return nil, err
	}

	i.log.Debug("Task completed",
		slog.String("function", function),
		slog.String("task", handle.ID.Hex()),
		slog.Duration("duration", time.Since(start)))
	return value, nil
}

// Invoke is the typed form of Invoker.Invoke.
func Invoke[T any](ctx context.Context, i *Invoker, call *interfaces.RemoteCall, returnType interfaces.TypeTag) (T, error) {
	var zero T
	value, err := i.Invoke(ctx, call, returnType)
	if err != nil {
		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", interfaces.ErrMalformedResult, call.Signature, value)
	}
	return typed, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, interfaces.ErrSubmission):
		return "submission_error"
	case errors.Is(err, interfaces.ErrTimeout):
		return "timeout"
	case errors.Is(err, interfaces.ErrChain):
		return "chain_error"
	case errors.Is(err, interfaces.ErrExecutionFailed):
		return "execution_failed"
	case errors.Is(err, interfaces.ErrDecode):
		return "decode_error"
	default:
		return "error"
	}
}
