package nameservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"

	"github.com/ruteri/secret-dns/cache"
	"github.com/ruteri/secret-dns/interfaces"
	"github.com/ruteri/secret-dns/metrics"
	"github.com/ruteri/secret-dns/tasks"
)

const (
	registerSignature  = "register(string,string)"
	setTargetSignature = "set_target(string,string,string)"
	resolveSignature   = "resolve(string)"
)

// Config identifies the registry contract and the account calling it.
type Config struct {
	Caller   common.Address
	Contract common.Address
	Tasks    tasks.Config
}

// Client is the caller-facing name registry on top of a backend Connection.
type Client struct {
	conn    *Connection
	codec   interfaces.ArgumentCodec
	cache   *cache.Cache
	cfg     Config
	log     *slog.Logger
	metrics *metrics.Metrics

	resolves singleflight.Group
}

var (
	_ interfaces.NameService  = (*Client)(nil)
	_ interfaces.NameRegistry = (*Client)(nil)
)

func NewClient(conn *Connection, codec interfaces.ArgumentCodec, resolved *cache.Cache, cfg Config, log *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		conn:    conn,
		codec:   codec,
		cache:   resolved,
		cfg:     cfg,
		log:     log,
		metrics: m,
	}
}

// Ready reports whether the backend connection is established.
func (c *Client) Ready() bool {
	return c.conn.Ready()
}

func (c *Client) invoker() (*tasks.Invoker, error) {
	backend, err := c.conn.Backend()
	if err != nil {
		return nil, err
	}
	return tasks.NewInvoker(backend, c.codec, c.cfg.Tasks, c.log, c.metrics), nil
}

// Register reports whether domain was newly registered to owner.
func (c *Client) Register(ctx context.Context, domain, owner string) bool {
	status, err := c.RegisterStatus(ctx, domain, owner)
	if err != nil {
		c.log.Warn("Register failed", slog.String("domain", domain), "err", err)
		return false
	}
	return status == interfaces.StatusNone
}

// SetTarget reports whether owner pointed domain at target.
func (c *Client) SetTarget(ctx context.Context, domain, target, owner string) bool {
	status, err := c.SetTargetStatus(ctx, domain, target, owner)
	if err != nil {
		c.log.Warn("Set target failed", slog.String("domain", domain), "err", err)
		return false
	}
	return status == interfaces.StatusNone
}

// Resolve returns the target of domain, or "" when it has none or the lookup failed.
func (c *Client) Resolve(ctx context.Context, domain string) string {
	target, err := c.ResolveTarget(ctx, domain)
	if err != nil {
		c.log.Warn("Resolve failed", slog.String("domain", domain), "err", err)
		return ""
	}
	return target
}

// RegisterStatus returns the registry's status code for the registration.
// The error is non-nil only when no status code was obtained.
func (c *Client) RegisterStatus(ctx context.Context, domain, owner string) (interfaces.StatusCode, error) {
	invoker, err := c.invoker()
	if err != nil {
		return 0, err
	}

	name, err := NormalizeDomain(domain)
	if err != nil {
		return 0, err
	}

	call := invoker.NewCall(registerSignature, c.cfg.Caller, c.cfg.Contract,
		interfaces.Arg(name, interfaces.TypeString),
		interfaces.Arg(owner, interfaces.TypeString))

	status, err := c.invokeStatus(ctx, invoker, call)
	if err != nil {
		return 0, err
	}

	c.log.Info("Registered domain",
		slog.String("domain", name),
		slog.String("status", status.String()))
	return status, nil
}

// SetTargetStatus returns the registry's status code for the target change.
// A successful change drops the cached resolution of domain.
func (c *Client) SetTargetStatus(ctx context.Context, domain, target, owner string) (interfaces.StatusCode, error) {
	invoker, err := c.invoker()
	if err != nil {
		return 0, err
	}

	name, err := NormalizeDomain(domain)
	if err != nil {
		return 0, err
	}

	call := invoker.NewCall(setTargetSignature, c.cfg.Caller, c.cfg.Contract,
		interfaces.Arg(name, interfaces.TypeString),
		interfaces.Arg(target, interfaces.TypeString),
		interfaces.Arg(owner, interfaces.TypeString))

	status, err := c.invokeStatus(ctx, invoker, call)
	if err != nil {
		return 0, err
	}

	if status == interfaces.StatusNone {
		c.cache.Remove(name)
	}

	c.log.Info("Set domain target",
		slog.String("domain", name),
		slog.String("status", status.String()))
	return status, nil
}

// ResolveTarget returns the target of domain. Cached targets are returned
// without contacting the backend. Concurrent misses for the same domain share
// one remote lookup that is detached from the callers: it runs until the task
// completes or PollTimeout elapses and fills the cache even when every waiting
// caller gave up.
func (c *Client) ResolveTarget(ctx context.Context, domain string) (string, error) {
	invoker, err := c.invoker()
	if err != nil {
		return "", err
	}

	name, err := NormalizeDomain(domain)
	if err != nil {
		return "", err
	}

	if target, ok := c.cache.Get(name); ok {
		return target, nil
	}

	lookup := c.resolves.DoChan(name, func() (any, error) {
		// A flight that finished just before this one may have filled the cache.
		if target, ok := c.cache.Peek(name); ok {
			return target, nil
		}

		lookupCtx := context.WithoutCancel(ctx)
		if timeout := c.cfg.Tasks.PollTimeout; timeout > 0 {
			var cancel context.CancelFunc
			lookupCtx, cancel = context.WithTimeoutCause(lookupCtx, timeout, interfaces.ErrTimeout)
			defer cancel()
		}

		call := invoker.NewCall(resolveSignature, c.cfg.Caller, c.cfg.Contract,
			interfaces.Arg(name, interfaces.TypeString))
		target, err := tasks.Invoke[string](lookupCtx, invoker, call, interfaces.TypeString)
		if err != nil {
			return "", err
		}

		// Unregistered names resolve to "" and may be registered at any moment.
		if target != "" {
			c.cache.Put(name, target)
		}
		return target, nil
	})

	select {
	case <-ctx.Done():
		c.log.Debug("Caller stopped waiting for resolution", slog.String("domain", name), "err", ctx.Err())
		return "", ctx.Err()
	case res := <-lookup:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.log.Debug("Shared resolution", slog.String("domain", name))
		}
		return res.Val.(string), nil
	}
}

func (c *Client) invokeStatus(ctx context.Context, invoker *tasks.Invoker, call *interfaces.RemoteCall) (interfaces.StatusCode, error) {
	code, err := tasks.Invoke[*big.Int](ctx, invoker, call, interfaces.TypeInt256)
	if err != nil {
		return 0, err
	}
	if code == nil || !code.IsInt64() {
		return 0, fmt.Errorf("%w: status code out of range", interfaces.ErrMalformedResult)
	}
	return interfaces.StatusCode(code.Int64()), nil
}

// IsNotReady reports whether err came from an unusable backend connection.
func IsNotReady(err error) bool {
	return errors.Is(err, interfaces.ErrNotReady)
}
