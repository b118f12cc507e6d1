package clients

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/secret-dns/httpserver"
	"github.com/ruteri/secret-dns/interfaces"
)

func setupClient(t *testing.T) (*NameServiceClient, *MockNameService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := new(MockNameService)
	srv := httpserver.New(&httpserver.HTTPServerConfig{Log: logger}, httpserver.NewHandler(registry, logger), registry)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return NewNameServiceClient(ts.URL+"/", 5*time.Second, logger), registry
}

func TestNameServiceClient(t *testing.T) {
	ctx := context.Background()
	client, registry := setupClient(t)
	registry.On("Ready").Return(true)

	registry.On("RegisterStatus", mock.Anything, "testdomain123", "testusername").Return(interfaces.StatusNone, nil).Once()
	registry.On("RegisterStatus", mock.Anything, "testdomain123", "testusername").Return(interfaces.StatusAlreadyRegistered, nil).Once()
	registry.On("SetTargetStatus", mock.Anything, "testdomain123", "1.1.1.1", "testusername").Return(interfaces.StatusNone, nil)
	registry.On("SetTargetStatus", mock.Anything, "testdomain123", "1.1.1.3", "userB").Return(interfaces.StatusUnauthorized, nil)
	registry.On("ResolveTarget", mock.Anything, "testdomain123").Return("1.1.1.1", nil)
	registry.On("ResolveTarget", mock.Anything, "nobody").Return("", nil)

	assert.True(t, client.Ready())
	assert.True(t, client.Register(ctx, "testdomain123", "testusername"))

	status, err := client.RegisterStatus(ctx, "testdomain123", "testusername")
	require.NoError(t, err)
	assert.Equal(t, interfaces.StatusAlreadyRegistered, status)

	assert.True(t, client.SetTarget(ctx, "testdomain123", "1.1.1.1", "testusername"))
	assert.False(t, client.SetTarget(ctx, "testdomain123", "1.1.1.3", "userB"))
	assert.Equal(t, "1.1.1.1", client.Resolve(ctx, "testdomain123"))

	target, err := client.ResolveTarget(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, target)
}

func TestNameServiceClient_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("not ready", func(t *testing.T) {
		client, registry := setupClient(t)
		registry.On("Ready").Return(false)

		assert.False(t, client.Ready())
		_, err := client.ResolveTarget(ctx, "anything")
		assert.ErrorIs(t, err, interfaces.ErrNotReady)
		assert.Equal(t, "", client.Resolve(ctx, "anything"))
	})

	t.Run("timeout", func(t *testing.T) {
		client, registry := setupClient(t)
		registry.On("Ready").Return(true)
		registry.On("RegisterStatus", mock.Anything, "slow", "owner").Return(interfaces.StatusCode(0), interfaces.ErrTimeout)

		_, err := client.RegisterStatus(ctx, "slow", "owner")
		assert.ErrorIs(t, err, interfaces.ErrTimeout)

		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusGatewayTimeout, httpErr.StatusCode)
		assert.False(t, client.Register(ctx, "slow", "owner"))
	})

	t.Run("unreachable server", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		client := NewNameServiceClient("http://127.0.0.1:1", time.Second, logger)
		assert.False(t, client.Ready())
		_, err := client.ResolveTarget(ctx, "anything")
		assert.Error(t, err)
	})
}
