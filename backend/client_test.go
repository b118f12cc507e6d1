package backend

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/secret-dns/abicodec"
	"github.com/ruteri/secret-dns/cryptoutils"
	"github.com/ruteri/secret-dns/interfaces"
)

var testContract = common.HexToAddress("0x88987af7d35eabcad95915b93bfd3d2bc3308f06")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupEngine(t *testing.T) *SimulatedEngine {
	t.Helper()
	engine, err := NewSimulatedEngine(testLogger())
	require.NoError(t, err)
	engine.DeployNameRegistry(testContract)
	return engine
}

func newTestClient(t *testing.T, transport Transport) *Client {
	t.Helper()
	taskKey, err := cryptoutils.DeriveTaskKey([]byte("cupcake"))
	require.NoError(t, err)

	client, err := NewClient(context.Background(), transport, taskKey, abicodec.New(), testLogger())
	require.NoError(t, err)
	return client
}

func registerCall(domain, owner string) *interfaces.RemoteCall {
	return interfaces.NewRemoteCall("register(string,string)", []interfaces.TypedArg{
		interfaces.Arg(domain, interfaces.TypeString),
		interfaces.Arg(owner, interfaces.TypeString),
	}, 90_000_000, big.NewInt(10_000), common.Address{0x01}, testContract)
}

// runTask drives a task through the raw backend API without the poller.
func runTask(t *testing.T, client *Client, call *interfaces.RemoteCall) *interfaces.TaskResult {
	t.Helper()
	ctx := context.Background()

	handle, err := client.SubmitCall(ctx, call)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ChainStatusRecorded, handle.ChainStatus)

	handle, err = client.GetStatus(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ChainStatusRecorded, handle.ChainStatus)

	handle, err = client.GetStatus(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ChainStatusConfirmed, handle.ChainStatus)

	result, err := client.GetResult(ctx, handle)
	require.NoError(t, err)
	return result
}

func decodeStatus(t *testing.T, client *Client, result *interfaces.TaskResult) int64 {
	t.Helper()
	plaintext, err := client.Decrypt(context.Background(), result)
	require.NoError(t, err)

	value, err := abicodec.New().Decode(interfaces.TypeInt256, plaintext)
	require.NoError(t, err)
	return value.(*big.Int).Int64()
}

func TestClient_InProcess(t *testing.T) {
	engine := setupEngine(t)
	client := newTestClient(t, engine)

	result := runTask(t, client, registerCall("testdomain", "register_for_me"))
	assert.Equal(t, interfaces.ExecutionStatusSuccess, result.ExecutionStatus)
	assert.Equal(t, int64(interfaces.StatusNone), decodeStatus(t, client, result))

	result = runTask(t, client, registerCall("testdomain", "register_for_me"))
	assert.Equal(t, int64(interfaces.StatusAlreadyRegistered), decodeStatus(t, client, result))

	assert.Equal(t, 2, engine.AcceptedTasks())
}

func TestClient_OverJSONRPC(t *testing.T) {
	engine := setupEngine(t)

	server, err := NewRPCServer(engine)
	require.NoError(t, err)
	defer server.Stop()

	rpcClient := rpc.DialInProc(server)
	client := newTestClient(t, NewRPCTransport(rpcClient))
	defer client.Close()

	result := runTask(t, client, registerCall("testdomain", "register_for_me"))
	assert.Equal(t, interfaces.ExecutionStatusSuccess, result.ExecutionStatus)
	assert.Equal(t, int64(interfaces.StatusNone), decodeStatus(t, client, result))

	_, err = client.GetStatus(context.Background(), &interfaces.TaskHandle{ID: common.Hash{0xff}})
	assert.ErrorIs(t, err, interfaces.ErrTaskNotFound)
}

func TestClient_OutputOnlyDecryptsWithSubmitterKey(t *testing.T) {
	engine := setupEngine(t)
	client := newTestClient(t, engine)
	result := runTask(t, client, registerCall("testdomain", "owner"))

	otherKey, err := cryptoutils.GenerateTaskKey()
	require.NoError(t, err)
	other, err := NewClient(context.Background(), engine, otherKey, abicodec.New(), testLogger())
	require.NoError(t, err)

	_, err = other.Decrypt(context.Background(), result)
	assert.Error(t, err)
}

func TestEngine_Admission(t *testing.T) {
	engine := setupEngine(t)
	client := newTestClient(t, engine)
	ctx := context.Background()

	engine.FailSubmissions(1)
	_, err := client.SubmitCall(ctx, registerCall("a", "b"))
	assert.ErrorIs(t, err, ErrSubmissionRejected)

	noFee := registerCall("a", "b")
	noFee.ResourcePrice = nil
	_, err = client.SubmitCall(ctx, noFee)
	assert.ErrorIs(t, err, ErrInsufficientFee)

	wrongContract := registerCall("a", "b")
	wrongContract.Target = common.Address{0x02}
	_, err = client.SubmitCall(ctx, wrongContract)
	assert.ErrorIs(t, err, ErrUnknownContract)

	assert.Equal(t, 3, engine.SubmitAttempts())
	assert.Equal(t, 0, engine.AcceptedTasks())
}

func TestEngine_FailedExecutionLeavesStateUntouched(t *testing.T) {
	engine := setupEngine(t)
	client := newTestClient(t, engine)

	engine.FailExecution(true)
	result := runTask(t, client, registerCall("testdomain", "userA"))
	assert.Equal(t, interfaces.ExecutionStatusFailure, result.ExecutionStatus)
	assert.Empty(t, result.EncryptedPayload)

	engine.FailExecution(false)
	result = runTask(t, client, registerCall("testdomain", "userA"))
	assert.Equal(t, int64(interfaces.StatusNone), decodeStatus(t, client, result))
}

func TestEngine_StalledTaskHasNoResult(t *testing.T) {
	engine := setupEngine(t)
	client := newTestClient(t, engine)
	ctx := context.Background()

	engine.StallConfirmation(true)
	handle, err := client.SubmitCall(ctx, registerCall("testdomain", "userA"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		handle, err = client.GetStatus(ctx, handle)
		require.NoError(t, err)
		assert.Equal(t, interfaces.ChainStatusRecorded, handle.ChainStatus)
	}

	_, err = client.GetResult(ctx, handle)
	assert.ErrorIs(t, err, interfaces.ErrNotConfirmed)
}
