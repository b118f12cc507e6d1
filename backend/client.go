package backend

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ruteri/secret-dns/abicodec"
	"github.com/ruteri/secret-dns/cryptoutils"
	"github.com/ruteri/secret-dns/interfaces"
)

var ErrTaskIDMismatch = errors.New("backend answered for a different task")

// Client implements interfaces.TaskBackend on top of a Transport. Arguments are
// encrypted to the worker key fetched at construction and outputs are
// decrypted with the client's task key.
type Client struct {
	transport Transport
	codec     *abicodec.Codec
	taskKey   *ecdsa.PrivateKey
	workerKey *ecdsa.PublicKey
	log       *slog.Logger
}

// NewClient fetches the worker encryption key over transport. The returned
// client is ready to submit tasks.
func NewClient(ctx context.Context, transport Transport, taskKey *ecdsa.PrivateKey, codec *abicodec.Codec, log *slog.Logger) (*Client, error) {
	rawKey, err := transport.WorkerEncryptionKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not fetch worker encryption key: %w", err)
	}

	workerKey, err := cryptoutils.UnmarshalPublicKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("worker returned an invalid encryption key: %w", err)
	}

	log.Info("Connected to task backend", slog.String("workerKey", hexutil.Encode(rawKey)))

	return &Client{
		transport: transport,
		codec:     codec,
		taskKey:   taskKey,
		workerKey: workerKey,
		log:       log,
	}, nil
}

// Dial connects to a worker over JSON-RPC and returns a ready client.
func Dial(ctx context.Context, rawurl string, taskKey *ecdsa.PrivateKey, codec *abicodec.Codec, log *slog.Logger) (*Client, error) {
	transport, err := DialRPCTransport(ctx, rawurl)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(ctx, transport, taskKey, codec, log)
	if err != nil {
		transport.Close()
		return nil, err
	}
	return client, nil
}

// Close releases the transport if it holds a connection.
func (c *Client) Close() {
	if closer, ok := c.transport.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (c *Client) SubmitCall(ctx context.Context, call *interfaces.RemoteCall) (*interfaces.TaskHandle, error) {
	encoded, err := c.codec.EncodeArguments(call.Args)
	if err != nil {
		return nil, fmt.Errorf("could not encode arguments of %s: %w", call.Signature, err)
	}

	encrypted, err := cryptoutils.EncryptForKey(c.workerKey, encoded)
	if err != nil {
		return nil, err
	}

	req := &SubmitTaskRequest{
		Signature:     call.Signature,
		EncryptedArgs: encrypted,
		UserPubKey:    cryptoutils.MarshalPublicKey(&c.taskKey.PublicKey),
		ResourceLimit: hexutil.Uint64(call.ResourceLimit),
		Sender:        call.Caller,
		Contract:      call.Target,
	}
	if call.ResourcePrice != nil {
		req.ResourcePrice = (*hexutil.Big)(call.ResourcePrice)
	}

	resp, err := c.transport.SubmitTask(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.handle(), nil
}

func (c *Client) GetStatus(ctx context.Context, handle *interfaces.TaskHandle) (*interfaces.TaskHandle, error) {
	resp, err := c.transport.TaskStatus(ctx, handle.ID)
	if err != nil {
		return nil, err
	}
	if resp.TaskID != handle.ID {
		return nil, fmt.Errorf("%w: asked for %s, got %s", ErrTaskIDMismatch, handle.ID.Hex(), resp.TaskID.Hex())
	}
	return resp.handle(), nil
}

func (c *Client) GetResult(ctx context.Context, handle *interfaces.TaskHandle) (*interfaces.TaskResult, error) {
	resp, err := c.transport.TaskResult(ctx, handle.ID)
	if err != nil {
		return nil, err
	}
	if resp.TaskID != handle.ID {
		return nil, fmt.Errorf("%w: asked for %s, got %s", ErrTaskIDMismatch, handle.ID.Hex(), resp.TaskID.Hex())
	}

	return &interfaces.TaskResult{
		TaskID:           resp.TaskID,
		EncryptedPayload: resp.EncryptedOutput,
		ExecutionStatus:  executionStatusFromWire(resp.ExecutionStatus),
	}, nil
}

func (c *Client) Decrypt(ctx context.Context, result *interfaces.TaskResult) ([]byte, error) {
	return cryptoutils.DecryptWithKey(c.taskKey, result.EncryptedPayload)
}
