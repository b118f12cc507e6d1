package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/ruteri/secret-dns/interfaces"
)

// RPCNamespace is the JSON-RPC namespace of the task backend methods.
const RPCNamespace = "eng"

// Wire values of the execution status.
const (
	engStatusSuccess = "SUCCESS"
	engStatusFailed  = "FAILED"
	engStatusPending = "PENDING"
)

var ErrUnknownContract = errors.New("no secret contract deployed at address")

// SubmitTaskRequest is the body of eng_submitTask. Arguments are ABI-encoded
// and encrypted to the worker key; the output will be encrypted to UserPubKey.
type SubmitTaskRequest struct {
	Signature     string         `json:"signature"`
	EncryptedArgs hexutil.Bytes  `json:"encryptedArgs"`
	UserPubKey    hexutil.Bytes  `json:"userPubKey"`
	ResourceLimit hexutil.Uint64 `json:"resourceLimit"`
	ResourcePrice *hexutil.Big   `json:"resourcePrice"`
	Sender        common.Address `json:"sender"`
	Contract      common.Address `json:"contract"`
}

// TaskStatusResponse is returned by eng_submitTask and eng_getTaskStatus.
type TaskStatusResponse struct {
	TaskID          common.Hash `json:"taskId"`
	ChainStatus     int         `json:"chainStatus"`
	ExecutionStatus string      `json:"executionStatus"`
}

// TaskResultResponse is returned by eng_getTaskResult.
type TaskResultResponse struct {
	TaskID          common.Hash   `json:"taskId"`
	EncryptedOutput hexutil.Bytes `json:"encryptedOutput"`
	ExecutionStatus string        `json:"executionStatus"`
}

// Transport carries task requests to a worker. SimulatedEngine implements it
// in-process and RPCTransport over JSON-RPC.
type Transport interface {
	WorkerEncryptionKey(ctx context.Context) ([]byte, error)
	SubmitTask(ctx context.Context, req *SubmitTaskRequest) (*TaskStatusResponse, error)
	TaskStatus(ctx context.Context, id common.Hash) (*TaskStatusResponse, error)
	TaskResult(ctx context.Context, id common.Hash) (*TaskResultResponse, error)
}

// RPCTransport calls the eng_* methods of a remote worker.
type RPCTransport struct {
	client *rpc.Client
}

func NewRPCTransport(client *rpc.Client) *RPCTransport {
	return &RPCTransport{client: client}
}

// DialRPCTransport connects to a worker at rawurl (http, ws or ipc).
func DialRPCTransport(ctx context.Context, rawurl string) (*RPCTransport, error) {
	client, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("could not dial worker %s: %w", rawurl, err)
	}
	return NewRPCTransport(client), nil
}

func (t *RPCTransport) Close() {
	t.client.Close()
}

func (t *RPCTransport) WorkerEncryptionKey(ctx context.Context) ([]byte, error) {
	var key hexutil.Bytes
	if err := t.client.CallContext(ctx, &key, RPCNamespace+"_getWorkerEncryptionKey"); err != nil {
		return nil, err
	}
	return key, nil
}

func (t *RPCTransport) SubmitTask(ctx context.Context, req *SubmitTaskRequest) (*TaskStatusResponse, error) {
	var resp TaskStatusResponse
	if err := t.client.CallContext(ctx, &resp, RPCNamespace+"_submitTask", req); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *RPCTransport) TaskStatus(ctx context.Context, id common.Hash) (*TaskStatusResponse, error) {
	var resp TaskStatusResponse
	if err := t.client.CallContext(ctx, &resp, RPCNamespace+"_getTaskStatus", id); err != nil {
		return nil, mapRPCError(err)
	}
	return &resp, nil
}

func (t *RPCTransport) TaskResult(ctx context.Context, id common.Hash) (*TaskResultResponse, error) {
	var resp TaskResultResponse
	if err := t.client.CallContext(ctx, &resp, RPCNamespace+"_getTaskResult", id); err != nil {
		return nil, mapRPCError(err)
	}
	return &resp, nil
}

// mapRPCError restores sentinel errors that lose their identity on the wire.
func mapRPCError(err error) error {
	if strings.Contains(err.Error(), interfaces.ErrTaskNotFound.Error()) {
		return fmt.Errorf("%w: %v", interfaces.ErrTaskNotFound, err)
	}
	return err
}

func executionStatusFromWire(status string) interfaces.ExecutionStatus {
	switch status {
	case engStatusSuccess:
		return interfaces.ExecutionStatusSuccess
	case engStatusFailed:
		return interfaces.ExecutionStatusFailure
	default:
		return interfaces.ExecutionStatusUnknown
	}
}

func (r *TaskStatusResponse) handle() *interfaces.TaskHandle {
	return &interfaces.TaskHandle{
		ID:              r.TaskID,
		ChainStatus:     interfaces.ChainStatus(r.ChainStatus),
		ExecutionStatus: executionStatusFromWire(r.ExecutionStatus),
	}
}
