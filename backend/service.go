package backend

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// RPCService exposes a Transport as the eng_* JSON-RPC methods.
type RPCService struct {
	transport Transport
}

func (s *RPCService) GetWorkerEncryptionKey(ctx context.Context) (hexutil.Bytes, error) {
	return s.transport.WorkerEncryptionKey(ctx)
}

func (s *RPCService) SubmitTask(ctx context.Context, req SubmitTaskRequest) (*TaskStatusResponse, error) {
	return s.transport.SubmitTask(ctx, &req)
}

func (s *RPCService) GetTaskStatus(ctx context.Context, id common.Hash) (*TaskStatusResponse, error) {
	return s.transport.TaskStatus(ctx, id)
}

func (s *RPCService) GetTaskResult(ctx context.Context, id common.Hash) (*TaskResultResponse, error) {
	return s.transport.TaskResult(ctx, id)
}

// NewRPCServer returns a JSON-RPC server serving transport under RPCNamespace.
// The server is an http.Handler and can also be dialled in-process with rpc.DialInProc.
func NewRPCServer(transport Transport) (*rpc.Server, error) {
	server := rpc.NewServer()
	if err := server.RegisterName(RPCNamespace, &RPCService{transport: transport}); err != nil {
		return nil, err
	}
	return server, nil
}
