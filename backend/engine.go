package backend

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/ruteri/secret-dns/abicodec"
	"github.com/ruteri/secret-dns/cryptoutils"
	"github.com/ruteri/secret-dns/interfaces"
)

var (
	ErrSubmissionRejected = errors.New("task submission rejected")
	ErrInsufficientFee    = errors.New("insufficient task fee")
)

type simTask struct {
	id       common.Hash
	queries  int
	output   []byte
	executed interfaces.ExecutionStatus
}

// SimulatedEngine is an in-memory worker that executes name registry tasks.
// A task is recorded on submission and confirmed once it has been queried
// more than ConfirmAfter times. Tasks run at submission, in submission order.
type SimulatedEngine struct {
	mu sync.Mutex

	workerKey *ecdsa.PrivateKey
	codec     *abicodec.Codec
	log       *slog.Logger

	contracts map[common.Address]*NameRegistryContract
	tasks     map[common.Hash]*simTask

	confirmAfter    int
	failSubmissions int
	stall           bool
	failExecution   bool
	corruptOutput   bool

	submitAttempts int
	accepted       int
}

// NewSimulatedEngine returns an engine with a fresh worker key and no contracts.
func NewSimulatedEngine(log *slog.Logger) (*SimulatedEngine, error) {
	workerKey, err := cryptoutils.GenerateTaskKey()
	if err != nil {
		return nil, err
	}

	return &SimulatedEngine{
		workerKey:    workerKey,
		codec:        abicodec.New(),
		log:          log,
		contracts:    make(map[common.Address]*NameRegistryContract),
		tasks:        make(map[common.Hash]*simTask),
		confirmAfter: 1,
	}, nil
}

// DeployNameRegistry installs an empty name registry contract at address.
func (e *SimulatedEngine) DeployNameRegistry(address common.Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.contracts[address] = NewNameRegistryContract()
}

// SetConfirmAfter sets how many status queries return Recorded before
// Confirmed. The first query always reports Recorded.
func (e *SimulatedEngine) SetConfirmAfter(queries int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.confirmAfter = max(queries, 1)
}

// FailSubmissions rejects the next n submissions.
func (e *SimulatedEngine) FailSubmissions(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failSubmissions = n
}

// StallConfirmation keeps every task recorded but never confirmed.
func (e *SimulatedEngine) StallConfirmation(stall bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stall = stall
}

// FailExecution makes subsequent tasks finish with a failed execution.
func (e *SimulatedEngine) FailExecution(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failExecution = fail
}

// CorruptOutput makes subsequent tasks emit output that does not decrypt.
func (e *SimulatedEngine) CorruptOutput(corrupt bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.corruptOutput = corrupt
}

// SubmitAttempts counts every submission, including rejected ones.
func (e *SimulatedEngine) SubmitAttempts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitAttempts
}

// AcceptedTasks counts submissions that created a task.
func (e *SimulatedEngine) AcceptedTasks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accepted
}

func (e *SimulatedEngine) WorkerEncryptionKey(ctx context.Context) ([]byte, error) {
	return cryptoutils.MarshalPublicKey(&e.workerKey.PublicKey), nil
}

func (e *SimulatedEngine) SubmitTask(ctx context.Context, req *SubmitTaskRequest) (*TaskStatusResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.submitAttempts++
	if e.failSubmissions > 0 {
		e.failSubmissions--
		return nil, ErrSubmissionRejected
	}

	if req.ResourceLimit == 0 || req.ResourcePrice == nil || req.ResourcePrice.ToInt().Sign() <= 0 {
		return nil, ErrInsufficientFee
	}

	contract, ok := e.contracts[req.Contract]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, req.Contract.Hex())
	}

	userKey, err := cryptoutils.UnmarshalPublicKey(req.UserPubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmissionRejected, err)
	}

	nonce := uuid.New()
	task := &simTask{
		id: crypto.Keccak256Hash(nonce[:], req.Sender.Bytes(), []byte(req.Signature)),
	}

	task.executed, task.output = e.execute(contract, req, userKey)
	e.tasks[task.id] = task
	e.accepted++

	e.log.Debug("Simulated task accepted",
		slog.String("task", task.id.Hex()),
		slog.String("signature", req.Signature),
		slog.String("execution", task.executed.String()))

	return &TaskStatusResponse{
		TaskID:          task.id,
		ChainStatus:     int(interfaces.ChainStatusRecorded),
		ExecutionStatus: engStatusPending,
	}, nil
}

// execute runs the call and returns the encrypted output. Failures leave the
// contract state untouched and produce no output.
func (e *SimulatedEngine) execute(contract *NameRegistryContract, req *SubmitTaskRequest, userKey *ecdsa.PublicKey) (interfaces.ExecutionStatus, []byte) {
	if e.failExecution {
		return interfaces.ExecutionStatusFailure, nil
	}

	plainArgs, err := cryptoutils.DecryptWithKey(e.workerKey, req.EncryptedArgs)
	if err != nil {
		e.log.Debug("Could not decrypt task arguments", "err", err)
		return interfaces.ExecutionStatusFailure, nil
	}

	function, tags, err := abicodec.ParseSignature(req.Signature)
	if err != nil {
		return interfaces.ExecutionStatusFailure, nil
	}

	args, err := e.codec.DecodeArguments(tags, plainArgs)
	if err != nil {
		e.log.Debug("Could not decode task arguments", "err", err)
		return interfaces.ExecutionStatusFailure, nil
	}

	value, retType, err := contract.Execute(function, args)
	if err != nil {
		e.log.Debug("Task execution failed", "function", function, "err", err)
		return interfaces.ExecutionStatusFailure, nil
	}

	encoded, err := e.codec.EncodeArguments([]interfaces.TypedArg{interfaces.Arg(value, retType)})
	if err != nil {
		return interfaces.ExecutionStatusFailure, nil
	}

	if e.corruptOutput {
		return interfaces.ExecutionStatusSuccess, encoded
	}

	output, err := cryptoutils.EncryptForKey(userKey, encoded)
	if err != nil {
		return interfaces.ExecutionStatusFailure, nil
	}
	return interfaces.ExecutionStatusSuccess, output
}

func (e *SimulatedEngine) TaskStatus(ctx context.Context, id common.Hash) (*TaskStatusResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, ok := e.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrTaskNotFound, id.Hex())
	}

	task.queries++
	resp := &TaskStatusResponse{
		TaskID:          id,
		ChainStatus:     int(interfaces.ChainStatusRecorded),
		ExecutionStatus: engStatusPending,
	}
	if !e.stall && task.queries > e.confirmAfter {
		resp.ChainStatus = int(interfaces.ChainStatusConfirmed)
		resp.ExecutionStatus = wireExecutionStatus(task.executed)
	}
	return resp, nil
}

func (e *SimulatedEngine) TaskResult(ctx context.Context, id common.Hash) (*TaskResultResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, ok := e.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrTaskNotFound, id.Hex())
	}
	if e.stall || task.queries <= e.confirmAfter {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNotConfirmed, id.Hex())
	}

	return &TaskResultResponse{
		TaskID:          id,
		EncryptedOutput: task.output,
		ExecutionStatus: wireExecutionStatus(task.executed),
	}, nil
}

func wireExecutionStatus(status interfaces.ExecutionStatus) string {
	switch status {
	case interfaces.ExecutionStatusSuccess:
		return engStatusSuccess
	case interfaces.ExecutionStatusFailure:
		return engStatusFailed
	default:
		return engStatusPending
	}
}
