package interfaces

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TypeTag is an ABI type name such as "string" or "int256".
type TypeTag string

// Type tags used by the name registry calls.
const (
	TypeString  TypeTag = "string"
	TypeInt256  TypeTag = "int256"
	TypeUint256 TypeTag = "uint256"
	TypeBool    TypeTag = "bool"
	TypeAddress TypeTag = "address"
	TypeBytes   TypeTag = "bytes"
)

// TypedArg is a single call argument paired with the ABI type it is encoded as.
type TypedArg struct {
	Value any
	Type  TypeTag
}

// Arg is shorthand for constructing a TypedArg.
func Arg(value any, typ TypeTag) TypedArg {
	return TypedArg{Value: value, Type: typ}
}

// RemoteCall describes one invocation of a function on a secret contract.
// Build it with NewRemoteCall; the value is not modified afterwards.
type RemoteCall struct {
	// Signature is the canonical function signature, e.g. "register(string,string)".
	Signature string

	// Args are the ordered, typed call arguments.
	Args []TypedArg

	// ResourceLimit caps the compute units the worker may spend on the task.
	ResourceLimit uint64

	// ResourcePrice is the price paid per compute unit, in the backend's base unit.
	ResourcePrice *big.Int

	// Caller is the account submitting the task.
	Caller common.Address

	// Target is the secret contract the task executes against.
	Target common.Address
}

// NewRemoteCall copies args so that later mutation by the caller cannot affect the call.
func NewRemoteCall(signature string, args []TypedArg, limit uint64, price *big.Int, caller, target common.Address) *RemoteCall {
	argsCopy := make([]TypedArg, len(args))
	copy(argsCopy, args)

	var priceCopy *big.Int
	if price != nil {
		priceCopy = new(big.Int).Set(price)
	}

	return &RemoteCall{
		Signature:     signature,
		Args:          argsCopy,
		ResourceLimit: limit,
		ResourcePrice: priceCopy,
		Caller:        caller,
		Target:        target,
	}
}

// FunctionName returns the part of the signature before the argument list.
func (c *RemoteCall) FunctionName() string {
	name, _, _ := strings.Cut(c.Signature, "(")
	return name
}

// TaskID identifies a task on the backend's task queue.
type TaskID = common.Hash

// ChainStatus is the on-ledger acknowledgement state of a task.
// Values are ordered: a task only ever moves forward.
type ChainStatus int

const (
	ChainStatusUnknown ChainStatus = iota
	ChainStatusRecorded
	ChainStatusConfirmed
)

func (s ChainStatus) String() string {
	switch s {
	case ChainStatusRecorded:
		return "recorded"
	case ChainStatusConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// ExecutionStatus reports whether the remote computation itself succeeded.
type ExecutionStatus int

const (
	ExecutionStatusUnknown ExecutionStatus = iota
	ExecutionStatusSuccess
	ExecutionStatusFailure
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionStatusSuccess:
		return "success"
	case ExecutionStatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// TaskHandle tracks a submitted task. It is owned by the poll loop that created
// it until the task is confirmed.
type TaskHandle struct {
	ID              TaskID
	ChainStatus     ChainStatus
	ExecutionStatus ExecutionStatus
}

func (h *TaskHandle) String() string {
	return fmt.Sprintf("task %s (%s/%s)", h.ID.Hex(), h.ChainStatus, h.ExecutionStatus)
}

// TaskResult is the encrypted output of a confirmed task.
type TaskResult struct {
	TaskID           TaskID
	EncryptedPayload []byte
	ExecutionStatus  ExecutionStatus
}
