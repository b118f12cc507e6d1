// Package abicodec encodes secret contract call arguments and decodes task
// outputs using the Ethereum contract ABI.
package abicodec

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ruteri/secret-dns/interfaces"
)

var (
	ErrInvalidSignature = errors.New("invalid function signature")
	ErrArgumentMismatch = errors.New("arguments do not match signature")
)

// Codec implements interfaces.ArgumentCodec. Parsed ABI types are cached, so a
// single Codec should be shared.
type Codec struct {
	mu    sync.RWMutex
	types map[interfaces.TypeTag]abi.Type
}

func New() *Codec {
	return &Codec{types: make(map[interfaces.TypeTag]abi.Type)}
}

func (c *Codec) abiType(tag interfaces.TypeTag) (abi.Type, error) {
	c.mu.RLock()
	t, ok := c.types[tag]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := abi.NewType(string(tag), "", nil)
	if err != nil {
		return abi.Type{}, fmt.Errorf("unsupported type %q: %w", tag, err)
	}

	c.mu.Lock()
	c.types[tag] = t
	c.mu.Unlock()
	return t, nil
}

func (c *Codec) arguments(tags []interfaces.TypeTag) (abi.Arguments, error) {
	arguments := make(abi.Arguments, 0, len(tags))
	for _, tag := range tags {
		t, err := c.abiType(tag)
		if err != nil {
			return nil, err
		}
		arguments = append(arguments, abi.Argument{Type: t})
	}
	return arguments, nil
}

// EncodeArguments packs args as an ABI tuple.
func (c *Codec) EncodeArguments(args []interfaces.TypedArg) ([]byte, error) {
	tags := make([]interfaces.TypeTag, len(args))
	values := make([]any, len(args))
	for i, arg := range args {
		tags[i] = arg.Type
		values[i] = normalizeValue(arg.Type, arg.Value)
	}

	arguments, err := c.arguments(tags)
	if err != nil {
		return nil, err
	}

	packed, err := arguments.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("could not pack arguments: %w", err)
	}
	return packed, nil
}

// DecodeArguments unpacks an ABI tuple of the given types.
func (c *Codec) DecodeArguments(tags []interfaces.TypeTag, data []byte) ([]any, error) {
	arguments, err := c.arguments(tags)
	if err != nil {
		return nil, err
	}

	values, err := arguments.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("could not unpack arguments: %w", err)
	}
	return values, nil
}

// Decode unpacks a single return value. int256 and uint256 decode to *big.Int.
func (c *Codec) Decode(returnType interfaces.TypeTag, data []byte) (any, error) {
	values, err := c.DecodeArguments([]interfaces.TypeTag{returnType}, data)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("expected one return value, got %d", len(values))
	}
	return values[0], nil
}

// EncodeCall validates args against the call signature and returns the
// 4-byte selector followed by the packed arguments.
func (c *Codec) EncodeCall(call *interfaces.RemoteCall) ([]byte, error) {
	_, tags, err := ParseSignature(call.Signature)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(call.Args) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrArgumentMismatch, call.Signature, len(tags), len(call.Args))
	}
	for i, tag := range tags {
		if call.Args[i].Type != tag {
			return nil, fmt.Errorf("%w: argument %d of %s is %s, got %s", ErrArgumentMismatch, i, call.Signature, tag, call.Args[i].Type)
		}
	}

	packed, err := c.EncodeArguments(call.Args)
	if err != nil {
		return nil, err
	}

	selector := Selector(call.Signature)
	return append(selector[:], packed...), nil
}

// Selector returns the first four bytes of the Keccak-256 hash of signature.
func Selector(signature string) [4]byte {
	var selector [4]byte
	copy(selector[:], crypto.Keccak256([]byte(signature))[:4])
	return selector
}

// ParseSignature splits "name(type1,type2)" into its name and argument types.
func ParseSignature(signature string) (string, []interfaces.TypeTag, error) {
	open := strings.IndexByte(signature, '(')
	if open <= 0 || !strings.HasSuffix(signature, ")") {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidSignature, signature)
	}

	name := signature[:open]
	inner := signature[open+1 : len(signature)-1]
	if inner == "" {
		return name, nil, nil
	}

	parts := strings.Split(inner, ",")
	tags := make([]interfaces.TypeTag, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return "", nil, fmt.Errorf("%w: empty argument type in %q", ErrInvalidSignature, signature)
		}
		tags[i] = interfaces.TypeTag(part)
	}
	return name, tags, nil
}

// normalizeValue converts native Go integers to *big.Int for 256-bit integer types.
func normalizeValue(tag interfaces.TypeTag, value any) any {
	if tag != interfaces.TypeInt256 && tag != interfaces.TypeUint256 {
		return value
	}
	switch v := value.(type) {
	case int:
		return big.NewInt(int64(v))
	case int32:
		return big.NewInt(int64(v))
	case int64:
		return big.NewInt(v)
	case uint64:
		return new(big.Int).SetUint64(v)
	default:
		return value
	}
}
