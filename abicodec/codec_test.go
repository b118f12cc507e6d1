package abicodec

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/secret-dns/interfaces"
)

func TestEncodeDecodeString(t *testing.T) {
	codec := New()

	packed, err := codec.EncodeArguments([]interfaces.TypedArg{interfaces.Arg("1.1.1.1", interfaces.TypeString)})
	require.NoError(t, err)
	// offset word + length word + one padded data word
	assert.Len(t, packed, 96)

	value, err := codec.Decode(interfaces.TypeString, packed)
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1", value)
}

func TestDecodeInt256(t *testing.T) {
	codec := New()

	// A task output of status code 1 is a single big-endian 32-byte word.
	data, err := hex.DecodeString("0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)

	value, err := codec.Decode(interfaces.TypeInt256, data)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(1).Cmp(value.(*big.Int)))
}

func TestEncodeInt256AcceptsNativeInts(t *testing.T) {
	codec := New()

	packed, err := codec.EncodeArguments([]interfaces.TypedArg{interfaces.Arg(2, interfaces.TypeInt256)})
	require.NoError(t, err)

	value, err := codec.Decode(interfaces.TypeInt256, packed)
	require.NoError(t, err)
	assert.Equal(t, int64(2), value.(*big.Int).Int64())
}

func TestDecodeMalformed(t *testing.T) {
	codec := New()

	_, err := codec.Decode(interfaces.TypeString, nil)
	assert.Error(t, err)

	_, err = codec.Decode(interfaces.TypeString, []byte{0x01, 0x02})
	assert.Error(t, err)

	_, err = codec.Decode("notatype", make([]byte, 32))
	assert.Error(t, err)
}

func TestParseSignature(t *testing.T) {
	name, tags, err := ParseSignature("set_target(string,string,string)")
	require.NoError(t, err)
	assert.Equal(t, "set_target", name)
	assert.Equal(t, []interfaces.TypeTag{"string", "string", "string"}, tags)

	name, tags, err = ParseSignature("ping()")
	require.NoError(t, err)
	assert.Equal(t, "ping", name)
	assert.Empty(t, tags)

	for _, bad := range []string{"", "resolve", "(string)", "resolve(string", "resolve(string,)"} {
		_, _, err := ParseSignature(bad)
		assert.ErrorIs(t, err, ErrInvalidSignature, bad)
	}
}

func TestEncodeCall(t *testing.T) {
	codec := New()

	call := interfaces.NewRemoteCall("register(string,string)", []interfaces.TypedArg{
		interfaces.Arg("testdomain", interfaces.TypeString),
		interfaces.Arg("register_for_me", interfaces.TypeString),
	}, 0, nil, [20]byte{}, [20]byte{})

	encoded, err := codec.EncodeCall(call)
	require.NoError(t, err)

	selector := Selector("register(string,string)")
	assert.Equal(t, selector[:], encoded[:4])

	values, err := codec.DecodeArguments([]interfaces.TypeTag{"string", "string"}, encoded[4:])
	require.NoError(t, err)
	assert.Equal(t, []any{"testdomain", "register_for_me"}, values)
}

func TestEncodeCallRejectsMismatchedArguments(t *testing.T) {
	codec := New()

	call := interfaces.NewRemoteCall("resolve(string)", nil, 0, nil, [20]byte{}, [20]byte{})
	_, err := codec.EncodeCall(call)
	assert.ErrorIs(t, err, ErrArgumentMismatch)

	call = interfaces.NewRemoteCall("resolve(string)", []interfaces.TypedArg{interfaces.Arg(big.NewInt(1), interfaces.TypeInt256)}, 0, nil, [20]byte{}, [20]byte{})
	_, err = codec.EncodeCall(call)
	assert.ErrorIs(t, err, ErrArgumentMismatch)
}
