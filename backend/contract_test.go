package backend

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/secret-dns/interfaces"
)

func statusOf(t *testing.T, value any) interfaces.StatusCode {
	t.Helper()
	code, ok := value.(*big.Int)
	require.True(t, ok, "expected *big.Int, got %T", value)
	return interfaces.StatusCode(code.Int64())
}

func TestNameRegistryContract(t *testing.T) {
	contract := NewNameRegistryContract()

	value, typ, err := contract.Execute("register", []any{"testdomain123", "userA"})
	require.NoError(t, err)
	assert.Equal(t, interfaces.TypeInt256, typ)
	assert.Equal(t, interfaces.StatusNone, statusOf(t, value))

	value, _, err = contract.Execute("register", []any{"testdomain123", "userB"})
	require.NoError(t, err)
	assert.Equal(t, interfaces.StatusAlreadyRegistered, statusOf(t, value))

	value, typ, err = contract.Execute("resolve", []any{"testdomain123"})
	require.NoError(t, err)
	assert.Equal(t, interfaces.TypeString, typ)
	assert.Equal(t, "na", value)

	value, _, err = contract.Execute("set_target", []any{"testdomain123", "1.1.1.3", "userB"})
	require.NoError(t, err)
	assert.Equal(t, interfaces.StatusUnauthorized, statusOf(t, value))

	value, _, err = contract.Execute("set_target", []any{"testdomain123", "1.1.1.1", "userA"})
	require.NoError(t, err)
	assert.Equal(t, interfaces.StatusNone, statusOf(t, value))

	value, _, err = contract.Execute("resolve", []any{"testdomain123"})
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1", value)

	value, _, err = contract.Execute("resolve", []any{"unknown"})
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestNameRegistryContract_Failures(t *testing.T) {
	contract := NewNameRegistryContract()

	_, _, err := contract.Execute("set_target", []any{"missing", "1.1.1.1", "userA"})
	assert.ErrorIs(t, err, ErrDomainNotFound)

	_, _, err = contract.Execute("transfer", []any{"x"})
	assert.ErrorIs(t, err, ErrUnknownFunction)

	_, _, err = contract.Execute("register", []any{"only-one"})
	assert.Error(t, err)

	_, _, err = contract.Execute("resolve", []any{big.NewInt(1)})
	assert.Error(t, err)
}
