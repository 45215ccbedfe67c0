package zkbackend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/axialabsresearch/frostgate-zkip/internal/core/zkbackend/testutil"
	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// ============================================================================
// validator.go 测试
// ============================================================================

// TestBasicValidator_ValidTypes 测试三种合法电路类型
func TestBasicValidator_ValidTypes(t *testing.T) {
	validator := NewBasicValidator(0)
	program := []byte("program")

	require.NoError(t, validator.Validate(program, types.CircuitTypeMessage))
	require.NoError(t, validator.Validate(program, types.CircuitTypeTransaction))
	require.NoError(t, validator.Validate(program, types.CircuitTypeBlock))
}

// TestBasicValidator_InvalidType 测试非法电路类型
func TestBasicValidator_InvalidType(t *testing.T) {
	validator := NewBasicValidator(0)

	for _, tag := range []types.CircuitType{0x00, 0x04, 0xFF} {
		err := validator.Validate([]byte("program"), tag)
		require.Error(t, err)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	}
}

// TestBasicValidator_EmptyProgram 测试空程序
func TestBasicValidator_EmptyProgram(t *testing.T) {
	validator := NewBasicValidator(0)

	err := validator.Validate(nil, types.CircuitTypeMessage)
	require.Error(t, err)
}

// TestBasicValidator_SizeLimit 测试程序尺寸上限
func TestBasicValidator_SizeLimit(t *testing.T) {
	validator := NewBasicValidator(16)

	require.NoError(t, validator.Validate(testutil.RandomBytes(16), types.CircuitTypeMessage))
	require.Error(t, validator.Validate(testutil.RandomBytes(17), types.CircuitTypeMessage))
}
