package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestCircuitType_Valid 测试电路类型合法性判断
func TestCircuitType_Valid(t *testing.T) {
	require.True(t, CircuitTypeMessage.Valid())
	require.True(t, CircuitTypeTransaction.Valid())
	require.True(t, CircuitTypeBlock.Valid())

	require.False(t, CircuitType(0x00).Valid())
	require.False(t, CircuitType(0x04).Valid())
	require.False(t, CircuitType(0xFF).Valid())
}

// TestCircuitType_String 测试电路类型名称
func TestCircuitType_String(t *testing.T) {
	require.Equal(t, "message", CircuitTypeMessage.String())
	require.Equal(t, "transaction", CircuitTypeTransaction.String())
	require.Equal(t, "block", CircuitTypeBlock.String())
	require.Equal(t, "unknown", CircuitType(0x42).String())
}

// TestHealthState_String 测试健康状态名称
func TestHealthState_String(t *testing.T) {
	require.Equal(t, "healthy", Healthy.String())
	require.Equal(t, "degraded", Degraded.String())
	require.Equal(t, "unhealthy", Unhealthy.String())
}

// TestDefaultZkConfig 测试默认操作配置
func TestDefaultZkConfig(t *testing.T) {
	cfg := DefaultZkConfig()
	require.Equal(t, 5*time.Minute, cfg.ProvingTimeout)
	require.Equal(t, 30*time.Second, cfg.VerificationTimeout)
	require.Zero(t, cfg.MaxProgramSize)
	require.Zero(t, cfg.MaxInputSize)
}
