package gnarkplug

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/axialabsresearch/frostgate-zkip/internal/core/zkbackend/testutil"
)

// ============================================================================
// plug.go 测试
// ============================================================================
//
// Groth16可信设置较慢，测试间共享同一个能力实例。

var sharedPlug = New(&testutil.MockLogger{})

// TestPlug_Identity 测试能力标识
func TestPlug_Identity(t *testing.T) {
	require.Equal(t, CapabilityID, sharedPlug.ID())
	require.Contains(t, sharedPlug.Capabilities(), "groth16")
	require.Contains(t, sharedPlug.Capabilities(), "bn254")
}

// TestPlug_Compile 测试电路编译
func TestPlug_Compile(t *testing.T) {
	circuit, err := sharedPlug.Compile(context.Background(), []byte("program"))
	require.NoError(t, err)
	require.NotEmpty(t, circuit.Bytes)
	require.Greater(t, circuit.Constraints, 0)
}

// TestPlug_ProveVerifyRoundtrip 测试证明生成与验证往返
func TestPlug_ProveVerifyRoundtrip(t *testing.T) {
	program := []byte("roundtrip program")
	input := []byte("roundtrip input")

	proof, metadata, err := sharedPlug.Prove(context.Background(), program, input, nil)
	require.NoError(t, err)
	require.NotEmpty(t, proof)
	require.NotNil(t, metadata)

	valid, err := sharedPlug.Verify(context.Background(), program, proof, nil)
	require.NoError(t, err)
	require.True(t, valid)
}

// TestPlug_VerifyWrongProgram 测试证明与程序不匹配
func TestPlug_VerifyWrongProgram(t *testing.T) {
	program := []byte("original program")
	input := []byte("input")

	proof, _, err := sharedPlug.Prove(context.Background(), program, input, nil)
	require.NoError(t, err)

	// 对另一个程序验证同一证明，公开输入不匹配
	valid, err := sharedPlug.Verify(context.Background(), []byte("different program"), proof, nil)
	require.NoError(t, err)
	require.False(t, valid)
}

// TestPlug_VerifyMalformedProof 测试畸形证明反序列化失败
func TestPlug_VerifyMalformedProof(t *testing.T) {
	require.NoError(t, sharedPlug.ensureSetup())

	_, verifyErr := sharedPlug.Verify(context.Background(), []byte("p"), []byte("not a proof"), nil)
	require.Error(t, verifyErr)
}

// TestPlug_CanceledContext 测试已取消上下文被拒绝
func TestPlug_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := sharedPlug.Prove(ctx, []byte("p"), []byte("i"), nil)
	require.ErrorIs(t, err, context.Canceled)

	_, err = sharedPlug.Compile(ctx, []byte("p"))
	require.ErrorIs(t, err, context.Canceled)
}
