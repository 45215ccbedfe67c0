package zkbackend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/axialabsresearch/frostgate-zkip/internal/core/zkbackend/testutil"
)

// ============================================================================
// archive.go 测试
// ============================================================================

// TestProofArchive_Roundtrip 测试归档与取回
func TestProofArchive_Roundtrip(t *testing.T) {
	archive, err := NewProofArchive(time.Minute, &testutil.MockLogger{})
	require.NoError(t, err)
	defer archive.Close()

	fp := testFingerprint(1)
	proof := testutil.RandomBytes(512)

	require.NoError(t, archive.Store(fp, proof))

	loaded, found, err := archive.Load(fp)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, proof, loaded)
}

// TestProofArchive_NotFound 测试未归档指纹
func TestProofArchive_NotFound(t *testing.T) {
	archive, err := NewProofArchive(time.Minute, &testutil.MockLogger{})
	require.NoError(t, err)
	defer archive.Close()

	_, found, err := archive.Load(testFingerprint(9))
	require.NoError(t, err)
	require.False(t, found)
}

// TestProofArchive_Overwrite 测试同指纹覆盖
func TestProofArchive_Overwrite(t *testing.T) {
	archive, err := NewProofArchive(time.Minute, &testutil.MockLogger{})
	require.NoError(t, err)
	defer archive.Close()

	fp := testFingerprint(2)

	require.NoError(t, archive.Store(fp, []byte("old")))
	require.NoError(t, archive.Store(fp, []byte("new")))

	loaded, found, err := archive.Load(fp)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("new"), loaded)
}

// TestProofArchive_LargeProof 测试大证明压缩往返
func TestProofArchive_LargeProof(t *testing.T) {
	archive, err := NewProofArchive(time.Minute, &testutil.MockLogger{})
	require.NoError(t, err)
	defer archive.Close()

	fp := testFingerprint(3)
	proof := make([]byte, 64*1024)
	for i := range proof {
		proof[i] = byte(i % 7) // 可压缩内容
	}

	require.NoError(t, archive.Store(fp, proof))

	loaded, found, err := archive.Load(fp)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, proof, loaded)
}
