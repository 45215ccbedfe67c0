package zkbackend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/axialabsresearch/frostgate-zkip/internal/core/zkbackend/testutil"
	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// ============================================================================
// proof_cache.go 测试
// ============================================================================

// newTestProofCache 创建测试用证明缓存
func newTestProofCache(t *testing.T, enabled bool) *ProofCache {
	hasher, err := NewContentHasher(HashSHA256)
	require.NoError(t, err)

	config := DefaultCacheConfig()
	config.MaxProofs = 10
	config.EnableProofCache = enabled

	cache := NewProofCache(hasher, config, &testutil.MockLogger{})
	t.Cleanup(cache.Stop)
	return cache
}

// countingProve 返回带计数的证明回调
func countingProve(calls *atomic.Int64, proof []byte) ProveFunc {
	return func(ctx context.Context) ([]byte, *types.ProofMetadata, error) {
		calls.Add(1)
		return proof, &types.ProofMetadata{}, nil
	}
}

// TestProofCache_Enabled 测试启用时相同组合只证明一次
func TestProofCache_Enabled(t *testing.T) {
	cache := newTestProofCache(t, true)
	program := []byte("program")
	input := []byte("input")

	var proveCalls atomic.Int64
	prove := countingProve(&proveCalls, []byte("proof-bytes"))

	entry1, hit, err := cache.GetOrProve(context.Background(), program, input, prove)
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, []byte("proof-bytes"), entry1.Proof)

	entry2, hit, err := cache.GetOrProve(context.Background(), program, input, prove)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, entry1.Proof, entry2.Proof)
	require.Equal(t, int64(1), proveCalls.Load())
}

// TestProofCache_Disabled 测试禁用时每次重新证明
func TestProofCache_Disabled(t *testing.T) {
	cache := newTestProofCache(t, false)
	require.False(t, cache.Enabled())

	program := []byte("program")
	input := []byte("input")

	var proveCalls atomic.Int64
	prove := countingProve(&proveCalls, []byte("proof-bytes"))

	_, hit, err := cache.GetOrProve(context.Background(), program, input, prove)
	require.NoError(t, err)
	require.False(t, hit)

	_, hit, err = cache.GetOrProve(context.Background(), program, input, prove)
	require.NoError(t, err)
	require.False(t, hit)

	require.Equal(t, int64(2), proveCalls.Load(), "禁用缓存时每次都应重新证明")
	require.Equal(t, 0, cache.Len(), "禁用缓存时不应有条目")
}

// TestProofCache_InputSensitive 测试不同输入不共享证明
func TestProofCache_InputSensitive(t *testing.T) {
	cache := newTestProofCache(t, true)
	program := []byte("program")

	var proveCalls atomic.Int64
	prove := countingProve(&proveCalls, []byte("proof"))

	_, _, err := cache.GetOrProve(context.Background(), program, []byte("input-a"), prove)
	require.NoError(t, err)
	_, _, err = cache.GetOrProve(context.Background(), program, []byte("input-b"), prove)
	require.NoError(t, err)

	require.Equal(t, int64(2), proveCalls.Load())
	require.Equal(t, 2, cache.Len())
}

// TestProofCache_FailureNotCached 测试证明失败不缓存
func TestProofCache_FailureNotCached(t *testing.T) {
	cache := newTestProofCache(t, true)
	program := []byte("program")
	input := []byte("input")

	proveErr := errors.New("witness构建失败")
	var proveCalls atomic.Int64
	var shouldFail atomic.Bool
	shouldFail.Store(true)

	prove := func(ctx context.Context) ([]byte, *types.ProofMetadata, error) {
		proveCalls.Add(1)
		if shouldFail.Load() {
			return nil, nil, proveErr
		}
		return []byte("proof"), &types.ProofMetadata{}, nil
	}

	_, _, err := cache.GetOrProve(context.Background(), program, input, prove)
	require.ErrorIs(t, err, proveErr)
	require.Equal(t, 0, cache.Len())

	shouldFail.Store(false)
	entry, hit, err := cache.GetOrProve(context.Background(), program, input, prove)
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, []byte("proof"), entry.Proof)
	require.Equal(t, int64(2), proveCalls.Load())
}

// TestProofCache_ConcurrentDedup 测试并发请求同一组合合并为单次证明
func TestProofCache_ConcurrentDedup(t *testing.T) {
	cache := newTestProofCache(t, true)
	program := []byte("program")
	input := []byte("input")

	var proveCalls atomic.Int64
	prove := func(ctx context.Context) ([]byte, *types.ProofMetadata, error) {
		proveCalls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return []byte("proof"), &types.ProofMetadata{}, nil
	}

	const goroutines = 32
	var wg sync.WaitGroup
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, _, errs[idx] = cache.GetOrProve(context.Background(), program, input, prove)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int64(1), proveCalls.Load(), "并发请求应合并为单次证明")
}
