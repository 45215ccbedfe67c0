package zkbackend

import (
	"context"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/axialabsresearch/frostgate-zkip/internal/core/zkbackend/testutil"
	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// ============================================================================
// monitor.go 测试
// ============================================================================

// newTestMonitor 创建测试用资源监控器
func newTestMonitor(maxActive, maxQueue int64) *ResourceMonitor {
	limits := DefaultResourceLimits()
	limits.MaxActiveTasks = maxActive
	limits.MaxQueueDepth = maxQueue
	return NewResourceMonitor(limits, &testutil.MockLogger{})
}

// TestResourceMonitor_AcquireRelease 测试槽位申请与释放
func TestResourceMonitor_AcquireRelease(t *testing.T) {
	monitor := newTestMonitor(2, 4)

	release1, err := monitor.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, monitor.ActiveTasks())

	release2, err := monitor.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, monitor.ActiveTasks())

	release1()
	require.Equal(t, 1, monitor.ActiveTasks())

	// 重复释放是安全的
	release1()
	require.Equal(t, 1, monitor.ActiveTasks())

	release2()
	require.Equal(t, 0, monitor.ActiveTasks())
}

// TestResourceMonitor_QueueFull 测试队列满时立即拒绝
func TestResourceMonitor_QueueFull(t *testing.T) {
	monitor := newTestMonitor(1, 1)

	// 占满唯一槽位
	release, err := monitor.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	// 第二个请求进入队列等待
	queued := make(chan error, 1)
	go func() {
		r, acquireErr := monitor.Acquire(context.Background())
		if acquireErr == nil {
			defer r()
		}
		queued <- acquireErr
	}()

	require.Eventually(t, func() bool {
		return monitor.QueueDepth() == 1
	}, time.Second, time.Millisecond)

	// 第三个请求超出队列上限，立即被拒绝
	_, err = monitor.Acquire(context.Background())
	require.Error(t, err)

	var exhausted *ResourceExhaustedError
	require.ErrorAs(t, err, &exhausted)

	// 释放槽位后排队者获得槽位
	release()
	require.NoError(t, <-queued)
}

// TestResourceMonitor_AcquireDeadline 测试排队期间超时
func TestResourceMonitor_AcquireDeadline(t *testing.T) {
	monitor := newTestMonitor(1, 4)

	release, err := monitor.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = monitor.Acquire(ctx)
	require.Error(t, err)

	// 排队超时归入超时错误分类，而非裸的上下文错误
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, 0, monitor.QueueDepth(), "超时后队列深度应回退")
}

// TestResourceMonitor_AcquireCancellation 测试排队期间主动取消
func TestResourceMonitor_AcquireCancellation(t *testing.T) {
	monitor := newTestMonitor(1, 4)

	release, err := monitor.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, acquireErr := monitor.Acquire(ctx)
		errCh <- acquireErr
	}()

	require.Eventually(t, func() bool {
		return monitor.QueueDepth() == 1
	}, time.Second, time.Millisecond)

	// 调用方主动取消原样透传，不归入超时分类
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	require.Equal(t, 0, monitor.QueueDepth(), "取消后队列深度应回退")
}

// TestResourceMonitor_Snapshot 测试资源快照
func TestResourceMonitor_Snapshot(t *testing.T) {
	monitor := newTestMonitor(4, 8)

	release, err := monitor.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	usage := monitor.Snapshot()
	require.Equal(t, 1, usage.ActiveTasks)
	require.Equal(t, 0, usage.QueueDepth)
	require.Greater(t, usage.MemoryUsage, uint64(0))
	require.GreaterOrEqual(t, usage.CPUUsage, 0.0)
}

// relaxedLimits 返回内存/CPU维度宽到不会触发的限制，
// 避免测试机资源状态影响健康结论。
func relaxedLimits() *ResourceLimits {
	limits := DefaultResourceLimits()
	limits.MemoryLimit = math.MaxUint64
	limits.CPULimit = 1 << 20
	return limits
}

// TestResourceMonitor_HealthHealthy 测试空闲时健康
func TestResourceMonitor_HealthHealthy(t *testing.T) {
	limits := relaxedLimits()
	limits.MaxActiveTasks = 100
	limits.MaxQueueDepth = 100

	monitor := NewResourceMonitor(limits, &testutil.MockLogger{})

	health := monitor.HealthCheck()
	require.Equal(t, types.Healthy, health.State)
	require.Empty(t, health.Reason)
}

// TestResourceMonitor_HealthDegraded 测试达到降级阈值
func TestResourceMonitor_HealthDegraded(t *testing.T) {
	limits := relaxedLimits()
	limits.MaxActiveTasks = 5
	limits.MaxQueueDepth = 100

	monitor := NewResourceMonitor(limits, &testutil.MockLogger{})

	// 占用4/5的槽位，达到80%降级阈值
	for i := 0; i < 4; i++ {
		release, err := monitor.Acquire(context.Background())
		require.NoError(t, err)
		defer release()
	}

	health := monitor.HealthCheck()
	require.Equal(t, types.Degraded, health.State)
	require.NotEmpty(t, health.Reason)
}

// TestResourceMonitor_HealthUnhealthy 测试达到上限
func TestResourceMonitor_HealthUnhealthy(t *testing.T) {
	limits := relaxedLimits()
	limits.MaxActiveTasks = 2
	limits.MaxQueueDepth = 100

	monitor := NewResourceMonitor(limits, &testutil.MockLogger{})

	for i := 0; i < 2; i++ {
		release, err := monitor.Acquire(context.Background())
		require.NoError(t, err)
		defer release()
	}

	health := monitor.HealthCheck()
	require.Equal(t, types.Unhealthy, health.State)
	require.NotEmpty(t, health.Reason)
}

// TestDefaultResourceLimits 测试默认限制合理
func TestDefaultResourceLimits(t *testing.T) {
	limits := DefaultResourceLimits()
	require.Greater(t, limits.NumThreads, 0)
	require.Greater(t, limits.MaxActiveTasks, int64(0))
	require.Greater(t, limits.MaxQueueDepth, int64(0))
	require.Greater(t, limits.MemoryLimit, uint64(0))
	require.Equal(t, 0.8, limits.DegradedRatio)
}

// TestResourceMonitor_PartialLimits 测试部分填写的限制配置零值回落默认
func TestResourceMonitor_PartialLimits(t *testing.T) {
	monitor := NewResourceMonitor(&ResourceLimits{NumThreads: 4}, &testutil.MockLogger{})

	limits := monitor.Limits()
	require.Equal(t, 4, limits.NumThreads, "显式设置的字段保留")
	require.Equal(t, int64(runtime.NumCPU()*2), limits.MaxActiveTasks)
	require.Equal(t, int64(runtime.NumCPU()*8), limits.MaxQueueDepth)
	require.Greater(t, limits.MemoryLimit, uint64(0))
	require.Greater(t, limits.CPULimit, 0.0)
	require.Equal(t, 0.8, limits.DegradedRatio)

	// 零值队列上限不应导致所有请求被拒绝
	release, err := monitor.Acquire(context.Background())
	require.NoError(t, err)
	release()
}
