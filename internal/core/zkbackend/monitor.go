package zkbackend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pbnjay/memory"
	"golang.org/x/sync/semaphore"

	"github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/infrastructure/log"
	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// ============================================================================
// 资源监控与准入控制
// ============================================================================
//
// 🎯 **目的**：
//   - 提供进程CPU/内存/任务数/队列深度的按需快照
//   - 基于资源上限做证明请求的准入控制
//   - 将资源状态折算为三态健康结论
//
// 📋 **设计原则**：
//   - 快照按需计算，从不持久化
//   - 准入采用有界队列：并发槽满时排队，队列也满时立即拒绝
//   - 健康阈值：任一维度达到上限的80%为降级，达到100%为不健康
//
// ============================================================================

// ResourceLimits 资源限制配置
//
// 零值字段回落到 DefaultResourceLimits 的对应值。
type ResourceLimits struct {
	// NumThreads 证明工作线程数（批量操作默认并行度）
	NumThreads int

	// MemoryLimit 进程内存上限（字节）
	MemoryLimit uint64

	// MaxActiveTasks 同时进行的证明/验证任务上限
	MaxActiveTasks int64

	// MaxQueueDepth 等待队列深度上限
	MaxQueueDepth int64

	// CPULimit CPU使用率上限（1.0 = 单核满载）
	CPULimit float64

	// DegradedRatio 降级阈值（任一维度达到上限的该比例时降级）
	DegradedRatio float64
}

// DefaultResourceLimits 返回默认资源限制
func DefaultResourceLimits() *ResourceLimits {
	numCPU := runtime.NumCPU()
	return &ResourceLimits{
		NumThreads:     numCPU,
		MemoryLimit:    memory.TotalMemory() / 2, // 默认允许使用一半物理内存
		MaxActiveTasks: int64(numCPU * 2),
		MaxQueueDepth:  int64(numCPU * 8),
		CPULimit:       float64(numCPU),
		DegradedRatio:  0.8,
	}
}

// withDefaults 返回零值字段回落到默认值的副本
//
// 部分填写的限制配置（例如只设置 NumThreads）不应使准入控制失效。
func (l *ResourceLimits) withDefaults() *ResourceLimits {
	defaults := DefaultResourceLimits()
	if l == nil {
		return defaults
	}

	filled := *l
	if filled.NumThreads <= 0 {
		filled.NumThreads = defaults.NumThreads
	}
	if filled.MemoryLimit == 0 {
		filled.MemoryLimit = defaults.MemoryLimit
	}
	if filled.MaxActiveTasks <= 0 {
		filled.MaxActiveTasks = defaults.MaxActiveTasks
	}
	if filled.MaxQueueDepth <= 0 {
		filled.MaxQueueDepth = defaults.MaxQueueDepth
	}
	if filled.CPULimit <= 0 {
		filled.CPULimit = defaults.CPULimit
	}
	if filled.DegradedRatio <= 0 {
		filled.DegradedRatio = defaults.DegradedRatio
	}
	return &filled
}

// ResourceMonitor 资源监控器
type ResourceMonitor struct {
	logger log.Logger
	limits *ResourceLimits

	// 准入控制
	slots       *semaphore.Weighted
	activeTasks atomic.Int64
	queueDepth  atomic.Int64

	// CPU采样状态
	cpuMu       sync.Mutex
	lastCPUTime time.Duration // 进程累计CPU时间（用户态+内核态）
	lastSample  time.Time
	lastUsage   float64
}

// NewResourceMonitor 创建资源监控器
func NewResourceMonitor(limits *ResourceLimits, logger log.Logger) *ResourceMonitor {
	limits = limits.withDefaults()
	return &ResourceMonitor{
		logger: logger,
		limits: limits,
		slots:  semaphore.NewWeighted(limits.MaxActiveTasks),
	}
}

// Limits 返回资源限制配置
func (m *ResourceMonitor) Limits() *ResourceLimits {
	return m.limits
}

// Acquire 申请一个任务槽位
//
// 槽位满时进入有界等待队列；队列也满时立即返回资源耗尽错误。
// 成功时返回释放函数，调用方必须在任务结束后调用。
func (m *ResourceMonitor) Acquire(ctx context.Context) (release func(), err error) {
	// 有界排队：CAS保证队列深度严格不超过上限
	for {
		depth := m.queueDepth.Load()
		if depth >= m.limits.MaxQueueDepth {
			return nil, &ResourceExhaustedError{
				Reason: fmt.Sprintf("等待队列已满 (%d/%d)", depth, m.limits.MaxQueueDepth),
			}
		}
		if m.queueDepth.CompareAndSwap(depth, depth+1) {
			break
		}
	}

	start := time.Now()
	if err := m.slots.Acquire(ctx, 1); err != nil {
		m.queueDepth.Add(-1)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Op: "资源准入等待", Elapsed: time.Since(start)}
		}
		return nil, err
	}

	m.queueDepth.Add(-1)
	m.activeTasks.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.activeTasks.Add(-1)
			m.slots.Release(1)
		})
	}, nil
}

// ActiveTasks 返回当前活跃任务数
func (m *ResourceMonitor) ActiveTasks() int {
	return int(m.activeTasks.Load())
}

// QueueDepth 返回当前等待队列深度
func (m *ResourceMonitor) QueueDepth() int {
	return int(m.queueDepth.Load())
}

// Snapshot 按需计算资源使用快照
func (m *ResourceMonitor) Snapshot() types.ResourceUsage {
	return types.ResourceUsage{
		CPUUsage:        m.cpuUsage(),
		MemoryUsage:     processRSSBytes(),
		AvailableMemory: memory.FreeMemory(),
		ActiveTasks:     m.ActiveTasks(),
		QueueDepth:      m.QueueDepth(),
	}
}

// HealthCheck 将资源状态折算为三态健康结论
//
// 任一维度达到上限为不健康，达到降级阈值为降级，否则健康。
func (m *ResourceMonitor) HealthCheck() types.HealthStatus {
	usage := m.Snapshot()

	type dimension struct {
		name  string
		ratio float64
	}

	dims := make([]dimension, 0, 4)
	if m.limits.MemoryLimit > 0 {
		dims = append(dims, dimension{"内存", float64(usage.MemoryUsage) / float64(m.limits.MemoryLimit)})
	}
	if m.limits.MaxActiveTasks > 0 {
		dims = append(dims, dimension{"活跃任务", float64(usage.ActiveTasks) / float64(m.limits.MaxActiveTasks)})
	}
	if m.limits.MaxQueueDepth > 0 {
		dims = append(dims, dimension{"等待队列", float64(usage.QueueDepth) / float64(m.limits.MaxQueueDepth)})
	}
	if m.limits.CPULimit > 0 {
		dims = append(dims, dimension{"CPU", usage.CPUUsage / m.limits.CPULimit})
	}

	worst := dimension{}
	for _, d := range dims {
		if d.ratio > worst.ratio {
			worst = d
		}
	}

	switch {
	case worst.ratio >= 1.0:
		return types.HealthStatus{
			State:  types.Unhealthy,
			Reason: fmt.Sprintf("%s已达到上限 (%.0f%%)", worst.name, worst.ratio*100),
		}
	case worst.ratio >= m.limits.DegradedRatio:
		return types.HealthStatus{
			State:  types.Degraded,
			Reason: fmt.Sprintf("%s接近上限 (%.0f%%)", worst.name, worst.ratio*100),
		}
	default:
		return types.HealthStatus{State: types.Healthy}
	}
}

// cpuUsage 计算进程CPU使用率
//
// 基于两次采样之间的CPU时间差与墙上时间差之比，
// 采样间隔不足100毫秒时返回上一次结果以避免抖动。
func (m *ResourceMonitor) cpuUsage() float64 {
	m.cpuMu.Lock()
	defer m.cpuMu.Unlock()

	now := time.Now()
	cpuTime, ok := processCPUTime()
	if !ok {
		return m.lastUsage
	}

	if m.lastSample.IsZero() {
		m.lastCPUTime = cpuTime
		m.lastSample = now
		return 0
	}

	wall := now.Sub(m.lastSample)
	if wall < 100*time.Millisecond {
		return m.lastUsage
	}

	usage := float64(cpuTime-m.lastCPUTime) / float64(wall)
	if usage < 0 {
		usage = 0
	}

	m.lastCPUTime = cpuTime
	m.lastSample = now
	m.lastUsage = usage
	return usage
}

// processCPUTime 返回进程累计CPU时间（用户态+内核态）
func processCPUTime() (time.Duration, bool) {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0, false
	}
	user := time.Duration(rusage.Utime.Sec)*time.Second + time.Duration(rusage.Utime.Usec)*time.Microsecond
	sys := time.Duration(rusage.Stime.Sec)*time.Second + time.Duration(rusage.Stime.Usec)*time.Microsecond
	return user + sys, true
}

// processRSSBytes 返回进程当前RSS（字节）
func processRSSBytes() uint64 {
	switch runtime.GOOS {
	case "darwin":
		// macOS: ru_maxrss 单位是字节，返回的是峰值 RSS（不是当前RSS）
		var rusage syscall.Rusage
		if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
			return rssFromRuntime()
		}
		return uint64(rusage.Maxrss)
	case "linux":
		if rss := rssFromProc(); rss > 0 {
			return rss
		}
		return rssFromRuntime()
	default:
		return rssFromRuntime()
	}
}

// rssFromProc 从 /proc/self/status 读取 RSS（Linux）
func rssFromProc() uint64 {
	file, err := os.Open("/proc/self/status")
	if err != nil {
		return 0
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "VmRSS:") {
			// 格式：VmRSS:    12345 kB
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				kb, err := strconv.ParseUint(fields[1], 10, 64)
				if err != nil {
					return 0
				}
				return kb * 1024 // 转换为字节
			}
		}
	}

	return 0
}

// rssFromRuntime 其他平台的兜底估算
func rssFromRuntime() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapInuse + stats.StackInuse
}
