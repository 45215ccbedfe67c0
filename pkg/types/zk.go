// Package types 提供ZKIP系统的公共值类型定义
//
// 📋 **公共类型 (Shared Value Types)**
//
// 本包定义跨模块共享的值类型，专注于：
// - 电路类型标签和合法性判断
// - 资源使用快照和健康状态
// - 证明元数据和统计信息
// - 单次操作配置（超时、尺寸上限、并行度）
//
// 🎯 **设计原则**
// - 纯数据：所有类型为纯值类型，不携带行为依赖
// - 不可变：快照类型一经返回不再被修改
// - 零依赖：仅依赖标准库，供接口层和实现层共同引用
package types

import "time"

// ==================== 电路类型 ====================

// CircuitType 电路类型标签（单字节）
type CircuitType byte

const (
	// CircuitTypeMessage 消息电路
	CircuitTypeMessage CircuitType = 0x01

	// CircuitTypeTransaction 交易电路
	CircuitTypeTransaction CircuitType = 0x02

	// CircuitTypeBlock 区块电路
	CircuitTypeBlock CircuitType = 0x03
)

// Valid 判断电路类型标签是否合法
func (t CircuitType) Valid() bool {
	switch t {
	case CircuitTypeMessage, CircuitTypeTransaction, CircuitTypeBlock:
		return true
	default:
		return false
	}
}

// String 返回电路类型的可读名称
func (t CircuitType) String() string {
	switch t {
	case CircuitTypeMessage:
		return "message"
	case CircuitTypeTransaction:
		return "transaction"
	case CircuitTypeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ==================== 资源与健康 ====================

// ResourceUsage 资源使用快照
//
// 按需重新计算，从不持久化。
type ResourceUsage struct {
	// CPUUsage 进程CPU使用率（0.0-1.0，多核场景可能超过1.0）
	CPUUsage float64

	// MemoryUsage 进程当前内存使用（字节）
	MemoryUsage uint64

	// AvailableMemory 系统可用内存（字节）
	AvailableMemory uint64

	// ActiveTasks 活跃证明/验证任务数
	ActiveTasks int

	// QueueDepth 已通过准入但尚未开始计算的请求数
	QueueDepth int
}

// HealthState 健康状态枚举
type HealthState int

const (
	// Healthy 所有维度均低于降级阈值
	Healthy HealthState = iota

	// Degraded 任一维度处于降级区间（默认80%-100%）
	Degraded

	// Unhealthy 任一维度达到或超过其上限
	Unhealthy
)

// String 返回健康状态的可读名称
func (s HealthState) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Unhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// HealthStatus 健康检查结果
//
// 纯派生值：由当前资源使用与配置上限计算得出，无独立存储。
type HealthStatus struct {
	State  HealthState
	Reason string // 触发降级/不健康的维度描述（健康时为空）
}

// ==================== 统计信息 ====================

// ZkStats 证明/验证统计信息
//
// 计数器在后端生命周期内单调递增；均值采用增量更新维护。
type ZkStats struct {
	TotalProofs         uint64
	TotalVerifications  uint64
	TotalFailures       uint64
	AvgProvingTime      time.Duration
	AvgVerificationTime time.Duration
}

// CacheStats 缓存统计信息
type CacheStats struct {
	CircuitEntries int
	ProofEntries   int
	CircuitHits    uint64
	ProofHits      uint64
}

// ==================== 证明元数据 ====================

// ProofMetadata 证明元数据
type ProofMetadata struct {
	// CircuitType 生成该证明的电路类型
	CircuitType CircuitType

	// GenerationTime 证明生成耗时
	GenerationTime time.Duration

	// ProofSize 证明大小（字节）
	ProofSize int

	// ProgramHash 程序指纹（十六进制）
	ProgramHash string

	// BackendID 生成证明的后端标识
	BackendID string

	// Timestamp 证明生成时间
	Timestamp time.Time
}

// ==================== 操作配置 ====================

// ZkConfig 单次证明/验证操作配置
//
// 所有字段可选，零值回落到文档化默认值。
type ZkConfig struct {
	// MaxProgramSize 程序字节上限（0 = 不限制）
	MaxProgramSize int

	// MaxInputSize 输入字节上限（0 = 不限制）
	MaxInputSize int

	// ProvingTimeout 证明超时（0 = 默认5分钟）
	ProvingTimeout time.Duration

	// VerificationTimeout 验证超时（0 = 默认30秒）
	VerificationTimeout time.Duration

	// ParallelWorkers 批量操作并行度（0 = 资源限制中的工作线程数）
	ParallelWorkers int
}

// DefaultZkConfig 返回默认操作配置
func DefaultZkConfig() *ZkConfig {
	return &ZkConfig{
		ProvingTimeout:      5 * time.Minute,  // 证明默认5分钟超时
		VerificationTimeout: 30 * time.Second, // 验证默认30秒超时
	}
}

// ==================== 日志级别 ====================

// LogLevel 日志级别
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)
