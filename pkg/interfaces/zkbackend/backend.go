// Package zkbackend 定义ZK后端抽象层的公共接口
//
// 📋 **ZK后端接口 (ZK Backend Interface)**
//
// 本包定义零知识证明后端的统一抽象，专注于：
// - 证明能力集接口：compile/prove/verify 由具体证明系统实现
// - 电路类型校验谓词：缓存未命中进入编译/证明前的前置检查
// - 后端门面接口：带缓存、资源治理和统计的完整证明入口
//
// 🎯 **设计原则**
// - 能力注入：具体证明系统（RISC0/SP1等价物）作为能力集接口的变体注入，
//   永远不是共享基类的子类
// - 字节不透明：证明与电路的字节布局由能力方拥有，本层不做任何解释
// - 显式配置：所有配置在构造时注入，构造后只读
package zkbackend

import (
	"context"

	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// CompiledCircuit 编译后的电路表示
//
// 字节布局由证明能力方拥有，本层仅负责缓存与度量。
type CompiledCircuit struct {
	// Bytes 序列化的约束系统
	Bytes []byte

	// Constraints 约束数量（能力方可选填写，0 表示未知）
	Constraints int
}

// ProvingCapability 证明能力集接口
//
// 🎯 **抽象接口**：统一 compile/prove/verify 三项密码学能力，
// 具体证明系统实现该接口后即可被证明引擎复用。
type ProvingCapability interface {
	// ID 返回能力标识（如 "gnark-groth16"）
	ID() string

	// Capabilities 返回支持的能力标签列表
	Capabilities() []string

	// Compile 编译程序为电路表示
	Compile(ctx context.Context, program []byte) (*CompiledCircuit, error)

	// Prove 为给定程序和输入生成证明
	Prove(ctx context.Context, program, input []byte, cfg *types.ZkConfig) ([]byte, *types.ProofMetadata, error)

	// Verify 验证证明与程序的对应关系
	Verify(ctx context.Context, program, proof []byte, cfg *types.ZkConfig) (bool, error)
}

// CircuitValidator 电路类型校验谓词
//
// 在缓存未命中进入编译/证明之前调用。
type CircuitValidator interface {
	// Validate 校验程序与电路类型标签的合法性
	Validate(program []byte, circuitType types.CircuitType) error
}

// ==================== 批量操作请求/结果 ====================

// ProveRequest 批量证明中的单项请求
type ProveRequest struct {
	Program     []byte
	Input       []byte
	CircuitType types.CircuitType
}

// ProveResult 批量证明中的单项结果
//
// 单项失败记录在 Err 中，不会丢弃兄弟请求的成功结果。
type ProveResult struct {
	Proof    []byte
	Metadata *types.ProofMetadata
	Err      error
}

// VerifyRequest 批量验证中的单项请求
type VerifyRequest struct {
	Program []byte
	Proof   []byte
}

// VerifyResult 批量验证中的单项结果
type VerifyResult struct {
	Valid bool
	Err   error
}

// ==================== 后端门面 ====================

// Backend ZK后端门面接口
//
// 🎯 **核心职责**：
// - 证明请求的缓存查找、资源准入、能力委托与统计更新
// - 验证永远重新执行，从不读写证明缓存
// - 批量操作按输入顺序返回结果，单项失败相互隔离
type Backend interface {
	// Prove 生成证明（带缓存与准入控制）
	Prove(ctx context.Context, program, input []byte, circuitType types.CircuitType, cfg *types.ZkConfig) ([]byte, *types.ProofMetadata, error)

	// Verify 验证证明（永远重新执行）
	Verify(ctx context.Context, program, proof []byte, cfg *types.ZkConfig) (bool, error)

	// BatchProve 并发执行多个证明请求，结果按输入顺序返回
	BatchProve(ctx context.Context, requests []ProveRequest, cfg *types.ZkConfig) ([]ProveResult, error)

	// BatchVerify 并发执行多个验证请求，结果按输入顺序返回
	BatchVerify(ctx context.Context, requests []VerifyRequest, cfg *types.ZkConfig) ([]VerifyResult, error)

	// ClearCache 清空电路缓存和证明缓存（不影响已越过缓存查找的在途请求）
	ClearCache()

	// ResourceUsage 返回当前资源使用快照
	ResourceUsage() types.ResourceUsage

	// HealthCheck 返回当前健康状态
	HealthCheck() types.HealthStatus

	// Stats 返回证明/验证统计快照
	Stats() types.ZkStats

	// CacheStats 返回缓存统计快照
	CacheStats() types.CacheStats
}
