// Package zkbackend 实现ZK后端抽象层的核心逻辑
//
// 🏗️ **ZK后端核心 (ZK Backend Core)**
//
// 本包实现零知识证明后端的缓存、资源治理、统计与门面逻辑，
// 具体证明系统通过 pkg/interfaces/zkbackend.ProvingCapability 注入。
package zkbackend

import (
	"fmt"
	"time"

	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// ==================== 错误类型 ====================

// ValidationError 输入校验失败
//
// 在任何缓存查找或资源准入之前返回。
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("输入校验失败: %s", e.Reason)
}

// CompileError 电路编译失败
//
// 编译失败的结果永远不会进入电路缓存。
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("电路编译失败: %v", e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// ProveError 证明生成失败
type ProveError struct {
	Err error
}

func (e *ProveError) Error() string {
	return fmt.Sprintf("证明生成失败: %v", e.Err)
}

func (e *ProveError) Unwrap() error {
	return e.Err
}

// VerifyError 验证过程异常
//
// 区别于验证正常完成但结论为"证明无效"的情形。
type VerifyError struct {
	Err error
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("验证过程异常: %v", e.Err)
}

func (e *VerifyError) Unwrap() error {
	return e.Err
}

// ResourceExhaustedError 资源耗尽，请求被准入控制拒绝
type ResourceExhaustedError struct {
	Reason string
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("资源耗尽: %s", e.Reason)
}

// TimeoutError 操作超时
type TimeoutError struct {
	Op      string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("操作超时: %s 已耗时 %v", e.Op, e.Elapsed)
}

// newInvalidCircuitTypeError 构造非法电路类型错误
func newInvalidCircuitTypeError(t types.CircuitType) *ValidationError {
	return &ValidationError{
		Reason: fmt.Sprintf("非法电路类型标签 0x%02x", byte(t)),
	}
}
