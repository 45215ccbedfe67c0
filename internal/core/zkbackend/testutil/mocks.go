// Package testutil 提供 zkbackend 模块测试的辅助工具
//
// 🧪 **测试辅助工具包**
//
// 本包提供测试所需的 Mock 对象、测试数据和辅助函数，用于简化测试代码编写。
package testutil

import (
	"context"
	"crypto/sha256"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/infrastructure/log"
	backendiface "github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/zkbackend"
	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// ==================== Mock 对象 ====================

// MockLogger 统一的日志Mock实现
//
// ✅ **设计原则**：最小实现，所有方法返回空值，不记录日志
// 📋 **使用场景**：不需要验证日志调用的测试用例
type MockLogger struct{}

func (m *MockLogger) Debug(msg string)                          {}
func (m *MockLogger) Debugf(format string, args ...interface{}) {}
func (m *MockLogger) Info(msg string)                           {}
func (m *MockLogger) Infof(format string, args ...interface{})  {}
func (m *MockLogger) Warn(msg string)                           {}
func (m *MockLogger) Warnf(format string, args ...interface{})  {}
func (m *MockLogger) Error(msg string)                          {}
func (m *MockLogger) Errorf(format string, args ...interface{}) {}
func (m *MockLogger) Fatal(msg string)                          {}
func (m *MockLogger) Fatalf(format string, args ...interface{}) {}
func (m *MockLogger) With(args ...interface{}) log.Logger       { return m }
func (m *MockLogger) Sync() error                               { return nil }
func (m *MockLogger) GetZapLogger() *zap.Logger                 { return zap.NewNop() }

// CountingCapability 带调用计数的证明能力Mock
//
// ✅ **设计原则**：记录 Compile/Prove/Verify 的调用次数，
// 用于验证缓存命中与请求合并行为
type CountingCapability struct {
	// CompileCalls Compile 被真实调用的次数
	CompileCalls atomic.Int64

	// ProveCalls Prove 被真实调用的次数
	ProveCalls atomic.Int64

	// VerifyCalls Verify 被真实调用的次数
	VerifyCalls atomic.Int64

	// Delay 每次调用的人为延迟（模拟耗时计算）
	Delay time.Duration

	// VerifyResult Verify 的固定返回值
	VerifyResult bool

	mu         sync.Mutex
	compileErr error
	proveErr   error
	verifyErr  error
}

// NewCountingCapability 创建计数能力Mock
func NewCountingCapability() *CountingCapability {
	return &CountingCapability{VerifyResult: true}
}

// FailCompile 设置 Compile 返回的错误（nil 恢复正常）
func (c *CountingCapability) FailCompile(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compileErr = err
}

// FailProve 设置 Prove 返回的错误（nil 恢复正常）
func (c *CountingCapability) FailProve(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proveErr = err
}

// FailVerify 设置 Verify 返回的错误（nil 恢复正常）
func (c *CountingCapability) FailVerify(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifyErr = err
}

func (c *CountingCapability) ID() string {
	return "mock-capability"
}

func (c *CountingCapability) Capabilities() []string {
	return []string{"compile", "prove", "verify"}
}

func (c *CountingCapability) Compile(ctx context.Context, program []byte) (*backendiface.CompiledCircuit, error) {
	c.CompileCalls.Add(1)
	c.sleep(ctx)

	c.mu.Lock()
	err := c.compileErr
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256(program)
	return &backendiface.CompiledCircuit{
		Bytes:       digest[:],
		Constraints: len(program),
	}, nil
}

func (c *CountingCapability) Prove(ctx context.Context, program, input []byte, cfg *types.ZkConfig) ([]byte, *types.ProofMetadata, error) {
	c.ProveCalls.Add(1)
	c.sleep(ctx)

	c.mu.Lock()
	err := c.proveErr
	c.mu.Unlock()
	if err != nil {
		return nil, nil, err
	}

	// 证明内容由程序和输入确定，便于断言缓存返回的是同一份结果
	digest := sha256.Sum256(append(append([]byte{}, program...), input...))
	return digest[:], &types.ProofMetadata{}, nil
}

func (c *CountingCapability) Verify(ctx context.Context, program, proof []byte, cfg *types.ZkConfig) (bool, error) {
	c.VerifyCalls.Add(1)
	c.sleep(ctx)

	c.mu.Lock()
	err := c.verifyErr
	c.mu.Unlock()
	if err != nil {
		return false, err
	}

	return c.VerifyResult, nil
}

// sleep 模拟耗时计算，同时尊重上下文取消
func (c *CountingCapability) sleep(ctx context.Context) {
	if c.Delay <= 0 {
		return
	}
	select {
	case <-time.After(c.Delay):
	case <-ctx.Done():
	}
}

// 接口实现断言
var (
	_ log.Logger                     = (*MockLogger)(nil)
	_ backendiface.ProvingCapability = (*CountingCapability)(nil)
)
