package zkbackend

import (
	"context"

	"go.uber.org/fx"

	"github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/infrastructure/log"
	backendiface "github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/zkbackend"
)

// Module 返回 zkbackend 模块的 fx.Option
//
// 提供：
// - *Engine: 证明引擎（同时以 Backend 接口导出）
//
// 依赖：
// - zkbackend.ProvingCapability: 具体证明系统能力
// - zkbackend.CircuitValidator: 电路校验器（可选）
// - log.Logger: 日志记录器（可选）
// - *EngineConfig: 引擎配置（可选）
func Module() fx.Option {
	return fx.Module("zkbackend",
		fx.Provide(NewEngineProvider),
		fx.Provide(func(engine *Engine) backendiface.Backend { return engine }),
		fx.Invoke(RegisterEngineLifecycle),
	)
}

// EngineProviderInput 定义证明引擎的输入依赖
type EngineProviderInput struct {
	fx.In

	Capability backendiface.ProvingCapability `optional:"false"`
	Validator  backendiface.CircuitValidator  `optional:"true"`
	Logger     log.Logger                     `optional:"true"`
	Config     *EngineConfig                  `optional:"true"`
}

// NewEngineProvider 创建证明引擎实例
func NewEngineProvider(input EngineProviderInput) (*Engine, error) {
	config := input.Config
	if config == nil {
		config = DefaultEngineConfig()
	}

	var logger log.Logger
	if input.Logger != nil {
		logger = input.Logger.With("module", "zkbackend")
	}

	return NewEngine(input.Capability, input.Validator, config, logger)
}

// RegisterEngineLifecycle 将引擎关闭挂接到 fx 生命周期
func RegisterEngineLifecycle(lifecycle fx.Lifecycle, engine *Engine) {
	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return engine.Close()
		},
	})
}
