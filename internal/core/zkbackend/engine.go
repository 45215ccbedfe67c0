package zkbackend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/infrastructure/log"
	backendiface "github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/zkbackend"
	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// ============================================================================
// 证明引擎门面
// ============================================================================
//
// 🎯 **目的**：
//   - 为调用方提供统一的证明/验证入口
//   - 串联输入校验、缓存查找、资源准入、能力委托、统计与归档
//   - 证明系统细节完全由注入的 ProvingCapability 承担
//
// 📋 **设计原则**：
//   - 校验在任何缓存查找和资源准入之前完成
//   - 验证永远重新执行，从不读写证明缓存
//   - 批量操作单项失败相互隔离，结果按输入顺序返回
//   - 统计只反映真实计算：缓存命中不更新均值
//
// ============================================================================

// EngineConfig 证明引擎配置
type EngineConfig struct {
	// Cache 缓存配置（nil = 默认）
	Cache *CacheConfig

	// Limits 资源限制（nil = 默认）
	Limits *ResourceLimits

	// HashAlgorithm 指纹哈希算法（空 = sha256）
	HashAlgorithm HashAlgorithm

	// ArchiveWindow 证明归档保留窗口（0 = 禁用归档）
	ArchiveWindow time.Duration
}

// DefaultEngineConfig 返回默认引擎配置
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Cache:         DefaultCacheConfig(),
		Limits:        DefaultResourceLimits(),
		HashAlgorithm: HashSHA256,
	}
}

// Engine 证明引擎
type Engine struct {
	logger     log.Logger
	capability backendiface.ProvingCapability
	validator  backendiface.CircuitValidator

	hasher   *ContentHasher
	circuits *CircuitCache
	proofs   *ProofCache
	monitor  *ResourceMonitor
	stats    *StatsRecorder
	archive  *ProofArchive // 可为nil（归档禁用）

	closeOnce sync.Once
}

// NewEngine 创建证明引擎
//
// capability 为必选；validator 为nil时使用基础校验器。
func NewEngine(capability backendiface.ProvingCapability, validator backendiface.CircuitValidator, config *EngineConfig, logger log.Logger) (*Engine, error) {
	if capability == nil {
		return nil, fmt.Errorf("证明能力不能为空")
	}
	if config == nil {
		config = DefaultEngineConfig()
	}
	if config.Cache == nil {
		config.Cache = DefaultCacheConfig()
	}
	if config.Limits == nil {
		config.Limits = DefaultResourceLimits()
	}
	if validator == nil {
		validator = NewBasicValidator(0)
	}

	hasher, err := NewContentHasher(config.HashAlgorithm)
	if err != nil {
		return nil, err
	}

	var archive *ProofArchive
	if config.ArchiveWindow > 0 {
		archive, err = NewProofArchive(config.ArchiveWindow, logger)
		if err != nil {
			return nil, err
		}
	}

	engine := &Engine{
		logger:     logger,
		capability: capability,
		validator:  validator,
		hasher:     hasher,
		circuits:   NewCircuitCache(hasher, config.Cache, logger),
		proofs:     NewProofCache(hasher, config.Cache, logger),
		monitor:    NewResourceMonitor(config.Limits, logger),
		stats:      NewStatsRecorder(),
		archive:    archive,
	}

	if logger != nil {
		logger.Infof("证明引擎已创建: capability=%s, proof_cache=%v, archive=%v",
			capability.ID(), config.Cache.EnableProofCache, archive != nil)
	}

	return engine, nil
}

// Prove 生成证明
//
// 流程：校验 → 证明缓存查找 → 资源准入 → 电路编译（带缓存）→ 能力委托 → 统计与归档。
func (e *Engine) Prove(ctx context.Context, program, input []byte, circuitType types.CircuitType, cfg *types.ZkConfig) ([]byte, *types.ProofMetadata, error) {
	cfg = effectiveConfig(cfg)

	// 校验先于缓存查找：非法请求不产生缓存流量
	if err := e.validateProveInput(program, input, circuitType, cfg); err != nil {
		return nil, nil, err
	}

	requestID := shortRequestID()

	ctx, cancel := context.WithTimeout(ctx, cfg.ProvingTimeout)
	defer cancel()

	entry, hit, err := e.proofs.GetOrProve(ctx, program, input, func(proveCtx context.Context) ([]byte, *types.ProofMetadata, error) {
		return e.proveMiss(proveCtx, requestID, program, input, circuitType, cfg)
	})
	if err != nil {
		if e.logger != nil {
			e.logger.Errorf("证明请求失败: request=%s, type=%s, err=%v", requestID, circuitType, err)
		}
		return nil, nil, err
	}

	if hit && e.logger != nil {
		e.logger.Debugf("证明缓存命中: request=%s, fingerprint=%s", requestID, entry.Fingerprint.Hex())
	}

	return entry.Proof, entry.Metadata, nil
}

// proveMiss 证明缓存未命中路径
func (e *Engine) proveMiss(ctx context.Context, requestID string, program, input []byte, circuitType types.CircuitType, cfg *types.ZkConfig) ([]byte, *types.ProofMetadata, error) {
	// 资源准入：并发槽满时有界排队，队列满时立即拒绝
	release, err := e.monitor.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	// 电路编译（带缓存与请求合并）
	circuitEntry, circuitHit, err := e.circuits.GetOrCompile(ctx, program, func(compileCtx context.Context) (*backendiface.CompiledCircuit, error) {
		return e.capability.Compile(compileCtx, program)
	})
	if err != nil {
		e.stats.RecordProof(0, false)
		return nil, nil, err
	}

	if e.logger != nil {
		e.logger.Debugf("电路就绪: request=%s, hit=%v, constraints=%d",
			requestID, circuitHit, circuitEntry.Circuit.Constraints)
	}

	start := time.Now()
	proof, metadata, err := e.capability.Prove(ctx, program, input, cfg)
	elapsed := time.Since(start)

	e.stats.RecordProof(elapsed, err == nil)

	if err != nil {
		return nil, nil, &ProveError{Err: err}
	}

	if metadata == nil {
		metadata = &types.ProofMetadata{}
	}
	metadata.CircuitType = circuitType
	metadata.GenerationTime = elapsed
	metadata.ProofSize = len(proof)
	metadata.ProgramHash = circuitEntry.Fingerprint.Hex()
	metadata.BackendID = e.capability.ID()
	metadata.Timestamp = time.Now()

	if e.archive != nil {
		fp := e.hasher.Sum(program, input)
		if archiveErr := e.archive.Store(fp, proof); archiveErr != nil && e.logger != nil {
			// 归档失败不影响证明结果
			e.logger.Warnf("证明归档失败: request=%s, err=%v", requestID, archiveErr)
		}
	}

	return proof, metadata, nil
}

// Verify 验证证明
//
// 永远委托能力方重新执行，从不读写证明缓存。
// 验证与证明共用同一个准入门：活跃任务数与队列深度覆盖两类任务。
func (e *Engine) Verify(ctx context.Context, program, proof []byte, cfg *types.ZkConfig) (bool, error) {
	cfg = effectiveConfig(cfg)

	if len(program) == 0 {
		return false, &ValidationError{Reason: "程序为空"}
	}
	if len(proof) == 0 {
		return false, &ValidationError{Reason: "证明为空"}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.VerificationTimeout)
	defer cancel()

	release, err := e.monitor.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	start := time.Now()
	valid, err := e.capability.Verify(ctx, program, proof, cfg)
	elapsed := time.Since(start)

	// 验证过程异常与"证明无效"是两种不同结果
	e.stats.RecordVerification(elapsed, err == nil)

	if err != nil {
		return false, &VerifyError{Err: err}
	}
	return valid, nil
}

// BatchProve 并发执行多个证明请求
//
// 请求切片非法时整批拒绝；单项失败记录在对应结果中，不影响兄弟项。
// 结果严格按输入顺序返回。
func (e *Engine) BatchProve(ctx context.Context, requests []backendiface.ProveRequest, cfg *types.ZkConfig) ([]backendiface.ProveResult, error) {
	if len(requests) == 0 {
		return nil, &ValidationError{Reason: "批量请求为空"}
	}
	cfg = effectiveConfig(cfg)

	results := make([]backendiface.ProveResult, len(requests))
	sem := semaphore.NewWeighted(int64(batchWorkers(cfg, e.monitor.Limits())))

	var wg sync.WaitGroup
	for i, req := range requests {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = backendiface.ProveResult{Err: err}
			continue
		}

		wg.Add(1)
		go func(idx int, r backendiface.ProveRequest) {
			defer wg.Done()
			defer sem.Release(1)

			proof, metadata, err := e.Prove(ctx, r.Program, r.Input, r.CircuitType, cfg)
			results[idx] = backendiface.ProveResult{Proof: proof, Metadata: metadata, Err: err}
		}(i, req)
	}
	wg.Wait()

	return results, nil
}

// BatchVerify 并发执行多个验证请求
func (e *Engine) BatchVerify(ctx context.Context, requests []backendiface.VerifyRequest, cfg *types.ZkConfig) ([]backendiface.VerifyResult, error) {
	if len(requests) == 0 {
		return nil, &ValidationError{Reason: "批量请求为空"}
	}
	cfg = effectiveConfig(cfg)

	results := make([]backendiface.VerifyResult, len(requests))
	sem := semaphore.NewWeighted(int64(batchWorkers(cfg, e.monitor.Limits())))

	var wg sync.WaitGroup
	for i, req := range requests {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = backendiface.VerifyResult{Err: err}
			continue
		}

		wg.Add(1)
		go func(idx int, r backendiface.VerifyRequest) {
			defer wg.Done()
			defer sem.Release(1)

			valid, err := e.Verify(ctx, r.Program, r.Proof, cfg)
			results[idx] = backendiface.VerifyResult{Valid: valid, Err: err}
		}(i, req)
	}
	wg.Wait()

	return results, nil
}

// ClearCache 清空电路缓存和证明缓存
//
// 已越过缓存查找的在途请求不受影响，其结果仍会写入清空后的缓存。
func (e *Engine) ClearCache() {
	e.circuits.Clear()
	e.proofs.Clear()

	if e.logger != nil {
		e.logger.Info("证明缓存与电路缓存已清空")
	}
}

// ResourceUsage 返回当前资源使用快照
func (e *Engine) ResourceUsage() types.ResourceUsage {
	return e.monitor.Snapshot()
}

// HealthCheck 返回当前健康状态
func (e *Engine) HealthCheck() types.HealthStatus {
	return e.monitor.HealthCheck()
}

// Stats 返回证明/验证统计快照
func (e *Engine) Stats() types.ZkStats {
	return e.stats.Snapshot()
}

// CacheStats 返回缓存统计快照
func (e *Engine) CacheStats() types.CacheStats {
	return types.CacheStats{
		CircuitEntries: e.circuits.Len(),
		ProofEntries:   e.proofs.Len(),
		CircuitHits:    e.circuits.Hits(),
		ProofHits:      e.proofs.Hits(),
	}
}

// Archive 返回证明归档（归档禁用时为nil）
func (e *Engine) Archive() *ProofArchive {
	return e.archive
}

// Close 停止后台清理并释放资源
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.circuits.Stop()
		e.proofs.Stop()
		if e.archive != nil {
			err = e.archive.Close()
		}
	})
	return err
}

// validateProveInput 证明请求的前置校验
func (e *Engine) validateProveInput(program, input []byte, circuitType types.CircuitType, cfg *types.ZkConfig) error {
	if err := e.validator.Validate(program, circuitType); err != nil {
		return err
	}

	if cfg.MaxProgramSize > 0 && len(program) > cfg.MaxProgramSize {
		return &ValidationError{
			Reason: fmt.Sprintf("程序大小超限: %d > %d", len(program), cfg.MaxProgramSize),
		}
	}
	if cfg.MaxInputSize > 0 && len(input) > cfg.MaxInputSize {
		return &ValidationError{
			Reason: fmt.Sprintf("输入大小超限: %d > %d", len(input), cfg.MaxInputSize),
		}
	}

	return nil
}

// effectiveConfig 补齐配置默认值，返回副本避免修改调用方配置
func effectiveConfig(cfg *types.ZkConfig) *types.ZkConfig {
	defaults := types.DefaultZkConfig()
	if cfg == nil {
		return defaults
	}

	out := *cfg
	if out.ProvingTimeout <= 0 {
		out.ProvingTimeout = defaults.ProvingTimeout
	}
	if out.VerificationTimeout <= 0 {
		out.VerificationTimeout = defaults.VerificationTimeout
	}
	return &out
}

// batchWorkers 返回批量操作的生效并行度
func batchWorkers(cfg *types.ZkConfig, limits *ResourceLimits) int {
	if cfg.ParallelWorkers > 0 {
		return cfg.ParallelWorkers
	}
	if limits != nil && limits.NumThreads > 0 {
		return limits.NumThreads
	}
	return 1
}

// shortRequestID 生成用于日志关联的短请求ID
func shortRequestID() string {
	return uuid.NewString()[:8]
}

// 接口实现断言
var _ backendiface.Backend = (*Engine)(nil)
