package zkbackend

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/infrastructure/log"
	backendiface "github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/zkbackend"
)

// ==================== 电路缓存 ====================

// CircuitEntry 电路缓存条目
type CircuitEntry struct {
	// Fingerprint 程序指纹
	Fingerprint Fingerprint

	// Circuit 编译后的电路
	Circuit *backendiface.CompiledCircuit

	// CompiledAt 编译完成时间
	CompiledAt time.Time

	// SizeBytes 序列化电路大小（字节）
	SizeBytes int
}

// CompileFunc 电路编译回调
type CompileFunc func(ctx context.Context) (*backendiface.CompiledCircuit, error)

// CircuitCache 带请求合并的电路缓存
//
// 🎯 **核心职责**：
// - 按程序指纹缓存编译结果，相同程序只编译一次
// - 并发请求同一未缓存程序时合并为单次编译
// - 编译失败不缓存，后续请求重新尝试
//
// ⚠️ **注意事项**：
// - 调用方超时只放弃等待，进行中的编译继续完成并写入缓存
type CircuitCache struct {
	logger log.Logger
	hasher *ContentHasher

	cache *ArtifactCache[*CircuitEntry]
	group singleflight.Group
}

// NewCircuitCache 创建电路缓存
func NewCircuitCache(hasher *ContentHasher, config *CacheConfig, logger log.Logger) *CircuitCache {
	return &CircuitCache{
		logger: logger,
		hasher: hasher,
		cache:  NewArtifactCache[*CircuitEntry]("circuit", config.maxCircuits(), config.maxAge(), config.sweepInterval(), logger),
	}
}

// GetOrCompile 获取缓存电路，未命中时编译并缓存
//
// 返回值 hit 表示是否直接命中缓存。
func (c *CircuitCache) GetOrCompile(ctx context.Context, program []byte, compile CompileFunc) (entry *CircuitEntry, hit bool, err error) {
	fp := c.hasher.Sum(program)

	if cached, found := c.cache.Get(fp); found {
		return cached, true, nil
	}

	start := time.Now()

	// 相同程序的并发编译请求合并为一次
	ch := c.group.DoChan(fp.Hex(), func() (interface{}, error) {
		// 合并窗口内可能已有完成者写入缓存
		if cached, found := c.cache.Get(fp); found {
			return cached, nil
		}

		// 编译不随调用方超时取消，完成后写入缓存供后续请求复用
		compileCtx := context.WithoutCancel(ctx)

		circuit, compileErr := compile(compileCtx)
		if compileErr != nil {
			return nil, &CompileError{Err: compileErr}
		}

		newEntry := &CircuitEntry{
			Fingerprint: fp,
			Circuit:     circuit,
			CompiledAt:  time.Now(),
			SizeBytes:   len(circuit.Bytes),
		}
		c.cache.Put(fp, newEntry)

		if c.logger != nil {
			c.logger.Debugf("电路编译完成: fingerprint=%s, size=%d, constraints=%d",
				fp.Hex(), newEntry.SizeBytes, circuit.Constraints)
		}

		return newEntry, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*CircuitEntry), false, nil
	case <-ctx.Done():
		// 放弃等待，编译在后台继续
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, false, &TimeoutError{Op: "电路编译等待", Elapsed: time.Since(start)}
		}
		return nil, false, ctx.Err()
	}
}

// Get 按程序内容查找缓存电路（只读）
func (c *CircuitCache) Get(program []byte) (*CircuitEntry, bool) {
	return c.cache.Get(c.hasher.Sum(program))
}

// Clear 清空电路缓存
func (c *CircuitCache) Clear() {
	c.cache.Clear()
}

// Len 返回当前条目数
func (c *CircuitCache) Len() int {
	return c.cache.Len()
}

// Hits 返回累计命中次数
func (c *CircuitCache) Hits() uint64 {
	return c.cache.Hits()
}

// Stats 获取缓存统计信息
func (c *CircuitCache) Stats() map[string]interface{} {
	return c.cache.Stats()
}

// Stop 停止后台清理
func (c *CircuitCache) Stop() {
	c.cache.Stop()
}
