package zkbackend

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/infrastructure/log"
	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// ==================== 证明缓存 ====================

// ProofEntry 证明缓存条目
type ProofEntry struct {
	// Fingerprint 程序与输入的组合指纹
	Fingerprint Fingerprint

	// Proof 证明字节（由证明能力方拥有布局）
	Proof []byte

	// Metadata 证明元数据
	Metadata *types.ProofMetadata

	// GeneratedAt 证明生成时间
	GeneratedAt time.Time
}

// ProveFunc 证明生成回调
type ProveFunc func(ctx context.Context) ([]byte, *types.ProofMetadata, error)

// ProofCache 带请求合并的证明缓存
//
// 🎯 **核心职责**：
// - 按 (程序, 输入) 组合指纹缓存证明
// - 并发请求同一未缓存组合时合并为单次证明
// - 证明失败不缓存；缓存可整体禁用（每次都重新证明）
type ProofCache struct {
	logger log.Logger
	hasher *ContentHasher

	enabled bool
	cache   *ArtifactCache[*ProofEntry]
	group   singleflight.Group
}

// NewProofCache 创建证明缓存
func NewProofCache(hasher *ContentHasher, config *CacheConfig, logger log.Logger) *ProofCache {
	return &ProofCache{
		logger:  logger,
		hasher:  hasher,
		enabled: config.EnableProofCache,
		cache:   NewArtifactCache[*ProofEntry]("proof", config.maxProofs(), config.maxAge(), config.sweepInterval(), logger),
	}
}

// Enabled 返回证明缓存是否启用
func (c *ProofCache) Enabled() bool {
	return c.enabled
}

// GetOrProve 获取缓存证明，未命中时生成并缓存
//
// 缓存禁用时直接调用 prove，不读写缓存也不合并请求。
// 返回值 hit 表示是否直接命中缓存。
func (c *ProofCache) GetOrProve(ctx context.Context, program, input []byte, prove ProveFunc) (entry *ProofEntry, hit bool, err error) {
	if !c.enabled {
		proof, metadata, proveErr := prove(ctx)
		if proveErr != nil {
			return nil, false, proveErr
		}
		return &ProofEntry{
			Fingerprint: c.hasher.Sum(program, input),
			Proof:       proof,
			Metadata:    metadata,
			GeneratedAt: time.Now(),
		}, false, nil
	}

	fp := c.hasher.Sum(program, input)

	if cached, found := c.cache.Get(fp); found {
		return cached, true, nil
	}

	start := time.Now()

	// 相同 (程序, 输入) 的并发证明请求合并为一次
	ch := c.group.DoChan(fp.Hex(), func() (interface{}, error) {
		if cached, found := c.cache.Get(fp); found {
			return cached, nil
		}

		// 证明不随调用方超时取消，完成后写入缓存供后续请求复用
		proveCtx := context.WithoutCancel(ctx)

		proof, metadata, proveErr := prove(proveCtx)
		if proveErr != nil {
			return nil, proveErr
		}

		newEntry := &ProofEntry{
			Fingerprint: fp,
			Proof:       proof,
			Metadata:    metadata,
			GeneratedAt: time.Now(),
		}
		c.cache.Put(fp, newEntry)

		if c.logger != nil {
			c.logger.Debugf("证明生成完成: fingerprint=%s, size=%d", fp.Hex(), len(proof))
		}

		return newEntry, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*ProofEntry), false, nil
	case <-ctx.Done():
		// 放弃等待，证明在后台继续
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, false, &TimeoutError{Op: "证明生成等待", Elapsed: time.Since(start)}
		}
		return nil, false, ctx.Err()
	}
}

// Clear 清空证明缓存
func (c *ProofCache) Clear() {
	c.cache.Clear()
}

// Len 返回当前条目数
func (c *ProofCache) Len() int {
	return c.cache.Len()
}

// Hits 返回累计命中次数
func (c *ProofCache) Hits() uint64 {
	return c.cache.Hits()
}

// Stats 获取缓存统计信息
func (c *ProofCache) Stats() map[string]interface{} {
	return c.cache.Stats()
}

// Stop 停止后台清理
func (c *ProofCache) Stop() {
	c.cache.Stop()
}
