package zkbackend

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/infrastructure/log"
)

// ============================================================================
// 制品缓存
// ============================================================================
//
// 🎯 **目的**：
//   - 缓存按内容指纹寻址的昂贵计算制品（编译电路、证明）
//   - 避免相同输入的重复计算
//   - 限制缓存占用（条目数上限 + TTL）
//
// 📋 **设计原则**：
//   - 基于内容指纹的缓存键
//   - 条目数达到上限时驱逐最久未访问者，并列时驱逐插入更早者
//   - 线程安全，命中/未命中/驱逐计数使用原子操作
//   - 惰性过期 + 后台定期清理（TTL的一半为清理间隔）
//
// ⚠️ **注意事项**：
//   - 只缓存成功结果，失败永远不会进入缓存
//   - 过期条目视为未命中并即时移除
//   - Clear 只清空条目，不重置累计命中/未命中计数
//
// ============================================================================

// CacheConfig 缓存配置
type CacheConfig struct {
	// MaxCircuits 电路缓存条目上限（0 = 默认100）
	MaxCircuits int

	// MaxProofs 证明缓存条目上限（0 = 默认1000）
	MaxProofs int

	// MaxAge 条目生存时间（0 = 默认30分钟）
	MaxAge time.Duration

	// EnableProofCache 是否启用证明缓存（电路缓存始终启用）
	EnableProofCache bool

	// SweepInterval 后台清理间隔（0 = MaxAge的一半）
	SweepInterval time.Duration
}

// 缓存配置的文档化默认值，零值字段回落到这些值
const (
	defaultMaxCircuits = 100
	defaultMaxProofs   = 1000
	defaultMaxAge      = 30 * time.Minute
)

// DefaultCacheConfig 返回默认缓存配置
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MaxCircuits:      defaultMaxCircuits,
		MaxProofs:        defaultMaxProofs,
		MaxAge:           defaultMaxAge,
		EnableProofCache: true,
	}
}

// maxCircuits 返回生效的电路缓存条目上限
func (c *CacheConfig) maxCircuits() int {
	if c.MaxCircuits > 0 {
		return c.MaxCircuits
	}
	return defaultMaxCircuits
}

// maxProofs 返回生效的证明缓存条目上限
func (c *CacheConfig) maxProofs() int {
	if c.MaxProofs > 0 {
		return c.MaxProofs
	}
	return defaultMaxProofs
}

// maxAge 返回生效的条目生存时间
func (c *CacheConfig) maxAge() time.Duration {
	if c.MaxAge > 0 {
		return c.MaxAge
	}
	return defaultMaxAge
}

// sweepInterval 返回生效的后台清理间隔
func (c *CacheConfig) sweepInterval() time.Duration {
	if c.SweepInterval > 0 {
		return c.SweepInterval
	}
	return c.maxAge() / 2
}

// artifactEntry 缓存条目
type artifactEntry[V any] struct {
	fingerprint Fingerprint
	value       V
	cachedAt    time.Time
	expiresAt   time.Time
	insertSeq   uint64       // 插入序号，驱逐并列时的决胜依据
	lastAccess  atomic.Int64 // 最后访问时间（UnixNano）
	accessCount atomic.Uint64
}

// ArtifactCache 按指纹寻址的通用制品缓存
type ArtifactCache[V any] struct {
	logger log.Logger
	name   string

	// 缓存存储
	entries map[Fingerprint]*artifactEntry[V]
	mu      sync.RWMutex

	// 缓存配置
	maxEntries int
	maxAge     time.Duration

	// 统计信息（生命周期内累计，Clear 不重置）
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	expired   atomic.Uint64

	// 插入序号分配器
	seq atomic.Uint64

	// 清理控制
	stopSweep chan struct{}
	stopOnce  sync.Once
}

// NewArtifactCache 创建制品缓存并启动后台清理goroutine
func NewArtifactCache[V any](name string, maxEntries int, maxAge time.Duration, sweepInterval time.Duration, logger log.Logger) *ArtifactCache[V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	if sweepInterval <= 0 {
		sweepInterval = maxAge / 2
	}

	cache := &ArtifactCache[V]{
		logger:     logger,
		name:       name,
		entries:    make(map[Fingerprint]*artifactEntry[V]),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		stopSweep:  make(chan struct{}),
	}

	go cache.sweepLoop(sweepInterval)

	return cache
}

// Get 按指纹查找缓存制品
//
// 过期条目视为未命中并即时移除。
func (c *ArtifactCache[V]) Get(fp Fingerprint) (value V, found bool) {
	now := time.Now()

	c.mu.RLock()
	entry, exists := c.entries[fp]
	if exists && now.Before(entry.expiresAt) {
		// 条目指纹与键必须一致，不一致说明缓存被破坏
		if entry.fingerprint != fp {
			c.mu.RUnlock()
			panic(fmt.Sprintf("缓存[%s]条目指纹与键不一致: %s != %s", c.name, entry.fingerprint.Hex(), fp.Hex()))
		}
		entry.lastAccess.Store(now.UnixNano())
		entry.accessCount.Add(1)
		c.mu.RUnlock()

		c.hits.Add(1)
		cacheRequestsTotal.WithLabelValues(c.name, "hit").Inc()
		return entry.value, true
	}
	c.mu.RUnlock()

	c.misses.Add(1)
	cacheRequestsTotal.WithLabelValues(c.name, "miss").Inc()

	if exists {
		// 惰性移除过期条目（升级为写锁后重新确认）
		c.mu.Lock()
		if cur, ok := c.entries[fp]; ok && !now.Before(cur.expiresAt) {
			delete(c.entries, fp)
			c.expired.Add(1)
		}
		c.mu.Unlock()
	}

	var zero V
	return zero, false
}

// Put 写入缓存制品
//
// 缓存已满时先驱逐最久未访问的条目。
func (c *ArtifactCache[V]) Put(fp Fingerprint, value V) {
	now := time.Now()

	entry := &artifactEntry[V]{
		fingerprint: fp,
		value:       value,
		cachedAt:    now,
		expiresAt:   now.Add(c.maxAge),
		insertSeq:   c.seq.Add(1),
	}
	entry.lastAccess.Store(now.UnixNano())

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[fp]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLRULocked()
	}

	c.entries[fp] = entry
}

// evictLRULocked 驱逐最久未访问的条目（并列时取插入更早者）
//
// 调用方必须持有写锁。
func (c *ArtifactCache[V]) evictLRULocked() {
	if len(c.entries) == 0 {
		return
	}

	var lruKey Fingerprint
	var lruAccess int64
	var lruSeq uint64
	first := true

	for key, entry := range c.entries {
		access := entry.lastAccess.Load()
		if first || access < lruAccess || (access == lruAccess && entry.insertSeq < lruSeq) {
			lruKey = key
			lruAccess = access
			lruSeq = entry.insertSeq
			first = false
		}
	}

	delete(c.entries, lruKey)
	c.evictions.Add(1)
}

// Clear 清空全部条目
//
// 累计命中/未命中计数保留，供长期命中率观测使用。
func (c *ArtifactCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Fingerprint]*artifactEntry[V])
}

// Len 返回当前条目数
func (c *ArtifactCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Hits 返回累计命中次数
func (c *ArtifactCache[V]) Hits() uint64 {
	return c.hits.Load()
}

// Misses 返回累计未命中次数
func (c *ArtifactCache[V]) Misses() uint64 {
	return c.misses.Load()
}

// Stats 获取缓存统计信息
func (c *ArtifactCache[V]) Stats() map[string]interface{} {
	hits := c.hits.Load()
	misses := c.misses.Load()

	totalRequests := hits + misses
	hitRate := 0.0
	if totalRequests > 0 {
		hitRate = float64(hits) / float64(totalRequests) * 100
	}

	return map[string]interface{}{
		"name":           c.name,
		"size":           c.Len(),
		"max_size":       c.maxEntries,
		"hits":           hits,
		"misses":         misses,
		"hit_rate":       hitRate,
		"evictions":      c.evictions.Load(),
		"expired":        c.expired.Load(),
		"total_requests": totalRequests,
	}
}

// sweepLoop 定期清理过期条目
func (c *ArtifactCache[V]) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopSweep:
			return
		}
	}
}

// sweep 移除全部过期条目
func (c *ArtifactCache[V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0

	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.expired.Add(uint64(expiredCount))
		if c.logger != nil {
			c.logger.Debugf("缓存[%s]清理了 %d 个过期条目", c.name, expiredCount)
		}
	}
}

// Stop 停止后台清理goroutine
func (c *ArtifactCache[V]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopSweep)
	})
}
