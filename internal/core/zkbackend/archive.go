package zkbackend

import (
	"context"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/golang/snappy"

	"github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/infrastructure/log"
)

// ==================== 证明归档 ====================

// ProofArchive 近期证明归档
//
// 🎯 **核心职责**：
// - 以指纹为键归档已序列化的证明字节，供外部系统在生成后一段时间内取回
// - snappy压缩存储，按生命周期窗口自动淘汰
//
// ⚠️ **注意事项**：
// - 归档与证明缓存相互独立：ClearCache 不清空归档
// - 归档未命中只代表证明已淘汰，不代表证明无效
type ProofArchive struct {
	logger log.Logger
	cache  *bigcache.BigCache
}

// NewProofArchive 创建证明归档
//
// lifeWindow 为归档条目的保留窗口。
func NewProofArchive(lifeWindow time.Duration, logger log.Logger) (*ProofArchive, error) {
	if lifeWindow <= 0 {
		lifeWindow = time.Hour
	}

	config := bigcache.DefaultConfig(lifeWindow)
	config.CleanWindow = lifeWindow / 4

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("创建归档存储失败: %w", err)
	}

	return &ProofArchive{
		logger: logger,
		cache:  cache,
	}, nil
}

// Store 归档一个证明
func (a *ProofArchive) Store(fp Fingerprint, proof []byte) error {
	compressed := snappy.Encode(nil, proof)
	if err := a.cache.Set(fp.Hex(), compressed); err != nil {
		return fmt.Errorf("归档证明失败: %w", err)
	}
	return nil
}

// Load 按指纹取回归档证明
func (a *ProofArchive) Load(fp Fingerprint) ([]byte, bool, error) {
	compressed, err := a.cache.Get(fp.Hex())
	if err != nil {
		if err == bigcache.ErrEntryNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("读取归档证明失败: %w", err)
	}

	proof, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, false, fmt.Errorf("解压归档证明失败: %w", err)
	}
	return proof, true, nil
}

// Len 返回归档条目数
func (a *ProofArchive) Len() int {
	return a.cache.Len()
}

// Close 关闭归档并释放资源
func (a *ProofArchive) Close() error {
	return a.cache.Close()
}
