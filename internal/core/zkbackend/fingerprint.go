package zkbackend

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"
)

// ==================== 内容指纹 ====================

// FingerprintSize 指纹字节长度（256位）
const FingerprintSize = 32

// Fingerprint 内容指纹
//
// 作为缓存键使用：值类型、可比较、与内容一一对应。
type Fingerprint [FingerprintSize]byte

// Hex 返回指纹的十六进制表示
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f[:])
}

// Bytes 返回指纹的字节切片副本
func (f Fingerprint) Bytes() []byte {
	out := make([]byte, FingerprintSize)
	copy(out, f[:])
	return out
}

// HashAlgorithm 指纹哈希算法
type HashAlgorithm string

const (
	// HashSHA256 SHA-256（默认）
	HashSHA256 HashAlgorithm = "sha256"

	// HashKeccak256 Keccak-256
	HashKeccak256 HashAlgorithm = "keccak256"
)

// ContentHasher 内容指纹计算器
//
// 🎯 **核心职责**：
// - 对一段或多段字节计算256位指纹
// - 每段前缀8字节大端长度，防止段边界歧义（"ab"+"c" 与 "a"+"bc" 指纹不同）
// - 同一输入在同一算法下指纹恒定
type ContentHasher struct {
	algorithm HashAlgorithm
}

// NewContentHasher 创建内容指纹计算器
func NewContentHasher(algorithm HashAlgorithm) (*ContentHasher, error) {
	switch algorithm {
	case "":
		algorithm = HashSHA256
	case HashSHA256, HashKeccak256:
	default:
		return nil, fmt.Errorf("不支持的指纹哈希算法: %s", algorithm)
	}
	return &ContentHasher{algorithm: algorithm}, nil
}

// Algorithm 返回当前使用的哈希算法
func (h *ContentHasher) Algorithm() HashAlgorithm {
	return h.algorithm
}

// newHash 按配置创建底层哈希实例
func (h *ContentHasher) newHash() hash.Hash {
	if h.algorithm == HashKeccak256 {
		return sha3.NewLegacyKeccak256()
	}
	return sha256.New()
}

// Sum 计算多段内容的组合指纹
//
// 每段写入前先写入8字节大端长度前缀，段的顺序影响结果。
func (h *ContentHasher) Sum(segments ...[]byte) Fingerprint {
	hasher := h.newHash()

	var prefix [8]byte
	for _, seg := range segments {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(seg)))
		hasher.Write(prefix[:])
		hasher.Write(seg)
	}

	var fp Fingerprint
	copy(fp[:], hasher.Sum(nil))
	return fp
}
