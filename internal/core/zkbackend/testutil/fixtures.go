// Package testutil 提供 zkbackend 模块测试的辅助工具
//
// 🧪 **测试数据Fixtures**
//
// 本文件提供测试数据的创建函数，用于简化测试代码编写。
package testutil

import (
	"crypto/rand"
	"fmt"
)

// ==================== 测试数据 Fixtures ====================

// RandomBytes 生成随机字节数组
func RandomBytes(size int) []byte {
	b := make([]byte, size)
	rand.Read(b)
	return b
}

// RandomProgram 生成随机程序字节（64 字节）
func RandomProgram() []byte {
	return RandomBytes(64)
}

// RandomInput 生成随机输入字节（32 字节）
func RandomInput() []byte {
	return RandomBytes(32)
}

// SequentialPrograms 生成 n 个互不相同的程序字节
func SequentialPrograms(n int) [][]byte {
	programs := make([][]byte, n)
	for i := 0; i < n; i++ {
		programs[i] = []byte(fmt.Sprintf("program-%04d", i))
	}
	return programs
}
