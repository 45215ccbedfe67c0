// Package gnarkplug 提供基于gnark/Groth16的证明能力实现
//
// 🏗️ **Gnark证明能力 (Gnark Proving Capability)**
//
// 本包将gnark的Groth16证明系统适配为 zkbackend.ProvingCapability：
// - 电路形状固定（执行承诺电路），可信设置在首次使用时惰性完成
// - 证明/验证密钥在能力实例生命周期内复用
// - gnark自身的调试日志在操作期间被静默
package gnarkplug

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/infrastructure/log"
	backendiface "github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/zkbackend"
	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// CapabilityID 能力标识
const CapabilityID = "gnark-groth16"

// Plug gnark/Groth16证明能力
type Plug struct {
	logger log.Logger

	setupOnce sync.Once
	setupErr  error

	cs constraint.ConstraintSystem
	pk groth16.ProvingKey
	vk groth16.VerifyingKey
}

// New 创建gnark证明能力
func New(logger log.Logger) *Plug {
	return &Plug{logger: logger}
}

// ID 返回能力标识
func (p *Plug) ID() string {
	return CapabilityID
}

// Capabilities 返回支持的能力标签
func (p *Plug) Capabilities() []string {
	return []string{"compile", "prove", "verify", "groth16", "bn254"}
}

// ensureSetup 惰性完成电路编译与可信设置
func (p *Plug) ensureSetup() error {
	p.setupOnce.Do(func() {
		restore := silenceGnarkLogger()
		defer restore()

		cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &ExecutionCommitmentCircuit{})
		if err != nil {
			p.setupErr = fmt.Errorf("编译承诺电路失败: %w", err)
			return
		}

		pk, vk, err := groth16.Setup(cs)
		if err != nil {
			p.setupErr = fmt.Errorf("Groth16可信设置失败: %w", err)
			return
		}

		p.cs = cs
		p.pk = pk
		p.vk = vk

		if p.logger != nil {
			p.logger.Debugf("gnark可信设置完成: constraints=%d", cs.GetNbConstraints())
		}
	})
	return p.setupErr
}

// Compile 编译程序为电路表示
//
// 电路形状与程序内容无关，返回的是承诺电路的序列化约束系统。
func (p *Plug) Compile(ctx context.Context, program []byte) (*backendiface.CompiledCircuit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.ensureSetup(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := p.cs.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("序列化约束系统失败: %w", err)
	}

	return &backendiface.CompiledCircuit{
		Bytes:       buf.Bytes(),
		Constraints: p.cs.GetNbConstraints(),
	}, nil
}

// Prove 为给定程序和输入生成证明
func (p *Plug) Prove(ctx context.Context, program, input []byte, cfg *types.ZkConfig) ([]byte, *types.ProofMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := p.ensureSetup(); err != nil {
		return nil, nil, err
	}

	restore := silenceGnarkLogger()
	defer restore()

	assignment := &ExecutionCommitmentCircuit{
		ProgramDigest: digestToFieldElement(program),
		InputDigest:   digestToFieldElement(input),
	}

	fullWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, nil, fmt.Errorf("构建witness失败: %w", err)
	}

	proof, err := groth16.Prove(p.cs, p.pk, fullWitness)
	if err != nil {
		return nil, nil, fmt.Errorf("生成Groth16证明失败: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, nil, fmt.Errorf("序列化证明失败: %w", err)
	}

	return buf.Bytes(), &types.ProofMetadata{}, nil
}

// Verify 验证证明与程序的对应关系
//
// 证明无效返回 (false, nil)；反序列化或设置失败才返回错误。
func (p *Plug) Verify(ctx context.Context, program, proof []byte, cfg *types.ZkConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := p.ensureSetup(); err != nil {
		return false, err
	}

	restore := silenceGnarkLogger()
	defer restore()

	gnarkProof := groth16.NewProof(ecc.BN254)
	if _, err := gnarkProof.ReadFrom(bytes.NewReader(proof)); err != nil {
		return false, fmt.Errorf("反序列化证明失败: %w", err)
	}

	assignment := &ExecutionCommitmentCircuit{
		ProgramDigest: digestToFieldElement(program),
	}

	publicWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("构建公开witness失败: %w", err)
	}

	if err := groth16.Verify(gnarkProof, p.vk, publicWitness); err != nil {
		if p.logger != nil {
			p.logger.Debugf("证明验证未通过: %v", err)
		}
		return false, nil
	}

	return true, nil
}

// silenceGnarkLogger 临时禁用gnark库的日志输出
//
// gnark会输出大量调试信息（compiling circuit等），会污染日志系统。
// gnark使用zerolog，创建一个丢弃输出的zerolog.Logger替换。
func silenceGnarkLogger() (restore func()) {
	oldLogger := gnarklogger.Logger()
	gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
	return func() {
		gnarklogger.Set(oldLogger)
	}
}

// 接口实现断言
var _ backendiface.ProvingCapability = (*Plug)(nil)
