package zkbackend

import (
	"fmt"

	backendiface "github.com/axialabsresearch/frostgate-zkip/pkg/interfaces/zkbackend"
	"github.com/axialabsresearch/frostgate-zkip/pkg/types"
)

// ==================== 电路校验 ====================

// BasicValidator 基础电路校验器
//
// 检查电路类型标签合法性、程序非空与尺寸上限。
// 具体证明系统可注入自定义校验器替换本实现。
type BasicValidator struct {
	// MaxProgramSize 程序字节上限（0 = 不限制）
	MaxProgramSize int
}

// NewBasicValidator 创建基础电路校验器
func NewBasicValidator(maxProgramSize int) *BasicValidator {
	return &BasicValidator{MaxProgramSize: maxProgramSize}
}

// Validate 校验程序与电路类型标签
func (v *BasicValidator) Validate(program []byte, circuitType types.CircuitType) error {
	if !circuitType.Valid() {
		return newInvalidCircuitTypeError(circuitType)
	}

	if len(program) == 0 {
		return &ValidationError{Reason: "程序为空"}
	}

	if v.MaxProgramSize > 0 && len(program) > v.MaxProgramSize {
		return &ValidationError{
			Reason: fmt.Sprintf("程序大小超限: %d > %d", len(program), v.MaxProgramSize),
		}
	}

	return nil
}

// 接口实现断言
var _ backendiface.CircuitValidator = (*BasicValidator)(nil)
