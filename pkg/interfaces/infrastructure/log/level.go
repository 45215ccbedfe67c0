// 📊 **日志级别管理 (Log Level Management)**
//
// 本文件定义日志级别的兼容别名，级别常量本体定义在 pkg/types。

package log

import "github.com/axialabsresearch/frostgate-zkip/pkg/types"

// 兼容别名（定义在 pkg/types）
type LogLevel = types.LogLevel

// 常量别名
const (
	DebugLevel = types.DebugLevel
	InfoLevel  = types.InfoLevel
	WarnLevel  = types.WarnLevel
	ErrorLevel = types.ErrorLevel
	FatalLevel = types.FatalLevel
)
