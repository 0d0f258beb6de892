// Package conv 提供类型转换、map/slice 转换等泛型工具，用于处理 JSON 解码得到的松散值。
package conv

import (
	"math"
	"strconv"
	"strings"
)

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32 以及数字字符串。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToInt64 将 any 转为 int64。
// 浮点数必须是整数值（JSON 数字解码后为 float64）。
func ToInt64(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int64:
		return val, true
	case int32:
		return int64(val), true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int64(val), true
	case float32:
		if float64(val) != math.Trunc(float64(val)) {
			return 0, false
		}
		return int64(val), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ToString 将 any 转为 string。
// 仅支持 string 类型，否则返回 ("", false)。
func ToString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Ptr 返回 v 的指针，用于构造可选字段。
func Ptr[T any](v T) *T {
	return &v
}

// Float32s 将 []float64 转为 []float32（向量库通常使用 float32）。
func Float32s(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}
