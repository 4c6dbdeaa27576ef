package storage

import (
	"strconv"
)

// StrToUint 将字符串转换为 uint。转换失败时返回 0 和错误。
func StrToUint(s string) (uint, error) {
	val, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}
