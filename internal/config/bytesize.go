package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-viper/mapstructure/v2"
)

// ByteSize 以字节为单位的大小，配置中可写作 "4MiB"、"10MB" 或整数
type ByteSize int64

// ParseByteSize 解析人类可读的大小字符串
func ParseByteSize(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	return ByteSize(n), nil
}

// Int64 返回字节数
func (b ByteSize) Int64() int64 {
	return int64(b)
}

// String 返回 IEC 格式（如 "4.0 MiB"）
func (b ByteSize) String() string {
	if b < 0 {
		return fmt.Sprintf("%d B", int64(b))
	}
	return humanize.IBytes(uint64(b))
}

var byteSizeType = reflect.TypeOf(ByteSize(0))

// byteSizeHookFunc 将字符串配置解码为 ByteSize
func byteSizeHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != byteSizeType || from.Kind() != reflect.String {
			return data, nil
		}
		return ParseByteSize(data.(string))
	}
}
