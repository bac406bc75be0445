// File: internal/xhs/text_test.go
package xhs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"ascii only", "hello", 5},
		{"cjk only", "测试", 4},
		{"mixed cjk and ascii", "测试123", 7},
		{"cjk punctuation counts double", "你好，世界", 10},
		{"emoji-free latin punctuation", "a-b c", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayWidth(tt.input))
		})
	}
}

func TestValidateTitleWidth(t *testing.T) {
	t.Run("accepts at the limit", func(t *testing.T) {
		// 10 CJK runes = 20 cells.
		title := "一二三四五六七八九十"
		assert.NoError(t, ValidateTitleWidth(title, 20))
	})

	t.Run("rejects one past the limit", func(t *testing.T) {
		title := "一二三四五六七八九十a"
		err := ValidateTitleWidth(title, 20)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds limit")
	})

	t.Run("width counts cells not runes", func(t *testing.T) {
		// 21 ASCII runes fit where 11 CJK runes would not.
		assert.NoError(t, ValidateTitleWidth("aaaaaaaaaaaaaaaaaaaa", 20))
		assert.Error(t, ValidateTitleWidth("一二三四五六七八九十一", 20))
	})
}
