package service

import (
	"strings"
	"unicode/utf8"
)

// TruncateWords 在词边界截断文本到不超过 max 个字节，
// 截断时附加省略标记。截断点不会落在多字节字符中间。
func TruncateWords(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}

	// 先退到字符边界，再找词边界
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	head := text[:cut]
	if idx := strings.LastIndexAny(head, " \t\n"); idx > 0 {
		head = head[:idx]
	}

	return strings.TrimSpace(head) + "..."
}
