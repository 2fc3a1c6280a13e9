package util

import (
	"net/url"
	"path"
	"strings"
	"unicode"
)

// SanitizeTitle 先将连续空白替换为下划线，再去掉字母数字下划线以外的字符
// 用于生成压缩包内的文件名
func SanitizeTitle(s string) string {
	s = CollapseWhitespace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '_' || isASCIIAlnum(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeName 去掉字母数字以外的所有字符，用于生成压缩包名称
func SanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isASCIIAlnum(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CollapseWhitespace 将连续空白替换为单个下划线，用于生成目录名
func CollapseWhitespace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), "_")
}

// FileExt 从 URL 中取出文件扩展名（小写、不含点），取不到时返回 fallback
func FileExt(rawURL string, fallback string) string {
	u, err := url.Parse(rawURL)
	p := rawURL
	if err == nil {
		p = u.Path
	}
	ext := strings.TrimPrefix(path.Ext(p), ".")
	if ext == "" {
		return fallback
	}
	return strings.ToLower(ext)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
