package export

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxNameLength 是文件名主体（不含扩展名与序号）的最大字符数。
const MaxNameLength = 120

const fallbackName = "label"

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	spaces       = regexp.MustCompile(`\s+`)
)

// Sanitize 把任意字符串变成可用的文件名主体：非法字符替换为 "_"，
// 连续空白合并为一个空格，截断到 MaxNameLength，去掉末尾的点与空格。
// 结果为空时返回 "label"。Sanitize 是幂等的。
func Sanitize(name string) string {
	s := invalidChars.ReplaceAllString(name, "_")
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	if r := []rune(s); len(r) > MaxNameLength {
		s = string(r[:MaxNameLength])
	}
	s = strings.TrimRight(s, ". ")
	if s == "" {
		return fallbackName
	}
	return s
}

// NameAllocator 为一次导出分配互不冲突的文件名（不区分大小写）。
// 第一个名字不带序号，之后依次追加 _01、_02…
type NameAllocator struct {
	used map[string]struct{}
}

// NewNameAllocator 创建空的分配器。
func NewNameAllocator() *NameAllocator {
	return &NameAllocator{used: map[string]struct{}{}}
}

// Next 返回 base+ext 或其带序号的变体。base 会先经过 Sanitize。
func (a *NameAllocator) Next(base, ext string) string {
	base = Sanitize(base)
	name := base + ext
	for n := 1; a.taken(name); n++ {
		name = fmt.Sprintf("%s_%02d%s", base, n, ext)
	}
	a.used[strings.ToLower(name)] = struct{}{}
	return name
}

func (a *NameAllocator) taken(name string) bool {
	_, ok := a.used[strings.ToLower(name)]
	return ok
}
