package logo

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 生成厂商名的文件名安全形式：小写、去掉重音符号，
// 其余非 [a-z0-9] 连续字符替换为 "-"，并去掉首尾的 "-"。
// Slugify(Slugify(s)) == Slugify(s)。
func Slugify(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	s := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(folded)), "-")
	return strings.Trim(s, "-")
}
