package binding

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ByLCY/spoolprint/dsl"
)

// Sentinel 是无法解析的标签的占位输出。
const Sentinel = "?"

// extraNamespace 下的值是 JSON 编码的字符串，需要先解码。
const extraNamespace = "extra"

// Record 是模板可访问的记录图，通常由 record 包从领域对象转换而来。
type Record = map[string]any

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// RenderTemplateText 将 {tag} 与 {prefix{tag}suffix} 替换为记录中的值。
// 替换结果不会被再次扫描；形状不合法的片段原样保留。
func RenderTemplateText(template string, record Record) string {
	tpl := dsl.ParseTemplate(template)
	var out strings.Builder
	for _, part := range tpl.Parts {
		switch part.Kind {
		case dsl.TagPart:
			out.WriteString(ResolveString(record, part.Path))
		case dsl.BlockPart:
			val := ResolveString(record, part.Path)
			if val == Sentinel {
				continue
			}
			out.WriteString(part.Prefix)
			out.WriteString(val)
			out.WriteString(part.Suffix)
		default:
			out.WriteString(part.Raw)
		}
	}
	return out.String()
}

// ResolveString 解析 path 并转为字符串；未解析时返回 Sentinel。
func ResolveString(record Record, path string) string {
	val, ok := Resolve(record, path)
	if !ok {
		return Sentinel
	}
	return Stringify(val)
}

// Resolve 沿 path 逐段访问记录。extra.<key> 会对存储的 JSON 字符串解码；
// 其它段在嵌套对象中递归，支持 name[0] 形式的数组下标。nil 视为缺失。
func Resolve(record Record, path string) (any, bool) {
	if record == nil || path == "" {
		return nil, false
	}
	head, tail, _ := strings.Cut(path, ".")
	if head == extraNamespace && tail != "" {
		return resolveExtra(record, tail)
	}

	name, indexes := parseSegment(head)
	var current any = record
	if name != "" {
		var ok bool
		current, ok = descendMap(current, name)
		if !ok {
			return nil, false
		}
	}
	for _, idxStr := range indexes {
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return nil, false
		}
		var ok bool
		current, ok = descendArray(current, idx)
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	if tail == "" {
		return current, true
	}
	nested, ok := current.(map[string]any)
	if !ok {
		return nil, false
	}
	return Resolve(nested, tail)
}

func resolveExtra(record Record, key string) (any, bool) {
	extra, ok := record[extraNamespace].(map[string]any)
	if !ok {
		return nil, false
	}
	raw, ok := extra[key]
	if !ok || raw == nil {
		return nil, false
	}
	encoded, ok := raw.(string)
	if !ok {
		// 已经解码过的值直接返回
		return raw, true
	}
	var decoded any
	if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
		return encoded, true
	}
	if decoded == nil {
		return nil, false
	}
	return decoded, true
}

// Stringify 将解析出的值格式化为标签文本。
func Stringify(val any) string {
	switch v := val.(type) {
	case nil:
		return Sentinel
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则返回原占位符。
func Interpolate(text string, data Record) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		path := strings.TrimSpace(groups[1])
		if path == "" {
			return match
		}
		if val, ok := Resolve(data, path); ok {
			return Stringify(val)
		}
		return match
	})
}

// Paths 列出记录中所有可作为标签使用的叶子路径（排序后），供 CLI 提示可用标签。
func Paths(record Record) []string {
	var out []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			if nested, ok := v.(map[string]any); ok {
				walk(p, nested)
				continue
			}
			out = append(out, p)
		}
	}
	walk("", record)
	sort.Strings(out)
	return out
}

func parseSegment(segment string) (string, []string) {
	name := segment
	indexes := []string{}
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 {
			if rest[0] != '[' {
				break
			}
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, rest[1:end])
			rest = rest[end+1:]
		}
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
