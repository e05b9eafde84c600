package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filamentRecord() Record {
	return Record{
		"id":                     float64(7),
		"name":                   "Galaxy Black",
		"material":               "PLA",
		"article_number":         "AB-1",
		"diameter":               1.75,
		"settings_extruder_temp": nil,
		"settings_bed_temp":      float64(60),
		"vendor": map[string]any{
			"name": "Prusament",
			"extra": map[string]any{
				"country": `"CZ"`,
			},
		},
		"extra": map[string]any{
			"dry_temp": "55",
			"notes":    `"keep dry"`,
			"tags":     `["matte","silk"]`,
			"broken":   "{not json",
			"empty":    "null",
		},
		"colors": []any{"#000000", "#ffffff"},
	}
}

func TestRenderTemplateTextScenario(t *testing.T) {
	rec := Record{"material": "PLA", "article_number": "AB-1"}
	assert.Equal(t, "PLA (AB-1)", RenderTemplateText("{material} ({article_number})", rec))
}

func TestRenderTemplateTextOptionalBlockSuppressed(t *testing.T) {
	rec := Record{"settings_extruder_temp": nil}
	assert.Equal(t, "", RenderTemplateText("{ET: {settings_extruder_temp} °C}", rec))
}

func TestRenderTemplateTextOptionalBlockPresent(t *testing.T) {
	rec := filamentRecord()
	got := RenderTemplateText("Bed{: {settings_bed_temp} °C}!", rec)
	assert.Equal(t, "Bed: 60 °C!", got)
}

func TestRenderTemplateTextSentinelLiteral(t *testing.T) {
	rec := filamentRecord()
	assert.Equal(t, "ET ?", RenderTemplateText("ET {settings_extruder_temp}", rec))
	assert.Equal(t, "? / ?", RenderTemplateText("{missing} / {vendor.missing}", rec))
}

func TestRenderTemplateTextNestedAndExtra(t *testing.T) {
	rec := filamentRecord()
	cases := map[string]string{
		"{vendor.name}":          "Prusament",
		"{vendor.extra.country}": "CZ",
		"{extra.dry_temp}°C":     "55°C",
		"{extra.notes}":          "keep dry",
		"{extra.tags}":           "matte, silk",
		"{extra.broken}":         "{not json",
		"{extra.empty}":          "?",
		"{diameter} mm":          "1.75 mm",
		"{id}":                   "7",
		"{colors[1]}":            "#ffffff",
		"{colors[5]}":            "?",
	}
	for tpl, want := range cases {
		assert.Equal(t, want, RenderTemplateText(tpl, rec), tpl)
	}
}

// 替换结果中的花括号不会被再次展开。
func TestRenderTemplateTextNoRecursiveExpansion(t *testing.T) {
	rec := Record{"a": "{b}", "b": "boom"}
	assert.Equal(t, "{b}", RenderTemplateText("{a}", rec))
}

func TestRenderTemplateTextMalformedLeftInPlace(t *testing.T) {
	rec := Record{"a": "1", "b": "2"}
	assert.Equal(t, "x {p{a}q{b}r} y", RenderTemplateText("x {p{a}q{b}r} y", rec))
}

func TestRenderTemplateTextDeepNestingLeftInPlace(t *testing.T) {
	assert.Equal(t, "{a{b{c}}}", RenderTemplateText("{a{b{c}}}", Record{"c": "X"}))
	assert.Equal(t, "{a{b{c}}}", RenderTemplateText("{a{b{c}}}", Record{}))
	assert.Equal(t, "PLA {a{b{c}}}", RenderTemplateText("{m} {a{b{c}}}", Record{"m": "PLA", "c": "X"}))
}

func TestRenderTemplateTextSingleTagProperty(t *testing.T) {
	values := []any{"text", float64(12), 0.4, true, float64(-3)}
	for _, v := range values {
		rec := Record{"field": v}
		got := RenderTemplateText("before {field} after", rec)
		assert.Equal(t, "before "+Stringify(v)+" after", got)
	}
}

func TestResolve(t *testing.T) {
	rec := filamentRecord()

	v, ok := Resolve(rec, "vendor.name")
	require.True(t, ok)
	assert.Equal(t, "Prusament", v)

	_, ok = Resolve(rec, "material.name")
	assert.False(t, ok, "descending into a scalar must fail")

	_, ok = Resolve(rec, "")
	assert.False(t, ok)

	_, ok = Resolve(nil, "name")
	assert.False(t, ok)
}

func TestInterpolate(t *testing.T) {
	rec := filamentRecord()
	assert.Equal(t, "Prusament-7.png", Interpolate("${vendor.name}-${id}.png", rec))
	assert.Equal(t, "${nope}", Interpolate("${nope}", rec))
	assert.Equal(t, "${x}", Interpolate("${x}", nil))
}

func TestPaths(t *testing.T) {
	paths := Paths(Record{"a": 1, "b": map[string]any{"c": 2}})
	assert.Equal(t, []string{"a", "b.c"}, paths)
}
