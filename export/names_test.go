package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"Prusament PLA Galaxy Black S12": "Prusament PLA Galaxy Black S12",
		`a<b>c:d"e/f\g|h?i*j`:            "a_b_c_d_e_f_g_h_i_j",
		"  lots   of\tspace\n ":          "lots of space",
		"trailing dots...":               "trailing dots",
		"...":                            "label",
		"":                               "label",
		"tab\x01ctrl":                    "tab_ctrl",
	}
	for in, want := range cases {
		assert.Equal(t, want, Sanitize(in), "input %q", in)
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"", " . ", "PLA / PETG", strings.Repeat("x", 200) + ". ", strings.Repeat("a ", 80) + "...",
		"über:filament?", "\x00\x1f", "ends with space. .",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
		assert.LessOrEqual(t, len([]rune(once)), MaxNameLength)
	}
}

func TestNameAllocator(t *testing.T) {
	a := NewNameAllocator()
	assert.Equal(t, "x.png", a.Next("x", ".png"))
	assert.Equal(t, "x_01.png", a.Next("X", ".png"))
	assert.Equal(t, "x_02.png", a.Next("x", ".png"))
	assert.Equal(t, "x.aml", a.Next("x", ".aml"))

	b := NewNameAllocator()
	assert.Equal(t, "x_01.png", b.Next("x_01", ".png"))
	assert.Equal(t, "x.png", b.Next("x", ".png"))
	assert.Equal(t, "x_02.png", b.Next("x", ".png"), "skips a name that is already taken")
}
