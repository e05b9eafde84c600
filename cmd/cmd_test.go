package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/spoolprint/record"
)

const filamentsJSON = `[
  {"id": 1, "name": "PLA Galaxy Black", "material": "PLA", "diameter": 1.75, "density": 1.24,
   "settings_extruder_temp": 215, "vendor": {"id": 3, "name": "Prusament"}},
  {"id": 2, "name": "PETG Orange", "material": "PETG", "diameter": 1.75, "density": 1.27,
   "vendor": {"id": 3, "name": "Prusament"}}
]`

func run(t *testing.T, args ...string) string {
	t.Helper()
	root := RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExportPNGFiles(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "filaments.json", filamentsJSON)
	out := filepath.Join(dir, "out")

	stdout := run(t, "export",
		"--type", "filament", "--in", in, "--out", out,
		"--settings-backend", "memory", "--dpi", "96",
	)

	for _, name := range []string{"Prusament PLA Galaxy Black F1.png", "Prusament PETG Orange F2.png"} {
		assert.Contains(t, stdout, name)
		data, err := os.ReadFile(filepath.Join(out, name))
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	}
}

func TestExportAMLZipWithDebugAndPreview(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "filaments.json", filamentsJSON)
	out := filepath.Join(dir, "out")
	debug := filepath.Join(dir, "debug", "layout.json")
	preview := filepath.Join(dir, "preview.pdf")

	run(t, "export",
		"-t", "filament", "-i", in, "-o", out,
		"--settings-backend", "memory",
		"--format", "aml", "--zip", "--dpi", "150",
		"--debug", debug, "--preview", preview,
	)

	data, err := os.ReadFile(filepath.Join(out, "AML filament labels.zip"))
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	for _, f := range zr.File {
		assert.True(t, strings.HasSuffix(f.Name, ".aml"), f.Name)
	}

	_, err = os.Stat(debug)
	assert.NoError(t, err)
	pdf, err := os.ReadFile(preview)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestExportUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "filaments.json", filamentsJSON)
	out := filepath.Join(dir, "from-config")
	cfg := writeFile(t, dir, "spoolprint.yaml", "settings:\n  backend: memory\noutput:\n  dir: "+out+"\nexport:\n  use_url: true\n  base_url: http://spoolman.local/\n")

	run(t, "--config", cfg, "export", "-t", "filament", "-i", in, "--dpi", "96", "--debug", filepath.Join(dir, "d.json"))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	debug, err := os.ReadFile(filepath.Join(dir, "d.json"))
	require.NoError(t, err)
	assert.Contains(t, string(debug), "http://spoolman.local/filament/show/1")
}

func TestExportRejectsUnknownType(t *testing.T) {
	root := RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"export", "--type", "vendor", "--settings-backend", "memory"})
	assert.Error(t, root.Execute())
}

func TestPresetsLifecycle(t *testing.T) {
	store := filepath.Join(t.TempDir(), "settings.yaml")
	common := []string{"--settings-backend", "file", "--settings-path", store}
	presets := func(args ...string) string {
		return run(t, append(append([]string{"presets"}, args...), common...)...)
	}

	assert.Contains(t, presets("list"), "Default")

	out := presets("duplicate", "--name", "Narrow")
	assert.Contains(t, out, "Narrow")

	list := presets("list")
	assert.Contains(t, list, "Default")
	assert.Contains(t, list, "Narrow")

	presets("rename", "narrow", "Wide")
	list = presets("list")
	assert.Contains(t, list, "Wide")
	assert.NotContains(t, list, "Narrow")

	presets("delete", "Wide")
	list = presets("list")
	assert.NotContains(t, list, "Wide")

	list = presets("list", "--type", "filament")
	assert.Contains(t, list, "Default")

	raw, err := os.ReadFile(store)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "image_presets")
}

func TestPresetsDeleteUnknown(t *testing.T) {
	store := filepath.Join(t.TempDir(), "settings.yaml")
	root := RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"presets", "delete", "nope", "--settings-backend", "file", "--settings-path", store})
	assert.Error(t, root.Execute())
}

func TestTagsListsPaths(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "filaments.json", filamentsJSON)
	out := run(t, "tags", "-t", "filament", "-i", in, "--settings-backend", "memory")
	assert.Contains(t, out, "{vendor.name}\n")
	assert.Contains(t, out, "{settings_extruder_temp}\n")
	assert.Equal(t, 1, strings.Count(out, "{material}\n"))
}

func TestTagsUsedByDefaultPreset(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "filaments.json", filamentsJSON)
	out := run(t, "tags", "-t", "filament", "-i", in, "--used", "--settings-backend", "memory")
	assert.Contains(t, out, "{name}\tok\n")
	assert.Contains(t, out, "{settings_extruder_temp}\tok\n")
	assert.Contains(t, out, "{article_number}\tmissing\n")
	assert.Equal(t, 1, strings.Count(out, "{name}\t"), "重复引用只列一次")
}

func TestTemplateTagsOrderAndDedup(t *testing.T) {
	got := templateTags(record.Templates{Title: "{name}", Label: "{a}{ x {b}}{name}", Filename: "{b} {id}"})
	assert.Equal(t, []string{"name", "a", "b", "id"}, got)
}

func TestExportPaperAndOutputTemplate(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "filaments.json", filamentsJSON)

	run(t, "export", "-t", "filament", "-i", in,
		"-o", filepath.Join(dir, "${type}-${format}"),
		"--settings-backend", "memory", "--dpi", "96", "--paper", "50x30", "--format", "aml",
	)

	data, err := os.ReadFile(filepath.Join(dir, "filament-aml", "Prusament PETG Orange F2.aml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `labelWidth="50.000"`)
	assert.Contains(t, string(data), `labelHeight="30.000"`)
}
