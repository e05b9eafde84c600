package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/spoolprint/markup"
)

func ptr[T any](v T) *T { return &v }

func sampleSpool() Spool {
	return Spool{
		ID:              42,
		RemainingWeight: ptr(812.5),
		UsedWeight:      187.5,
		LotNr:           "L-7",
		Filament: Filament{
			ID:                   3,
			Name:                 "Galaxy Black",
			Material:             "PLA",
			Density:              1.24,
			Diameter:             1.75,
			SettingsExtruderTemp: ptr(215),
			Vendor:               &Vendor{ID: 1, Name: "Prusament"},
		},
		Extra: map[string]string{"dry_date": `"2026-01-05"`, "tags": `["matte","refill"]`},
	}
}

func TestPayload(t *testing.T) {
	assert.Equal(t, "WEB+SPOOLMAN:S-42", Payload(SpoolType, 42, false, "http://x"))
	assert.Equal(t, "WEB+SPOOLMAN:F-7", Payload(FilamentType, 7, false, ""))
	assert.Equal(t, "https://spoolman.local/spool/show/42", Payload(SpoolType, 42, true, "https://spoolman.local/"))
	assert.Equal(t, "https://spoolman.local/filament/show/7", Payload(FilamentType, 7, true, "https://spoolman.local"))
	assert.Equal(t, "WEB+SPOOLMAN:S-1", Payload(SpoolType, 1, true, ""), "no base URL falls back to the scheme form")
}

func TestToRecordUsesJSONNames(t *testing.T) {
	rec, err := ToRecord(sampleSpool())
	require.NoError(t, err)
	filament, ok := rec["filament"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "PLA", filament["material"])
	_, hasBed := filament["settings_bed_temp"]
	assert.False(t, hasBed, "unset optional fields stay unresolved")
}

func TestItemsUsesTemplates(t *testing.T) {
	tpl := Templates{
		Title:    "{filament.vendor.name}",
		Label:    "**{filament.material}** {remaining_weight} g{\nBed: {filament.settings_bed_temp}}\n{extra.tags}",
		Filename: "{filament.name} {extra.dry_date}",
	}
	items, err := Items(SpoolType, []Labeled{sampleSpool()}, tpl, PayloadOptions{ErrorLevel: "H"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, "WEB+SPOOLMAN:S-42", it.Value)
	assert.Equal(t, "H", it.ErrorLevel)
	require.NotNil(t, it.Vendor)
	assert.Equal(t, "Prusament", it.Vendor.Name)
	assert.Equal(t, "Prusament", markup.PlainText(it.Title))
	assert.Equal(t, "PLA 812.5 g\nmatte, refill", markup.PlainText(it.Label))
	assert.Equal(t, "Galaxy Black 2026-01-05", it.FilenameBase)
}

func TestItemsDefaultTemplates(t *testing.T) {
	f := sampleSpool().Filament
	f.ID = 9
	f.ArticleNumber = "AB-1"
	items, err := Items(FilamentType, []Labeled{f}, Templates{}, PayloadOptions{UseURL: true, BaseURL: "http://h"})
	require.NoError(t, err)

	it := items[0]
	assert.Equal(t, "http://h/filament/show/9", it.Value)
	assert.Equal(t, "Galaxy Black", markup.PlainText(it.Title))
	label := markup.PlainText(it.Label)
	assert.Contains(t, label, "ET: 215 °C")
	assert.NotContains(t, label, "BT:", "unset bed temperature removes its block")
	assert.Contains(t, label, "Art. AB-1")
	assert.Equal(t, "Prusament Galaxy Black F9", it.FilenameBase)
}

func TestItemsWithoutVendor(t *testing.T) {
	s := sampleSpool()
	s.Filament.Vendor = nil
	items, err := Items(SpoolType, []Labeled{s}, Templates{}, PayloadOptions{})
	require.NoError(t, err)
	assert.Nil(t, items[0].Vendor)
	assert.True(t, strings.HasPrefix(items[0].FilenameBase, "?"), "missing tags render the sentinel")
}

func TestItemsRejectsUnknownType(t *testing.T) {
	_, err := Items("vendor", nil, Templates{}, PayloadOptions{})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	recs, err := Decode(SpoolType, strings.NewReader(`[{"id":1,"filament":{"id":2,"name":"X","vendor":{"id":3,"name":"V"}}}]`))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].LabelID())
	assert.Equal(t, "V", recs[0].LabelVendor().Name)

	recs, err = Decode(FilamentType, strings.NewReader(`[{"id":5,"name":"Y"}]`))
	require.NoError(t, err)
	assert.Nil(t, recs[0].LabelVendor())

	_, err = Decode(SpoolType, strings.NewReader(`{`))
	assert.Error(t, err)
}
