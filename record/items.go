package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/spoolprint/binding"
	"github.com/ByLCY/spoolprint/layout"
	"github.com/ByLCY/spoolprint/markup"
)

// Templates 是生成标签内容所用的三段模板。空模板使用类型默认值。
type Templates struct {
	Title    string `json:"titleTemplate,omitempty"`
	Label    string `json:"template,omitempty"`
	Filename string `json:"filenameTemplate,omitempty"`
}

// DefaultTemplates 返回各记录类型的默认模板。
func DefaultTemplates(rt ResourceType) Templates {
	if rt == FilamentType {
		return Templates{
			Title:    "**{name}**",
			Label:    "**{material}**{ · {diameter} mm}\n{ET: {settings_extruder_temp} °C}{ BT: {settings_bed_temp} °C}\n{Art. {article_number}}",
			Filename: "{vendor.name} {name} F{id}",
		}
	}
	return Templates{
		Title:    "**{filament.name}**",
		Label:    "**{filament.material}** #{id}\n{ET: {filament.settings_extruder_temp} °C}{ BT: {filament.settings_bed_temp} °C}\n{Lot {lot_nr}}{ · {location}}",
		Filename: "{filament.vendor.name} {filament.name} S{id}",
	}
}

// WithDefaults 用 rt 的默认模板补齐空字段。
func (t Templates) WithDefaults(rt ResourceType) Templates {
	def := DefaultTemplates(rt)
	if t.Title == "" {
		t.Title = def.Title
	}
	if t.Label == "" {
		t.Label = def.Label
	}
	if t.Filename == "" {
		t.Filename = def.Filename
	}
	return t
}

// PayloadOptions 控制二维码内容。
type PayloadOptions struct {
	UseURL  bool
	BaseURL string
	// ErrorLevel 为空时由布局选择默认等级。
	ErrorLevel string
}

// Payload 返回记录的二维码内容：WEB+SPOOLMAN:S-{id} / F-{id}，
// 或在 useURL 且 baseURL 非空时返回 {baseURL}/{type}/show/{id}。
func Payload(rt ResourceType, id int, useURL bool, baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if useURL && base != "" {
		return fmt.Sprintf("%s/%s/show/%d", base, rt, id)
	}
	prefix := "S"
	if rt == FilamentType {
		prefix = "F"
	}
	return "WEB+SPOOLMAN:" + prefix + "-" + strconv.Itoa(id)
}

// Items 为每条记录生成一个 LabelItem，顺序与输入一致。
func Items(rt ResourceType, records []Labeled, tpl Templates, opts PayloadOptions) ([]layout.LabelItem, error) {
	if !rt.Valid() {
		return nil, fmt.Errorf("未知的记录类型 %q", rt)
	}
	tpl = tpl.WithDefaults(rt)
	items := make([]layout.LabelItem, 0, len(records))
	for _, r := range records {
		rec, err := ToRecord(r)
		if err != nil {
			return nil, fmt.Errorf("%s #%d: %w", rt, r.LabelID(), err)
		}
		items = append(items, layout.LabelItem{
			Value:        Payload(rt, r.LabelID(), opts.UseURL, opts.BaseURL),
			Vendor:       r.LabelVendor(),
			Title:        markup.RenderLabelContents(tpl.Title, rec),
			Label:        markup.RenderLabelContents(tpl.Label, rec),
			ErrorLevel:   opts.ErrorLevel,
			FilenameBase: strings.TrimSpace(binding.RenderTemplateText(tpl.Filename, rec)),
		})
	}
	return items, nil
}
