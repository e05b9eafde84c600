// Package record 定义导出所需的 Spoolman 记录模型，以及记录到 LabelItem 的转换。
package record

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ByLCY/spoolprint/binding"
	"github.com/ByLCY/spoolprint/layout"
)

// ResourceType 区分导出的记录类型。
type ResourceType string

const (
	SpoolType    ResourceType = "spool"
	FilamentType ResourceType = "filament"
)

// Valid 判断类型是否受支持。
func (t ResourceType) Valid() bool { return t == SpoolType || t == FilamentType }

// Vendor 厂商。
type Vendor struct {
	ID               int               `json:"id"`
	Registered       *time.Time        `json:"registered,omitempty"`
	Name             string            `json:"name"`
	Comment          string            `json:"comment,omitempty"`
	EmptySpoolWeight *float64          `json:"empty_spool_weight,omitempty"`
	ExternalID       string            `json:"external_id,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// Filament 耗材型号。
type Filament struct {
	ID                   int               `json:"id"`
	Registered           *time.Time        `json:"registered,omitempty"`
	Name                 string            `json:"name,omitempty"`
	Vendor               *Vendor           `json:"vendor,omitempty"`
	Material             string            `json:"material,omitempty"`
	Price                *float64          `json:"price,omitempty"`
	Density              float64           `json:"density"`
	Diameter             float64           `json:"diameter"`
	Weight               *float64          `json:"weight,omitempty"`
	SpoolWeight          *float64          `json:"spool_weight,omitempty"`
	ArticleNumber        string            `json:"article_number,omitempty"`
	Comment              string            `json:"comment,omitempty"`
	SettingsExtruderTemp *int              `json:"settings_extruder_temp,omitempty"`
	SettingsBedTemp      *int              `json:"settings_bed_temp,omitempty"`
	ColorHex             string            `json:"color_hex,omitempty"`
	MultiColorHexes      string            `json:"multi_color_hexes,omitempty"`
	MultiColorDirection  string            `json:"multi_color_direction,omitempty"`
	ExternalID           string            `json:"external_id,omitempty"`
	Extra                map[string]string `json:"extra,omitempty"`
}

// Spool 一卷耗材。
type Spool struct {
	ID              int               `json:"id"`
	Registered      *time.Time        `json:"registered,omitempty"`
	FirstUsed       *time.Time        `json:"first_used,omitempty"`
	LastUsed        *time.Time        `json:"last_used,omitempty"`
	Filament        Filament          `json:"filament"`
	Price           *float64          `json:"price,omitempty"`
	RemainingWeight *float64          `json:"remaining_weight,omitempty"`
	InitialWeight   *float64          `json:"initial_weight,omitempty"`
	SpoolWeight     *float64          `json:"spool_weight,omitempty"`
	UsedWeight      float64           `json:"used_weight"`
	RemainingLength *float64          `json:"remaining_length,omitempty"`
	UsedLength      float64           `json:"used_length"`
	Location        string            `json:"location,omitempty"`
	LotNr           string            `json:"lot_nr,omitempty"`
	Comment         string            `json:"comment,omitempty"`
	Archived        bool              `json:"archived"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// Labeled 是可以生成标签的记录。
type Labeled interface {
	LabelID() int
	LabelVendor() *layout.VendorRef
}

func (s Spool) LabelID() int                      { return s.ID }
func (s Spool) LabelVendor() *layout.VendorRef    { return vendorRef(s.Filament.Vendor) }
func (f Filament) LabelID() int                   { return f.ID }
func (f Filament) LabelVendor() *layout.VendorRef { return vendorRef(f.Vendor) }

func vendorRef(v *Vendor) *layout.VendorRef {
	if v == nil || v.Name == "" {
		return nil
	}
	return &layout.VendorRef{ID: v.ID, Name: v.Name}
}

// ToRecord 将记录转换为模板可解析的 binding.Record（按 JSON 字段名）。
func ToRecord(v any) (binding.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("序列化记录失败: %w", err)
	}
	var rec binding.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("转换记录失败: %w", err)
	}
	return rec, nil
}

// DecodeSpools 从 JSON 数组读取 spool 记录（Spoolman API 的 /spool 响应格式）。
func DecodeSpools(r io.Reader) ([]Spool, error) {
	var out []Spool
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("解析 spool 列表失败: %w", err)
	}
	return out, nil
}

// DecodeFilaments 从 JSON 数组读取 filament 记录。
func DecodeFilaments(r io.Reader) ([]Filament, error) {
	var out []Filament
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("解析 filament 列表失败: %w", err)
	}
	return out, nil
}

// Decode 按类型读取记录。
func Decode(rt ResourceType, r io.Reader) ([]Labeled, error) {
	switch rt {
	case SpoolType:
		spools, err := DecodeSpools(r)
		if err != nil {
			return nil, err
		}
		out := make([]Labeled, len(spools))
		for i, s := range spools {
			out[i] = s
		}
		return out, nil
	case FilamentType:
		filaments, err := DecodeFilaments(r)
		if err != nil {
			return nil, err
		}
		out := make([]Labeled, len(filaments))
		for i, f := range filaments {
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("未知的记录类型 %q", rt)
	}
}
