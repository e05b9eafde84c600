// Package preset 管理按记录类型分组的标签预设：选择、编辑（含跨类型提升）、
// 复制、删除、重命名与脏检查。Workspace 的方法都返回新值，不修改接收者。
package preset

import (
	"errors"
	"reflect"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ByLCY/spoolprint/layout"
	"github.com/ByLCY/spoolprint/record"
)

// ErrNotFound 表示预设 ID 不存在。
var ErrNotFound = errors.New("preset: not found")

// DefaultName 是自动生成的预设名。
const DefaultName = "Default"

// Preset 一组命名的标签设置。身份由 ID 决定，与在列表中的位置无关。
type Preset struct {
	ID               uuid.UUID                  `json:"id"`
	Name             string                     `json:"name"`
	Template         string                     `json:"template,omitempty"`
	TitleTemplate    string                     `json:"titleTemplate,omitempty"`
	FilenameTemplate string                     `json:"filenameTemplate,omitempty"`
	LabelSettings    layout.QRCodePrintSettings `json:"labelSettings"`
}

// Templates 返回预设中的模板，空值由 record 使用默认模板。
func (p Preset) Templates() record.Templates {
	return record.Templates{Title: p.TitleTemplate, Label: p.Template, Filename: p.FilenameTemplate}
}

// NewDefault 创建一个带新 ID 的默认预设。
func NewDefault() Preset {
	return Preset{ID: uuid.New(), Name: DefaultName, LabelSettings: layout.DefaultQRCodePrintSettings()}
}

// Ref 指向某个类型列表中的预设。
type Ref struct {
	Type record.ResourceType `json:"type"`
	ID   uuid.UUID           `json:"id"`
}

var resourceTypes = []record.ResourceType{record.SpoolType, record.FilamentType}

// Workspace 是预设的本地工作副本及其最近一次持久化的快照。
type Workspace struct {
	lists    map[record.ResourceType][]Preset
	saved    map[record.ResourceType][]Preset
	selected map[record.ResourceType]Ref
}

// NewWorkspace 以已持久化的列表创建工作区。某类型列表为空时生成一个默认预设（未保存）。
func NewWorkspace(persisted map[record.ResourceType][]Preset) Workspace {
	ws := Workspace{
		lists:    map[record.ResourceType][]Preset{},
		saved:    map[record.ResourceType][]Preset{},
		selected: map[record.ResourceType]Ref{},
	}
	for _, rt := range resourceTypes {
		list := slices.Clone(persisted[rt])
		ws.saved[rt] = slices.Clone(list)
		if len(list) == 0 {
			list = []Preset{NewDefault()}
		}
		ws.lists[rt] = list
		ws.selected[rt] = Ref{Type: rt, ID: fallback(list).ID}
	}
	return ws
}

func (w Workspace) clone() Workspace {
	out := Workspace{
		lists:    make(map[record.ResourceType][]Preset, len(w.lists)),
		saved:    make(map[record.ResourceType][]Preset, len(w.saved)),
		selected: make(map[record.ResourceType]Ref, len(w.selected)),
	}
	for k, v := range w.lists {
		out.lists[k] = slices.Clone(v)
	}
	for k, v := range w.saved {
		out.saved[k] = v // 快照只读，可共享
	}
	for k, v := range w.selected {
		out.selected[k] = v
	}
	return out
}

// Presets 返回某类型的预设列表副本。
func (w Workspace) Presets(rt record.ResourceType) []Preset {
	return slices.Clone(w.lists[rt])
}

// Selected 返回原始的选择引用（可能已失效或指向另一类型）。
func (w Workspace) Selected(rt record.ResourceType) Ref { return w.selected[rt] }

// Current 返回 rt 当前生效的预设及其引用。
// 选择失效时回退到名称为 default 的预设（不区分大小写），否则回退到第一个。
func (w Workspace) Current(rt record.ResourceType) (Preset, Ref) {
	ref := w.selected[rt]
	if p, ok := find(w.lists[ref.Type], ref.ID); ok {
		return p, ref
	}
	p := fallback(w.lists[rt])
	return p, Ref{Type: rt, ID: p.ID}
}

// Find 按 ID 或名称（不区分大小写）查找预设，先查 rt 自身的列表，再查另一类型。
// 返回的 Ref 可直接传给 Select。
func (w Workspace) Find(rt record.ResourceType, key string) (Preset, Ref, bool) {
	key = strings.TrimSpace(key)
	id, idErr := uuid.Parse(key)
	order := []record.ResourceType{rt}
	for _, t := range resourceTypes {
		if t != rt {
			order = append(order, t)
		}
	}
	for _, t := range order {
		for _, p := range w.lists[t] {
			if (idErr == nil && p.ID == id) || strings.EqualFold(p.Name, key) {
				return p, Ref{Type: t, ID: p.ID}, true
			}
		}
	}
	return Preset{}, Ref{}, false
}

// Select 为 rt 选择预设，引用可以指向另一类型的列表（借用配置）。
func (w Workspace) Select(rt record.ResourceType, ref Ref) Workspace {
	out := w.clone()
	if ref.Type == "" {
		ref.Type = rt
	}
	out.selected[rt] = ref
	return out
}

// Edit 对 rt 当前预设应用 fn。若当前预设属于另一类型，先复制为本类型的新预设（新 ID）
// 再修改并选中它，另一类型的列表保持不变。
func (w Workspace) Edit(rt record.ResourceType, fn func(Preset) Preset) Workspace {
	out := w.clone()
	cur, ref := out.Current(rt)
	if ref.Type != rt {
		promoted := fn(cur)
		promoted.ID = uuid.New()
		out.lists[rt] = append(out.lists[rt], promoted)
		out.selected[rt] = Ref{Type: rt, ID: promoted.ID}
		return out
	}
	list := out.lists[rt]
	for i := range list {
		if list[i].ID == cur.ID {
			edited := fn(list[i])
			edited.ID = cur.ID
			list[i] = edited
		}
	}
	out.selected[rt] = ref
	return out
}

// Duplicate 复制 rt 的当前预设为本类型的新预设并选中。
func (w Workspace) Duplicate(rt record.ResourceType, name string) Workspace {
	out := w.clone()
	cur, _ := out.Current(rt)
	dup := cur
	dup.ID = uuid.New()
	if strings.TrimSpace(name) == "" {
		name = cur.Name + " (copy)"
	}
	dup.Name = name
	out.lists[rt] = append(out.lists[rt], dup)
	out.selected[rt] = Ref{Type: rt, ID: dup.ID}
	return out
}

// Delete 删除 rt 列表中的预设。删除最后一个时重新生成默认预设；
// 若删除的是当前选择，则选择按回退规则更新。
func (w Workspace) Delete(rt record.ResourceType, id uuid.UUID) (Workspace, error) {
	idx := slices.IndexFunc(w.lists[rt], func(p Preset) bool { return p.ID == id })
	if idx < 0 {
		return w, ErrNotFound
	}
	out := w.clone()
	out.lists[rt] = slices.Delete(out.lists[rt], idx, idx+1)
	if len(out.lists[rt]) == 0 {
		out.lists[rt] = []Preset{NewDefault()}
	}
	for t, ref := range out.selected {
		if ref.Type == rt && ref.ID == id {
			out.selected[t] = Ref{Type: t, ID: fallback(out.lists[t]).ID}
		}
	}
	return out, nil
}

// Rename 修改预设名称。
func (w Workspace) Rename(rt record.ResourceType, id uuid.UUID, name string) (Workspace, error) {
	idx := slices.IndexFunc(w.lists[rt], func(p Preset) bool { return p.ID == id })
	if idx < 0 {
		return w, ErrNotFound
	}
	out := w.clone()
	out.lists[rt][idx].Name = strings.TrimSpace(name)
	return out, nil
}

// Dirty 判断 rt 的工作副本是否与最近一次持久化的快照不同（按值深比较）。
func (w Workspace) Dirty(rt record.ResourceType) bool {
	return !reflect.DeepEqual(normalize(w.lists[rt]), normalize(w.saved[rt]))
}

// MarkSaved 将 rt 的当前工作副本记为已持久化。
func (w Workspace) MarkSaved(rt record.ResourceType) Workspace {
	out := w.clone()
	out.saved[rt] = slices.Clone(out.lists[rt])
	return out
}

func normalize(list []Preset) []Preset {
	if len(list) == 0 {
		return nil
	}
	return list
}

func find(list []Preset, id uuid.UUID) (Preset, bool) {
	for _, p := range list {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

func fallback(list []Preset) Preset {
	for _, p := range list {
		if strings.EqualFold(strings.TrimSpace(p.Name), DefaultName) {
			return p
		}
	}
	if len(list) > 0 {
		return list[0]
	}
	return Preset{}
}
