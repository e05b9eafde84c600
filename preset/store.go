package preset

import (
	"context"
	"fmt"

	"github.com/ByLCY/spoolprint/record"
	"github.com/ByLCY/spoolprint/settings"
)

// 各记录类型的预设在设置存储中的键。
const (
	KeySpool    = "image_presets"
	KeyFilament = "image_presets_filament"
)

// Key 返回 rt 对应的设置键。
func Key(rt record.ResourceType) (string, error) {
	switch rt {
	case record.SpoolType:
		return KeySpool, nil
	case record.FilamentType:
		return KeyFilament, nil
	default:
		return "", fmt.Errorf("未知记录类型 %q", rt)
	}
}

// Load 从设置存储读取两类预设并创建工作区。标签设置按界面范围收敛。
func Load(ctx context.Context, store settings.Store) (Workspace, error) {
	persisted := map[record.ResourceType][]Preset{}
	for _, rt := range resourceTypes {
		key, _ := Key(rt)
		var list []Preset
		if _, err := settings.GetJSON(ctx, store, key, &list); err != nil {
			return Workspace{}, fmt.Errorf("读取预设失败: %w", err)
		}
		for i := range list {
			list[i].LabelSettings = list[i].LabelSettings.Clamp()
		}
		persisted[rt] = list
	}
	return NewWorkspace(persisted), nil
}

// Save 持久化 rt 的工作副本，成功后返回已标记为保存的工作区。
func Save(ctx context.Context, store settings.Store, ws Workspace, rt record.ResourceType) (Workspace, error) {
	key, err := Key(rt)
	if err != nil {
		return ws, err
	}
	if err := settings.SetJSON(ctx, store, key, ws.lists[rt]); err != nil {
		return ws, fmt.Errorf("保存预设失败: %w", err)
	}
	return ws.MarkSaved(rt), nil
}
