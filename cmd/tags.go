package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/spoolprint/binding"
	"github.com/ByLCY/spoolprint/dsl"
	"github.com/ByLCY/spoolprint/preset"
	"github.com/ByLCY/spoolprint/record"
)

// tagsCommand 列出记录中可用于模板的标签路径。
// 加 --used 时改为列出当前预设模板引用的标签，并标记记录中缺失的字段。
func tagsCommand(a *app) *cobra.Command {
	var resourceType, input, presetKey string
	var used bool
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List template tags available for the given records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := record.ResourceType(strings.ToLower(resourceType))
			if !rt.Valid() {
				return fmt.Errorf("未知的记录类型 %q", resourceType)
			}
			records, err := readRecords(cmd.InOrStdin(), input, rt)
			if err != nil {
				return err
			}
			available := []string{}
			seen := map[string]bool{}
			for _, r := range records {
				rec, err := record.ToRecord(r)
				if err != nil {
					return err
				}
				for _, path := range binding.Paths(rec) {
					if seen[path] {
						continue
					}
					seen[path] = true
					available = append(available, path)
				}
			}
			if !used {
				for _, path := range available {
					fmt.Fprintf(cmd.OutOrStdout(), "{%s}\n", path)
				}
				return nil
			}

			tpl, err := a.presetTemplates(cmd.Context(), rt, presetKey)
			if err != nil {
				return err
			}
			for _, tag := range templateTags(tpl) {
				mark := "ok"
				if !seen[tag] {
					mark = "missing"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "{%s}\t%s\n", tag, mark)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&resourceType, "type", "t", string(record.SpoolType), "记录类型 spool|filament")
	cmd.Flags().StringVarP(&input, "in", "i", "-", "记录 JSON 文件路径")
	cmd.Flags().BoolVar(&used, "used", false, "列出预设模板引用的标签及其是否可解析")
	cmd.Flags().StringVarP(&presetKey, "preset", "p", "", "预设名称或 ID（默认使用当前预设）")
	return cmd
}

// presetTemplates 返回 rt 当前（或指定）预设的模板，空模板用默认值补齐。
func (a *app) presetTemplates(ctx context.Context, rt record.ResourceType, key string) (record.Templates, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := a.openStore()
	if err != nil {
		return record.Templates{}, err
	}
	defer store.Close()

	ws, err := preset.Load(ctx, store)
	if err != nil {
		return record.Templates{}, err
	}
	if key != "" {
		_, ref, ok := ws.Find(rt, key)
		if !ok {
			return record.Templates{}, fmt.Errorf("%w: %s", preset.ErrNotFound, key)
		}
		ws = ws.Select(rt, ref)
	}
	p, _ := ws.Current(rt)
	return p.Templates().WithDefaults(rt), nil
}

// templateTags 按标题、标签、文件名的顺序收集模板引用的字段路径，去重。
func templateTags(tpl record.Templates) []string {
	var out []string
	seen := map[string]bool{}
	for _, src := range []string{tpl.Title, tpl.Label, tpl.Filename} {
		for _, tag := range dsl.ParseTemplate(src).Tags() {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}
