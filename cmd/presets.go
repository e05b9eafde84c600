package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ByLCY/spoolprint/preset"
	"github.com/ByLCY/spoolprint/record"
	"github.com/ByLCY/spoolprint/settings"
)

func presetsCommand(a *app) *cobra.Command {
	var resourceType string
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage label presets",
	}
	cmd.PersistentFlags().StringVarP(&resourceType, "type", "t", string(record.SpoolType), "记录类型 spool|filament")

	list := &cobra.Command{
		Use:   "list",
		Short: "List presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPresets(cmd, resourceType, func(rt record.ResourceType, ws preset.Workspace) (preset.Workspace, bool, error) {
				cur, _ := ws.Current(rt)
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "\tID\tNAME\tPAPER\tFORMAT\tQR")
				for _, p := range ws.Presets(rt) {
					mark := ""
					if p.ID == cur.ID {
						mark = "*"
					}
					ls := p.LabelSettings
					w, h := ls.PrintSettings.PaperDimensions()
					fmt.Fprintf(tw, "%s\t%s\t%s\t%gx%g mm\t%s\t%s\n",
						mark, p.ID, p.Name, w, h, ls.PrintSettings.ExportFormat, ls.ShowQRCode)
				}
				return ws, false, tw.Flush()
			})
		},
	}

	var dupName string
	duplicate := &cobra.Command{
		Use:   "duplicate [preset]",
		Short: "Duplicate a preset (default: the current one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPresets(cmd, resourceType, func(rt record.ResourceType, ws preset.Workspace) (preset.Workspace, bool, error) {
				if len(args) == 1 {
					ref, err := lookup(ws, rt, args[0])
					if err != nil {
						return ws, false, err
					}
					ws = ws.Select(rt, ref)
				}
				ws = ws.Duplicate(rt, dupName)
				p, _ := ws.Current(rt)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.Name)
				return ws, true, nil
			})
		},
	}
	duplicate.Flags().StringVar(&dupName, "name", "", "新预设名称")

	del := &cobra.Command{
		Use:   "delete <preset>",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPresets(cmd, resourceType, func(rt record.ResourceType, ws preset.Workspace) (preset.Workspace, bool, error) {
				ref, err := lookupOwn(ws, rt, args[0])
				if err != nil {
					return ws, false, err
				}
				ws, err = ws.Delete(rt, ref.ID)
				return ws, err == nil, err
			})
		},
	}

	rename := &cobra.Command{
		Use:   "rename <preset> <name>",
		Short: "Rename a preset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPresets(cmd, resourceType, func(rt record.ResourceType, ws preset.Workspace) (preset.Workspace, bool, error) {
				ref, err := lookupOwn(ws, rt, args[0])
				if err != nil {
					return ws, false, err
				}
				if strings.TrimSpace(args[1]) == "" {
					return ws, false, fmt.Errorf("预设名称不能为空")
				}
				ws, err = ws.Rename(rt, ref.ID, args[1])
				return ws, err == nil, err
			})
		},
	}

	cmd.AddCommand(list, duplicate, del, rename)
	return cmd
}

// withPresets 加载工作区，执行 fn，并在 fn 要求时保存 rt 的预设。
func (a *app) withPresets(cmd *cobra.Command, resourceType string, fn func(record.ResourceType, preset.Workspace) (preset.Workspace, bool, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt := record.ResourceType(strings.ToLower(resourceType))
	if !rt.Valid() {
		return fmt.Errorf("未知的记录类型 %q", resourceType)
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ws, err := preset.Load(ctx, store)
	if err != nil {
		return err
	}
	ws, save, err := fn(rt, ws)
	if err != nil || !save {
		return err
	}
	return a.savePresets(ctx, store, ws, rt)
}

func (a *app) savePresets(ctx context.Context, store settings.Store, ws preset.Workspace, rt record.ResourceType) error {
	if !ws.Dirty(rt) {
		return nil
	}
	if _, err := preset.Save(ctx, store, ws, rt); err != nil {
		return err
	}
	a.logger.Info("presets saved", zap.String("resource", string(rt)), zap.Int("count", len(ws.Presets(rt))))
	return nil
}

func lookup(ws preset.Workspace, rt record.ResourceType, key string) (preset.Ref, error) {
	_, ref, ok := ws.Find(rt, key)
	if !ok {
		return preset.Ref{}, fmt.Errorf("%w: %s", preset.ErrNotFound, key)
	}
	return ref, nil
}

// lookupOwn 只接受 rt 自身列表中的预设。
func lookupOwn(ws preset.Workspace, rt record.ResourceType, key string) (preset.Ref, error) {
	ref, err := lookup(ws, rt, key)
	if err != nil {
		return ref, err
	}
	if ref.Type != rt {
		return preset.Ref{}, fmt.Errorf("%w: %s 属于 %s 预设", preset.ErrNotFound, key, ref.Type)
	}
	return ref, nil
}
