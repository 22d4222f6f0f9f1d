package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/creamcroissant/subconv/internal/bootstrap"
	"github.com/creamcroissant/subconv/internal/service"
	"github.com/creamcroissant/subconv/internal/tui"
)

func init() {
	var flags sourceFlags
	var tuiCmd = &cobra.Command{
		Use:   "tui",
		Short: "Browse converted proxy groups interactively",
		Long:  "Run a conversion and browse its groups, members and node details in a terminal UI.",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd.InOrStdin())
			if err != nil {
				return err
			}
			// 日志会破坏全屏界面
			cfg, logger, err := flags.setup(io.Discard)
			if err != nil {
				return err
			}
			comps := bootstrap.NewComponents(cfg, logger, nil)

			model := tui.NewModel(func(ctx context.Context) (*service.Result, error) {
				return comps.Converter.Convert(ctx, req)
			})
			p := tea.NewProgram(
				model,
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run tui: %w", err)
			}
			return nil
		},
	}
	flags.register(tuiCmd)
	rootCmd.AddCommand(tuiCmd)
}
