package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
	"github.com/desertthunder/sp2yt/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI previews a playlist and converts it after confirmation, with live progress.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(r.source, r.engine); err != nil {
		return err
	}

	ref := cmd.StringArg("ref")
	if ref == "" {
		return fmt.Errorf("%w: playlist reference (URL, URI or id)", shared.ErrMissingArgument)
	}

	// Terminal logging would tear the alternate screen; keep the log file only.
	if r.logSink != nil {
		r.logSink.Quiet()
	}

	visibility := cmd.String("visibility")
	if visibility == "" {
		visibility = r.config.Conversion.DefaultVisibility
	}
	model := ui.NewModel(ctx, r.source, r.engine, tasks.ConvertRequest{
		Ref:        ref,
		Name:       cmd.String("name"),
		Visibility: visibility,
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if outcome := model.Outcome(); outcome != nil {
		if link := outcome.Link(); link != "" {
			r.writePlain("%s\n", link)
		}
	}
	return nil
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Usage:     "Preview and convert a playlist interactively",
		ArgsUsage: "<playlist-url|uri|id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "ref"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "YouTube playlist name (derived from the Spotify playlist when empty)",
			},
			&cli.StringFlag{
				Name:    "visibility",
				Aliases: []string{"privacy"},
				Usage:   "Privacy status: public, private or unlisted",
			},
		},
		Action: r.TUI,
	}
}
