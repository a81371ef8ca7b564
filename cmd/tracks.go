package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sp2yt/internal/formatter"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/urfave/cli/v3"
)

// Tracks lists the playable tracks of a Spotify playlist, to stdout or to a file.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(r.source); err != nil {
		return err
	}

	ref := cmd.StringArg("ref")
	if ref == "" {
		return fmt.Errorf("%w: playlist reference (URL, URI or id)", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	r.logger.Info("exporting playlist", "ref", ref, "format", format)

	playlist, err := r.source.ExportPlaylist(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to export playlist: %w", err)
	}

	if output := cmd.String("output"); output != "" || cmd.Bool("save") {
		path, err := formatter.WriteExport(playlist, format, output)
		if err != nil {
			return err
		}
		r.logger.Info("playlist exported", "path", path, "tracks", len(playlist.Tracks))
		return r.writePlain("✓ Exported %d tracks to %s\n", len(playlist.Tracks), path)
	}

	data, err := formatter.Export(playlist, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tracks",
		Aliases:   []string{"ls"},
		Usage:     "List the tracks of a Spotify playlist",
		ArgsUsage: "<playlist-url|uri|id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "ref"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv, markdown or json",
				Value:   string(formatter.Text),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Write to {playlist-id}_tracks.{ext} in the current directory",
			},
		},
		Action: r.Tracks,
	}
}
