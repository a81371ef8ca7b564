package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/sp2yt/internal/formatter"
	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/desertthunder/sp2yt/internal/tasks"
	"github.com/urfave/cli/v3"
)

// errConversionStopped marks a run whose fatal event was already printed.
var errConversionStopped = errors.New("conversion stopped")

// Convert runs one conversion, printing every progress event as a line.
func (r *Runner) Convert(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(r.engine); err != nil {
		return err
	}

	ref := cmd.StringArg("ref")
	if ref == "" {
		return fmt.Errorf("%w: playlist reference (URL, URI or id)", shared.ErrMissingArgument)
	}

	req := tasks.ConvertRequest{
		Ref:        ref,
		Name:       cmd.String("name"),
		Visibility: cmd.String("visibility"),
	}
	if req.Visibility == "" {
		req.Visibility = r.config.Conversion.DefaultVisibility
	}

	r.logger.Info("starting conversion", "ref", req.Ref, "visibility", req.Visibility)

	progress := formatter.NewProgressWriter(r.output, r.color, cmd.Bool("raw"))
	outcome, err := r.engine.Convert(ctx, req, progress)
	if werr := progress.Err(); werr != nil {
		r.logger.Warn("progress output failed", "error", werr)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", errConversionStopped, err)
	}
	if outcome.Aborted || (outcome.Err != nil && shared.IsFatal(outcome.Err)) {
		return fmt.Errorf("%w: %w", errConversionStopped, outcome.Err)
	}
	return nil
}

func convertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a Spotify playlist into a new YouTube playlist",
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
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "Print uncolored event lines including the end-of-stream marker",
			},
		},
		Action: r.Convert,
	}
}
