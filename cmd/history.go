package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytbot/internal/formatter"
	"github.com/desertthunder/ytbot/internal/shared"
)

// History lists recently played songs as text, CSV or JSON.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	entries, err := a.history.Recent(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	var data []byte
	switch strings.ToLower(cmd.String("format")) {
	case "text", "":
		if len(entries) == 0 {
			return r.line(r.palette.Warn("nothing played yet"))
		}
		data = []byte(formatter.HistoryText(entries) + "\n")
	case "csv":
		if data, err = formatter.ExportHistoryCSV(entries); err != nil {
			return err
		}
	case "json":
		if cmd.String("output") == "" {
			return r.writeJSON(entries, true)
		}
		return fmt.Errorf("%w: json output is written to stdout only", shared.ErrInvalidArgument)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, cmd.String("format"))
	}

	if output := cmd.String("output"); output != "" {
		if err := formatter.WriteFile(output, data); err != nil {
			return err
		}
		return r.line(r.palette.OK(fmt.Sprintf("Wrote %d entries to %s", len(entries), output)))
	}
	return r.writePlain("%s", data)
}

// HistoryClear deletes the play history.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.history.Clear(); err != nil {
		return err
	}
	return r.line(r.palette.OK("History cleared"))
}
