package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytbot/internal/formatter"
	"github.com/desertthunder/ytbot/internal/shared"
)

// Search runs a text search and lists the results.
//
// Results are kept in the search result cache so playing one later needs no extra lookup.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		limit = r.config.Search.DefaultLimit
	}

	a, err := r.open()
	if err != nil {
		return err
	}
	defer a.close()

	results, err := a.loader.Search(ctx, nil, query, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}
	if len(results) == 0 {
		return r.line(r.palette.Warn(fmt.Sprintf("No results for %q", query)))
	}

	r.line(r.palette.Title(fmt.Sprintf("Results for %q", query)))
	for i, d := range results {
		r.writePlainln("%d. %s", i+1, formatter.DescriptorText(d))
	}
	return nil
}
