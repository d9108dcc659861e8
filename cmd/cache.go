package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type cachedTrackJSON struct {
	trackJSON
	Sequence  int    `json:"sequence"`
	UpdatedAt string `json:"updated_at"`
}

// CacheList lists tracks in the local cache.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	repo, closeCache, err := r.openTrackCache()
	if err != nil {
		return err
	}
	defer closeCache()

	criteria := map[string]any{"artist": cmd.String("artist")}
	if limit := cmd.Int("limit"); limit > 0 {
		criteria["limit"] = limit
	}

	cached, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list cached tracks: %w", err)
	}

	if cmd.Bool("json") {
		out := make([]cachedTrackJSON, len(cached))
		for i, c := range cached {
			out[i] = cachedTrackJSON{
				trackJSON: toTrackJSON(c.Track()),
				Sequence:  c.Sequence(),
				UpdatedAt: c.UpdatedAt().UTC().Format("2006-01-02T15:04:05Z"),
			}
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Cached tracks (%d)", len(cached)))
	for _, c := range cached {
		t := c.Track()
		r.writePlain("%4d  %-12s %s\n", c.Sequence(), t.ExternalMediaID, t.String())
	}
	return nil
}
