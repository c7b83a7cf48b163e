package api

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rickgao/renance-monitor/internal/model"
)

// DateLayout is the day format of the volume endpoint.
const DateLayout = "2006-01-02"

// GetVolume fetches traded volume statistics for the inclusive day range [start, end].
func (c *Client) GetVolume(ctx context.Context, start, end time.Time) (*model.VolumeStats, error) {
	query := url.Values{}
	query.Set("start_date", start.UTC().Format(DateLayout))
	query.Set("end_date", end.UTC().Format(DateLayout))

	var resp model.VolumeStats
	if err := c.get(ctx, "/volume", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("get volume: %w", err)
	}

	return &resp, nil
}
