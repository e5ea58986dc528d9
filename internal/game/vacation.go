package game

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
)

// ActivateVacationMode puts the account into vacation mode. The game logs the
// session out afterwards, so this is the last call a client makes.
func (c *Client) ActivateVacationMode(ctx context.Context) error {
	cityID, _, err := c.currentCity(ctx)
	if err != nil {
		return fmt.Errorf("vacation mode: %w", err)
	}

	_, err = c.post(ctx, url.Values{
		"action":         {"Options"},
		"function":       {"activateVacationMode"},
		"backgroundView": {"city"},
		"currentCityId":  {cityID},
		"templateView":   {"options_umod_confirm"},
	})
	if err != nil {
		return fmt.Errorf("vacation mode: %w", err)
	}
	slog.Warn("game: vacation mode activated", "city_id", cityID)
	return nil
}
