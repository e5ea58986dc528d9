package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/backyonatan-alt/lookout/internal/model"
)

const (
	fortressBuilding = "pirateFortress"
	// Used when the crew tab markup does not carry the value.
	DefaultPointsPerUnit  = 10
	DefaultSecondsPerUnit = 7
	DefaultBaseSeconds    = 156

	conversionRunning = "conversionProgressBar"
)

var ErrNoFortress = errors.New("no pirate fortress in any city")

var (
	relatedCitiesRe  = regexp.MustCompile(`relatedCityData:\sJSON\.parse\('(.+?)'\)`)
	backgroundDataRe = regexp.MustCompile(`"updateBackgroundData",\s?([\s\S]*?)\],\["updateTemplateData"`)
	capturePointsRe  = regexp.MustCompile(`\\?"capturePoints\\?":\\?"(\d+)\\?"`)
	pointsPerUnitRe  = regexp.MustCompile(`(?s)class=\\?"capturePoints\\?"[^>]*>.*?<span class=\\?"value\\?">(\d+)<`)
	secondsPerUnitRe = regexp.MustCompile(`(?s)class=\\?"time\\?"[^>]*>.*?<span class=\\?"value\\?">(\d+)s<`)
	baseTimeRe       = regexp.MustCompile(`(?i)(?:základní doba|base time)\s+(\d+)m\s*(\d+)s`)
)

// cityIDs lists the account's own cities from the city view.
func (c *Client) cityIDs(ctx context.Context) ([]string, error) {
	current, html, err := c.currentCity(ctx)
	if err != nil {
		return nil, err
	}

	m := relatedCitiesRe.FindStringSubmatch(html)
	if m == nil {
		return []string{current}, nil
	}
	related := gjson.Parse(strings.ReplaceAll(m[1], `\"`, `"`))

	var ids []string
	related.ForEach(func(key, value gjson.Result) bool {
		if strings.HasPrefix(key.String(), "city_") && value.Get("relationship").String() != "occupiedCities" {
			if id := value.Get("id").String(); id != "" {
				ids = append(ids, id)
			}
		}
		return true
	})
	if len(ids) == 0 {
		ids = []string{current}
	}
	return ids, nil
}

// LocateFortress returns the first city holding a pirate fortress.
func (c *Client) LocateFortress(ctx context.Context) (model.Fortress, error) {
	ids, err := c.cityIDs(ctx)
	if err != nil {
		return model.Fortress{}, fmt.Errorf("list cities: %w", err)
	}

	for _, id := range ids {
		html, err := c.get(ctx, url.Values{"view": {"city"}, "cityId": {id}})
		if err != nil {
			return model.Fortress{}, fmt.Errorf("city %s: %w", id, err)
		}
		if f, ok := findFortress(html); ok {
			if f.CityID == "" {
				f.CityID = id
			}
			slog.Info("game: pirate fortress located", "city_id", f.CityID, "position", f.Position, "level", f.Level)
			return f, nil
		}
	}
	return model.Fortress{}, ErrNoFortress
}

func findFortress(html string) (model.Fortress, bool) {
	m := backgroundDataRe.FindStringSubmatch(html)
	if m == nil {
		return model.Fortress{}, false
	}
	city := gjson.Parse(m[1])

	var f model.Fortress
	found := false
	for pos, b := range city.Get("position").Array() {
		if b.Get("building").String() == fortressBuilding {
			f = model.Fortress{
				CityID:   city.Get("id").String(),
				CityName: city.Get("name").String(),
				IslandID: city.Get("islandId").String(),
				Position: pos,
				Level:    int(b.Get("level").Int()),
			}
			found = true
			break
		}
	}
	return f, found
}

// ConversionState reads the fortress crew tab. Values the markup does not
// carry fall back to the game's usual constants.
func (c *Client) ConversionState(ctx context.Context, f model.Fortress) (model.FortressConversionState, error) {
	body, err := c.post(ctx, url.Values{
		"view":           {"pirateFortress"},
		"activeTab":      {"tabCrew"},
		"cityId":         {f.CityID},
		"position":       {strconv.Itoa(f.Position)},
		"backgroundView": {"city"},
		"currentCityId":  {f.CityID},
		"templateView":   {"pirateFortress"},
		"ajax":           {"1"},
	})
	if err != nil {
		return model.FortressConversionState{}, fmt.Errorf("pirate fortress crew tab: %w", err)
	}
	return ParseConversionState(body)
}

// ParseConversionState extracts the conversion economy from the crew tab response.
func ParseConversionState(body string) (model.FortressConversionState, error) {
	m := capturePointsRe.FindStringSubmatch(body)
	if m == nil {
		return model.FortressConversionState{}, fmt.Errorf("capture points not found in crew tab")
	}
	points, _ := strconv.Atoi(m[1])

	st := model.FortressConversionState{
		AvailablePoints:       points,
		PointsPerUnit:         firstInt(pointsPerUnitRe, body, DefaultPointsPerUnit),
		SecondsPerUnit:        firstInt(secondsPerUnitRe, body, DefaultSecondsPerUnit),
		BaseConversionSeconds: DefaultBaseSeconds,
		ConversionInProgress:  strings.Contains(body, conversionRunning),
	}
	if bm := baseTimeRe.FindStringSubmatch(body); bm != nil {
		minutes, _ := strconv.Atoi(bm[1])
		seconds, _ := strconv.Atoi(bm[2])
		st.BaseConversionSeconds = minutes*60 + seconds
	}
	return st, nil
}

func firstInt(re *regexp.Regexp, body string, fallback int) int {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return fallback
	}
	return n
}

// Convert starts a crew conversion of units at f. Any response without a
// transport error counts as accepted; the game returns no structured result.
func (c *Client) Convert(ctx context.Context, f model.Fortress, units int) error {
	_, err := c.post(ctx, url.Values{
		"action":         {"PiracyScreen"},
		"function":       {"convert"},
		"view":           {"pirateFortress"},
		"cityId":         {f.CityID},
		"islandId":       {f.IslandID},
		"activeTab":      {"tabCrew"},
		"crewPoints":     {strconv.Itoa(units)},
		"position":       {strconv.Itoa(f.Position)},
		"backgroundView": {"city"},
		"currentCityId":  {f.CityID},
		"templateView":   {"pirateFortress"},
		"ajax":           {"1"},
	})
	if err != nil {
		return fmt.Errorf("convert crew: %w", err)
	}
	return nil
}
