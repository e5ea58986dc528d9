package game

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/backyonatan-alt/lookout/internal/model"
)

const (
	serverTimePath = "0.1.time"
	movementsPath  = "1.1.2.viewScriptParams.militaryAndFleetMovements"
)

// FetchMovements returns the military advisor's current movement list.
// A response without a server time or a movement list is ErrMalformedSnapshot:
// callers must not treat it as "no attacks".
func (c *Client) FetchMovements(ctx context.Context) (model.Snapshot, error) {
	cityID, _, err := c.currentCity(ctx)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("military advisor: %w", err)
	}

	body, err := c.post(ctx, url.Values{
		"view":              {"militaryAdvisor"},
		"oldView":           {"city"},
		"oldBackgroundView": {"city"},
		"backgroundView":    {"city"},
		"currentCityId":     {cityID},
		"templateView":      {"militaryAdvisor"},
		"ajax":              {"1"},
	})
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("military advisor: %w", err)
	}

	snap, err := ParseMovements(body)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap.CityID = cityID

	slog.Info("game: movements fetched", "city_id", cityID, "movements", len(snap.Movements), "server_time", snap.ServerTime)
	return snap, nil
}

// ParseMovements decodes a military advisor ajax response. Optional movement
// fields that are missing decode to their zero value; unit counts that are
// hidden or missing decode to nil.
func ParseMovements(body string) (model.Snapshot, error) {
	if !gjson.Valid(body) {
		return model.Snapshot{}, fmt.Errorf("%w: invalid json", ErrMalformedSnapshot)
	}

	doc := gjson.Parse(body)
	serverTime := doc.Get(serverTimePath)
	if !serverTime.Exists() || serverTime.Int() == 0 {
		return model.Snapshot{}, fmt.Errorf("%w: missing server time", ErrMalformedSnapshot)
	}
	list := doc.Get(movementsPath)
	if !list.IsArray() {
		return model.Snapshot{}, fmt.Errorf("%w: missing movement list", ErrMalformedSnapshot)
	}

	snap := model.Snapshot{ServerTime: serverTime.Int()}
	for _, mv := range list.Array() {
		snap.Movements = append(snap.Movements, parseMovement(mv))
	}
	return snap, nil
}

func parseMovement(mv gjson.Result) model.MilitaryMovement {
	event := mv.Get("event")
	m := model.MilitaryMovement{
		EventID:          event.Get("id").String(),
		IsHostile:        mv.Get("isHostile").Bool(),
		IsOwnForce:       mv.Get("isOwnArmyOrFleet").Bool(),
		MissionType:      event.Get("type").String(),
		MissionIconClass: event.Get("missionIconClass").String(),
		MissionText:      event.Get("missionText").String(),
		OriginName:       mv.Get("origin.name").String(),
		OriginPlayer:     mv.Get("origin.avatarName").String(),
		TargetName:       mv.Get("target.name").String(),
		TargetCityID:     mv.Get("target.cityId").String(),
		HideUnits:        mv.Get("hideUnits").Bool(),
		ArrivalTimestamp: mv.Get("eventTime").Int(),
	}
	if !m.HideUnits {
		m.TroopCount = optionalInt(mv.Get("army.amount"))
		m.FleetCount = optionalInt(mv.Get("fleet.amount"))
	}
	return m
}

func optionalInt(r gjson.Result) *int {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	n := int(r.Int())
	return &n
}
