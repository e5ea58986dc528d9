package alert

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/backyonatan-alt/lookout/internal/model"
)

func intPtr(n int) *int { return &n }

func TestCountdown(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0S"},
		{-12, "0S"},
		{45, "45S"},
		{125, "2M 5S"},
		{3600, "1H"},
		{3725, "1H 2M"},
		{90000, "1D 1H"},
		{86460, "1D"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Countdown(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestThreatAlert_PirateRaidHidesCounts(t *testing.T) {
	msg := ThreatAlert(model.Threat{
		Kind:        model.PirateRaid,
		SecondsLeft: 400,
		Movement: model.MilitaryMovement{
			MissionText:  "Pirate raid",
			OriginName:   "Skull Cove",
			OriginPlayer: "Blackbeard",
			TargetName:   "Athens",
			TroopCount:   intPtr(0),
		},
	}, 4242)

	assert.Contains(t, msg, "-- PIRATE ATTACK --")
	assert.Contains(t, msg, "from the pirate fortress Skull Cove of Blackbeard")
	assert.Contains(t, msg, "arrival in: 6M 40S")
	assert.Contains(t, msg, "units: unknown")
	assert.NotContains(t, msg, "0 units")
	assert.NotContains(t, msg, "4242:1")
}

func TestThreatAlert_PlayerAttack(t *testing.T) {
	msg := ThreatAlert(model.Threat{
		Kind:        model.PlayerAttack,
		SecondsLeft: 3725,
		Movement: model.MilitaryMovement{
			MissionText:  "Pillage",
			OriginName:   "Sparta",
			OriginPlayer: "Leonidas",
			TargetName:   "Athens",
			TroopCount:   intPtr(120),
		},
	}, 4242)

	assert.Contains(t, msg, "-- ALERT --")
	assert.Contains(t, msg, "120 units")
	assert.Contains(t, msg, "unknown fleet")
	assert.Contains(t, msg, "arrival in: 1H 2M")
	assert.Contains(t, msg, "4242:1")
}

func TestDefenseReport(t *testing.T) {
	ok := DefenseReport(model.DefenseResult{
		Success:        true,
		ArrivalSeconds: 400,
		Plan: model.ConversionPlan{
			UnitsToConvert:             17,
			PointsToSpend:              170,
			EstimatedConversionSeconds: 275,
			TimeBufferSeconds:          125,
		},
	})
	assert.Contains(t, ok, "AUTO-DEFENSE ACTIVATED")
	assert.Contains(t, ok, "Converted: 17 crew points")
	assert.Contains(t, ok, "Spent: 170 capture points")
	assert.Contains(t, ok, "Safety margin: 2M 5S")

	failed := DefenseReport(model.DefenseResult{Reason: "insufficient time: attack in 250s, need at least 276s"})
	assert.Contains(t, failed, "AUTO-DEFENSE FAILED")
	assert.Contains(t, failed, "Reason: insufficient time")
}

func TestIncidentAndInfo(t *testing.T) {
	info := WatchInfo(20 * time.Minute)
	assert.Equal(t, "I check for attacks every 20 minutes", info)
	assert.Equal(t, "Error in:\n"+info+"\nCause:\nboom", Incident(info, errors.New("boom")))
	assert.Equal(t, "Invalid command: 7", UnknownCommand(7))
}
