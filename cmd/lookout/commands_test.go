package main

import (
	"bytes"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backyonatan-alt/lookout/internal/model"
)

func runPlan(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newPlanCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestPlanCmd(t *testing.T) {
	out := runPlan(t, "--arrival", "1000", "--points", "500")

	assert.Contains(t, out, "Units to convert: 50")
	assert.Contains(t, out, "Points to spend: 500 (of 500)")
	assert.Contains(t, out, "Conversion time: 8M 26S")
	assert.Contains(t, out, "Safety margin: 8M 14S")
}

func TestPlanCmd_Rejected(t *testing.T) {
	out := runPlan(t, "--arrival", "200", "--points", "500")
	assert.Contains(t, out, "Rejected:")
	assert.Contains(t, out, "attack in 200s")
}

func TestPlanCmd_RequiresArrival(t *testing.T) {
	cmd := newPlanCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--points", "500"})
	assert.Error(t, cmd.Execute())
}

func TestPrintRaids(t *testing.T) {
	var empty bytes.Buffer
	printRaids(&empty, nil)
	assert.Equal(t, "No incoming pirate attacks detected.\n", empty.String())

	raids := []model.Threat{{
		Movement:    model.MilitaryMovement{EventID: "77", MissionText: "Raid", OriginName: "Skull Cove", OriginPlayer: "Pirates", TargetName: "Athens"},
		Kind:        model.PirateRaid,
		SecondsLeft: 125,
	}}
	var out bytes.Buffer
	printRaids(&out, raids)
	assert.Contains(t, out.String(), "Found 1 incoming pirate attack(s)")
	assert.Contains(t, out.String(), "[77] Raid")
	assert.Contains(t, out.String(), "Arrives in: 2M 5S (125 seconds)")

	got, ok := findRaid(raids, "77")
	assert.True(t, ok)
	assert.Equal(t, int64(125), got.SecondsLeft)
	_, ok = findRaid(raids, "78")
	assert.False(t, ok)
}

func TestServeStatus_BindFailureReturns(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	done := make(chan struct{})
	go func() {
		serveStatus(&http.Server{Addr: busy.Addr().String()})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("serveStatus did not return after the port was taken")
	}
}
