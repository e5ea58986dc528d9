package game

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backyonatan-alt/lookout/internal/config"
	"github.com/backyonatan-alt/lookout/internal/model"
)

const cityPage = `<script>ikariam.model.relatedCityData: JSON.parse('{"city_100":{"id":100,"name":"Athens","relationship":"ownCity"},"city_200":{"id":200,"name":"Rhodes","relationship":"ownCity"},"city_300":{"id":300,"name":"Occupied","relationship":"occupiedCities"},"selectedCity":"city_100"}');
dataSetForView = {currentCityId: 100, actionRequest: "tok-1",}</script>`

const advisorResponse = `[["updateGlobalData",{"time":1000,"actionRequest":"tok-2"}],["changeView",["militaryAdvisor","<div></div>",{"viewScriptParams":{"militaryAndFleetMovements":[
	{"event":{"id":5001,"type":"piracy","missionIconClass":"piracyRaid","missionText":"Raid"},"isHostile":true,"isOwnArmyOrFleet":false,"hideUnits":true,"origin":{"name":"Skull Cove","avatarName":"Pirates"},"target":{"name":"Athens","cityId":100},"army":{"amount":0},"eventTime":1400},
	{"event":{"id":"5002","type":"plunder","missionIconClass":"plunder","missionText":"Pillage"},"isHostile":true,"origin":{"name":"Sparta","avatarName":"Leonidas"},"target":{"name":"Rhodes","cityId":200},"army":{"amount":120},"eventTime":4725},
	{"event":{"id":5003},"eventTime":9000}
]}}]]]`

func backgroundPage(id int, positions string) string {
	return `<script>ikariam.getScreen().updateGlobalData([["updateBackgroundData", {"id":` + strconv.Itoa(id) +
		`,"name":"City","islandId":"77","position":[` + positions + `]}],["updateTemplateData",{}]]);</script>`
}

type fakeGame struct {
	mu      sync.Mutex
	posts   []url.Values
	cookies []string
	advisor string
	crewTab string
}

func (f *fakeGame) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, err := r.Cookie("ikariam"); err == nil {
			f.cookies = append(f.cookies, c.Value)
		}

		if r.Method == http.MethodGet {
			switch r.URL.Query().Get("cityId") {
			case "100":
				w.Write([]byte(backgroundPage(100, `{"building":"townHall","level":10},{"building":"port","level":3}`)))
			case "200":
				w.Write([]byte(backgroundPage(200, `{"building":"townHall","level":8},{},{"building":"pirateFortress","level":12}`)))
			default:
				w.Write([]byte(cityPage))
			}
			return
		}

		_ = r.ParseForm()
		f.posts = append(f.posts, r.PostForm)
		switch r.PostForm.Get("view") {
		case "militaryAdvisor":
			w.Write([]byte(f.advisor))
		case "pirateFortress":
			if r.PostForm.Get("function") == "convert" {
				w.Write([]byte(`[["updateGlobalData",{}]]`))
				return
			}
			w.Write([]byte(f.crewTab))
		default:
			w.Write([]byte(`[]`))
		}
	})
}

func newTestClient(t *testing.T, f *fakeGame) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	c, err := New(config.GameConfig{BaseURL: srv.URL + "/index.php", Cookie: "ikariam=abc123; other=1"})
	require.NoError(t, err)
	return c
}

func TestFetchMovements(t *testing.T) {
	f := &fakeGame{advisor: advisorResponse}
	c := newTestClient(t, f)

	snap, err := c.FetchMovements(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1000), snap.ServerTime)
	assert.Equal(t, "100", snap.CityID)
	require.Len(t, snap.Movements, 3)

	pirate := snap.Movements[0]
	assert.Equal(t, "5001", pirate.EventID)
	assert.True(t, pirate.IsHostile)
	assert.Equal(t, "piracy", pirate.MissionType)
	assert.Equal(t, "piracyRaid", pirate.MissionIconClass)
	assert.Equal(t, "100", pirate.TargetCityID)
	assert.Nil(t, pirate.TroopCount, "hidden units must not decode as zero")
	assert.Equal(t, int64(400), pirate.SecondsUntilArrival(snap.ServerTime))

	player := snap.Movements[1]
	assert.Equal(t, "5002", player.EventID)
	require.NotNil(t, player.TroopCount)
	assert.Equal(t, 120, *player.TroopCount)
	assert.Nil(t, player.FleetCount)

	sparse := snap.Movements[2]
	assert.False(t, sparse.IsHostile)
	assert.Empty(t, sparse.MissionType)

	require.Len(t, f.posts, 1)
	assert.Equal(t, "tok-1", f.posts[0].Get("actionRequest"))
	assert.Equal(t, "100", f.posts[0].Get("currentCityId"))
	assert.Contains(t, f.cookies, "abc123")
	assert.Equal(t, "tok-2", c.token())
}

func TestParseMovements_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"not json":       `<html>login</html>`,
		"missing time":   `[["updateGlobalData",{}],["changeView",["x","",{"viewScriptParams":{"militaryAndFleetMovements":[]}}]]]`,
		"missing list":   `[["updateGlobalData",{"time":1000}],["changeView",["x","",{}]]]`,
		"list not array": `[["updateGlobalData",{"time":1000}],["changeView",["x","",{"viewScriptParams":{"militaryAndFleetMovements":"none"}}]]]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseMovements(body)
			assert.ErrorIs(t, err, ErrMalformedSnapshot)
		})
	}
}

func TestParseMovements_EmptyListIsValid(t *testing.T) {
	snap, err := ParseMovements(`[["updateGlobalData",{"time":1000}],["changeView",["x","",{"viewScriptParams":{"militaryAndFleetMovements":[]}}]]]`)
	require.NoError(t, err)
	assert.Empty(t, snap.Movements)
	assert.Equal(t, int64(1000), snap.ServerTime)
}

func TestFetchMovements_SessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<form id="loginForm"></form>`))
	}))
	defer srv.Close()

	c, err := New(config.GameConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.FetchMovements(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestFetchMovements_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := New(config.GameConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.FetchMovements(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestLocateFortress(t *testing.T) {
	c := newTestClient(t, &fakeGame{})

	f, err := c.LocateFortress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Fortress{CityID: "200", CityName: "City", IslandID: "77", Position: 2, Level: 12}, f)
}

func TestParseConversionState(t *testing.T) {
	body := `[["updateTemplateData",{"capturePoints":"7350"}],["changeView",["pirateFortress","<li class=\"capturePoints\"><span class=\"value\">10<\/span></li><li class=\"time\"><span class=\"value\">7s<\/span></li><p>Conversion base time 2m 36s</p>"]]]`
	st, err := ParseConversionState(body)
	require.NoError(t, err)
	assert.Equal(t, model.FortressConversionState{
		AvailablePoints:       7350,
		BaseConversionSeconds: 156,
		SecondsPerUnit:        7,
		PointsPerUnit:         10,
	}, st)
}

func TestParseConversionState_FallbacksAndProgress(t *testing.T) {
	body := `{\"capturePoints\":\"420\"} <div id="conversionProgressBar"></div> Pro přeměnu je základní doba 3m 5s`
	st, err := ParseConversionState(body)
	require.NoError(t, err)
	assert.Equal(t, 420, st.AvailablePoints)
	assert.Equal(t, 10, st.PointsPerUnit)
	assert.Equal(t, 7, st.SecondsPerUnit)
	assert.Equal(t, 185, st.BaseConversionSeconds)
	assert.True(t, st.ConversionInProgress)

	_, err = ParseConversionState(`<html></html>`)
	assert.Error(t, err)
}

func TestConvertAndVacation(t *testing.T) {
	f := &fakeGame{}
	c := newTestClient(t, f)

	require.NoError(t, c.Convert(context.Background(), model.Fortress{CityID: "200", IslandID: "77", Position: 2}, 17))
	require.NoError(t, c.ActivateVacationMode(context.Background()))

	require.Len(t, f.posts, 2)
	assert.Equal(t, "convert", f.posts[0].Get("function"))
	assert.Equal(t, "17", f.posts[0].Get("crewPoints"))
	assert.Equal(t, "2", f.posts[0].Get("position"))
	assert.Equal(t, "activateVacationMode", f.posts[1].Get("function"))
	assert.Equal(t, "tok-1", f.posts[1].Get("actionRequest"))
}
