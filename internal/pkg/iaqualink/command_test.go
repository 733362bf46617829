package iaqualink

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

// sequenceServer answers the command endpoint with bodies in order, repeating the last.
type sequenceServer struct {
	mu        sync.Mutex
	bodies    []string
	status    int
	sessionID []string
	commands  []string
}

func (s *sequenceServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := r.URL.Query()
	s.sessionID = append(s.sessionID, q.Get("sessionID"))
	s.commands = append(s.commands, q.Get("command"))
	if q.Get("actionID") != "command" || q.Get("serial") == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if s.status != 0 {
		w.WriteHeader(s.status)
		w.Write([]byte("upstream broke"))
		return
	}
	body := s.bodies[0]
	if len(s.bodies) > 1 {
		s.bodies = s.bodies[1:]
	}
	w.Write([]byte(body))
}

func TestSendCommand_EmptyThenBody_RefreshesOnce(t *testing.T) {
	useTestLogger(t)
	seq := &sequenceServer{bodies: []string{"", `{"home_screen":[]}`}}
	srv := testServer(t, seq.handler)
	refresher := &MockRefresher{}

	c := NewCommandClient(testConfig(srv), srv.Client(), refresher)
	session := validSession()
	body, err := c.SendCommand(context.Background(), &session, GetHome)
	require.NoError(t, err)

	assert.Equal(t, `{"home_screen":[]}`, string(body))
	assert.Equal(t, 1, refresher.Calls)
	assert.Equal(t, []string{"sess-0", "fresh"}, seq.sessionID)
	assert.Equal(t, []string{"get_home", "get_home"}, seq.commands)
	assert.Equal(t, "fresh", session.ID, "caller's session is replaced with the refreshed one")
}

func TestSendCommand_EmptyTwice_RepeatedEmptySession(t *testing.T) {
	useTestLogger(t)
	seq := &sequenceServer{bodies: []string{"", "  \n"}}
	srv := testServer(t, seq.handler)
	refresher := &MockRefresher{}

	c := NewCommandClient(testConfig(srv), srv.Client(), refresher)
	session := validSession()
	_, err := c.SendCommand(context.Background(), &session, GetHome)

	assert.ErrorIs(t, err, ErrRepeatedEmptySession)
	assert.Equal(t, 1, refresher.Calls)
	assert.Len(t, seq.sessionID, 2)
}

func TestSendCommand_FirstBody_NoRefresh(t *testing.T) {
	useTestLogger(t)
	seq := &sequenceServer{bodies: []string{`{"devices_screen":[]}`}}
	srv := testServer(t, seq.handler)
	refresher := &MockRefresher{}

	c := NewCommandClient(testConfig(srv), srv.Client(), refresher)
	session := validSession()
	body, err := c.SendCommand(context.Background(), &session, GetDevices)
	require.NoError(t, err)

	assert.NotEmpty(t, body)
	assert.Zero(t, refresher.Calls)
	assert.Equal(t, []string{"get_devices"}, seq.commands)
}

func TestSendCommand_Non2xx_NotRetried(t *testing.T) {
	useTestLogger(t)
	seq := &sequenceServer{status: http.StatusBadGateway}
	srv := testServer(t, seq.handler)
	refresher := &MockRefresher{}

	c := NewCommandClient(testConfig(srv), srv.Client(), refresher)
	session := validSession()
	_, err := c.SendCommand(context.Background(), &session, GetHome)

	assert.ErrorIs(t, err, ErrCommand)
	assert.True(t, IsStatus(err, http.StatusBadGateway))
	assert.NotContains(t, err.Error(), "sess-0", "session id is redacted")
	assert.Zero(t, refresher.Calls)
	assert.Len(t, seq.sessionID, 1)
}

func TestSendCommand_RefreshFails(t *testing.T) {
	useTestLogger(t)
	seq := &sequenceServer{bodies: []string{""}}
	srv := testServer(t, seq.handler)
	refresher := &MockRefresher{RefreshFunc: func(ctx context.Context) (*model.Session, error) {
		return nil, ErrAuth
	}}

	c := NewCommandClient(testConfig(srv), srv.Client(), refresher)
	session := validSession()
	_, err := c.SendCommand(context.Background(), &session, GetHome)

	assert.True(t, errors.Is(err, ErrAuth))
	assert.Equal(t, "sess-0", session.ID)
	assert.Len(t, seq.sessionID, 1)
}

func TestGetHome(t *testing.T) {
	useTestLogger(t)
	seq := &sequenceServer{bodies: []string{`{"home_screen":[
		{"status":"Online"},{"response":""},{"system_type":"0"},
		{"temp_scale":"F"},{"spa_temp":"101"},{"pool_temp":"84"},{"air_temp":"71"},
		{"spa_set_point":"102"},{"pool_set_point":"86"},
		{"spa_heater":"3"},{"pool_heater":"1"},{"freeze_protection":"0"}
	]}`}}
	srv := testServer(t, seq.handler)

	c := NewCommandClient(testConfig(srv), srv.Client(), &MockRefresher{})
	session := validSession()
	reading, err := c.GetHome(context.Background(), &session)
	require.NoError(t, err)

	assert.Equal(t, 86, reading.HeaterSetpoint)
	assert.True(t, reading.HeaterActive)
	require.NotNil(t, reading.AirTemp)
	assert.Equal(t, 71, *reading.AirTemp)
	assert.Equal(t, 84, *reading.PoolTemp)
	assert.Equal(t, 101, *reading.SpaTemp)
	assert.True(t, reading.Timestamp.IsZero(), "the poller stamps readings")
}

func TestGetHome_MalformedBody(t *testing.T) {
	useTestLogger(t)
	seq := &sequenceServer{bodies: []string{`{"unexpected":true}`}}
	srv := testServer(t, seq.handler)

	c := NewCommandClient(testConfig(srv), srv.Client(), &MockRefresher{})
	session := validSession()
	_, err := c.GetHome(context.Background(), &session)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestGetDevices(t *testing.T) {
	useTestLogger(t)
	seq := &sequenceServer{bodies: []string{`{"devices_screen":[{"status":"Online"},{"aux_1":[{"state":"0"},{"label":"Cleaner"}]}]}`}}
	srv := testServer(t, seq.handler)

	c := NewCommandClient(testConfig(srv), srv.Client(), &MockRefresher{})
	session := validSession()
	devices, err := c.GetDevices(context.Background(), &session)
	require.NoError(t, err)

	assert.Equal(t, "Online", devices["status"])
	assert.JSONEq(t, `[{"state":"0"},{"label":"Cleaner"}]`, devices["aux_1"])
}
