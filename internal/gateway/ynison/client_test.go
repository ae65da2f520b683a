package ynison

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type fakeYnison struct {
	t             *testing.T
	redirectFrame func(host string) string
	stateFrame    string
	stall         bool
	gotTicket     bool
	gotAuth       string
	gotAnnounce   putStateRequest
}

func (f *fakeYnison) handler(host func() string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/redirector.YnisonRedirectService/GetRedirectToYnison", func(w http.ResponseWriter, r *http.Request) {
		f.gotAuth = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if f.stall {
			_, _, _ = conn.ReadMessage()
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(f.redirectFrame(host())))
	})
	mux.HandleFunc(statePath, func(w http.ResponseWriter, r *http.Request) {
		f.gotTicket = strings.Contains(r.Header.Get("Sec-WebSocket-Protocol"), `"Ynison-Redirect-Ticket":"ticket-1"`)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if err := conn.ReadJSON(&f.gotAnnounce); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(f.stateFrame))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeYnison) *Client {
	t.Helper()

	var srv *httptest.Server
	host := func() string { return strings.TrimPrefix(srv.URL, "http://") }
	srv = httptest.NewServer(f.handler(host))
	t.Cleanup(srv.Close)

	return NewClient(zap.NewNop(),
		WithRedirectorURL("ws://"+host()+"/redirector.YnisonRedirectService/GetRedirectToYnison"),
		WithStateScheme("ws"),
		WithTimeout(300*time.Millisecond),
	)
}

func redirectTo(host string) string {
	b, _ := json.Marshal(map[string]string{"host": host, "redirect_ticket": "ticket-1", "session_id": "s"})
	return string(b)
}

func TestNegotiate_Track(t *testing.T) {
	f := &fakeYnison{
		t:             t,
		redirectFrame: redirectTo,
		stateFrame: `{"player_state":{"status":{"paused":false},"player_queue":{
			"current_playable_index":1,
			"playable_list":[{"playable_id":"111"},{"playable_id":"222","album_id_optional":"9","playable_type":"TRACK"}]}}}`,
	}
	client := newTestClient(t, f)

	raw, err := client.Negotiate(context.Background(), "token")
	require.NoError(t, err)

	assert.Equal(t, QueueTrack{PlayableID: "222", AlbumID: "9", PlayableType: "TRACK", Paused: false}, raw)
	assert.Equal(t, "OAuth token", f.gotAuth)
	assert.True(t, f.gotTicket, "state connection must carry the redirect ticket")
	assert.True(t, f.gotAnnounce.UpdateFullState.Device.IsShadow)
	assert.False(t, f.gotAnnounce.UpdateFullState.IsCurrentlyActive)
	assert.NotEmpty(t, f.gotAnnounce.RID)
}

func TestNegotiate_MissingTicket(t *testing.T) {
	f := &fakeYnison{
		t: t,
		redirectFrame: func(host string) string {
			return `{"host":"` + host + `"}`
		},
	}
	client := newTestClient(t, f)

	_, err := client.Negotiate(context.Background(), "token")
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestNegotiate_MissingHost(t *testing.T) {
	f := &fakeYnison{
		t:             t,
		redirectFrame: func(string) string { return `{"redirect_ticket":"ticket-1"}` },
	}
	client := newTestClient(t, f)

	_, err := client.Negotiate(context.Background(), "token")
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestNegotiate_Timeout(t *testing.T) {
	f := &fakeYnison{t: t, stall: true, redirectFrame: redirectTo}
	client := newTestClient(t, f)

	start := time.Now()
	_, err := client.Negotiate(context.Background(), "token")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNegotiate_EmptyToken(t *testing.T) {
	client := NewClient(zap.NewNop())
	_, err := client.Negotiate(context.Background(), "")
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestNegotiate_Unreachable(t *testing.T) {
	client := NewClient(zap.NewNop(),
		WithRedirectorURL("ws://127.0.0.1:1/redirect"),
		WithTimeout(300*time.Millisecond))

	_, err := client.Negotiate(context.Background(), "token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProtocol) || errors.Is(err, ErrTimeout))
}
