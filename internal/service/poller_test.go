package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ymlive/internal/domain/reconciler"
	"ymlive/internal/gateway/yandexmusic"
	"ymlive/internal/gateway/ynison"
	"ymlive/internal/model"
)

type memRepo struct {
	mu     sync.Mutex
	values map[string]string
	// failJSON столько следующих SetJSON завершатся ошибкой
	failJSON int
}

func newMemRepo() *memRepo { return &memRepo{values: map[string]string{}} }

func (m *memRepo) GetString(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memRepo) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memRepo) GetBool(ctx context.Context, key string) (bool, error) {
	v, ok, _ := m.GetString(ctx, key)
	if !ok {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func (m *memRepo) SetBool(ctx context.Context, key string, value bool) error {
	return m.Set(ctx, key, strconv.FormatBool(value))
}

func (m *memRepo) GetInt(ctx context.Context, key string) (int, error) {
	v, ok, _ := m.GetString(ctx, key)
	if !ok {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func (m *memRepo) SetInt(ctx context.Context, key string, value int) error {
	return m.Set(ctx, key, strconv.Itoa(value))
}

func (m *memRepo) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	v, ok, _ := m.GetString(ctx, key)
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(v), dst)
}

func (m *memRepo) SetJSON(ctx context.Context, key string, value any) error {
	m.mu.Lock()
	if m.failJSON > 0 {
		m.failJSON--
		m.mu.Unlock()
		return errors.New("database is locked")
	}
	m.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.Set(ctx, key, string(data))
}

type scriptedNegotiator struct {
	queue ynison.RawQueue
	err   error
	calls int
}

func (n *scriptedNegotiator) Negotiate(context.Context, string) (ynison.RawQueue, error) {
	n.calls++
	return n.queue, n.err
}

type mapResolver map[string]*yandexmusic.Track

func (m mapResolver) ResolveTrack(_ context.Context, id string) (*yandexmusic.Track, bool) {
	t, ok := m[id]
	return t, ok
}

type fakeChannel struct {
	configured bool
	title      string
	nextID     int
	sendErr    error
	// sendErrs результаты следующих SendMessage по очереди, nil = успех
	sendErrs []error
	calls    []string
}

func (f *fakeChannel) Configured() bool { return f.configured }

func (f *fakeChannel) Title(context.Context) (string, error) { return f.title, nil }

func (f *fakeChannel) SetTitle(_ context.Context, title string) error {
	f.title = title
	f.calls = append(f.calls, "title:"+title)
	return nil
}

func (f *fakeChannel) SendMessage(_ context.Context, text string) (int, error) {
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		if err != nil {
			return 0, err
		}
	} else if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.nextID++
	f.calls = append(f.calls, fmt.Sprintf("send:%d", f.nextID))
	return f.nextID, nil
}

func (f *fakeChannel) EditMessage(_ context.Context, id int, _ string) error {
	f.calls = append(f.calls, fmt.Sprintf("edit:%d", id))
	return nil
}

func (f *fakeChannel) DeleteMessage(_ context.Context, id int) error {
	f.calls = append(f.calls, fmt.Sprintf("delete:%d", id))
	return nil
}

func (f *fakeChannel) SetPhoto(_ context.Context, path string) error {
	f.calls = append(f.calls, "photo:"+path)
	return nil
}

func (f *fakeChannel) PromoteInfoEditor(_ context.Context, userID int64) error {
	f.calls = append(f.calls, fmt.Sprintf("promote:%d", userID))
	return nil
}

type noCovers struct{}

func (noCovers) DownloadCover(context.Context, string) (string, func(), error) {
	return "", nil, errors.New("offline")
}

type fixture struct {
	repo       *memRepo
	channel    *fakeChannel
	negotiator *scriptedNegotiator
	poller     *Poller
	store      *StateStore
	clock      time.Time
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()

	f := &fixture{
		repo:       newMemRepo(),
		channel:    &fakeChannel{configured: true},
		negotiator: &scriptedNegotiator{err: ynison.ErrTimeout},
		clock:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.store = NewStateStore(f.repo, zap.NewNop())

	resolver := mapResolver{
		"a": {ID: "a", Title: "A", Artists: []string{"X"}},
		"b": {ID: "b", Title: "B", Artists: []string{"Y"}},
	}
	rec := reconciler.New(f.channel, noCovers{}, reconciler.Options{}, zap.NewNop())

	f.poller = NewPoller(f.negotiator, resolver, rec, f.channel, f.store,
		PollerConfig{Token: token, Interval: time.Second}, zap.NewNop())
	f.poller.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) play(id string) {
	f.negotiator.queue = ynison.QueueTrack{PlayableID: id}
	f.negotiator.err = nil
}

func (f *fixture) tick() []string {
	f.channel.calls = nil
	f.poller.Tick(context.Background())
	f.clock = f.clock.Add(15 * time.Second)
	return f.channel.calls
}

func TestPoller_DisabledDoesNothing(t *testing.T) {
	f := newFixture(t, "token")

	assert.Empty(t, f.tick())
	assert.Zero(t, f.negotiator.calls)
	assert.Equal(t, "disabled", f.poller.LastTick().Skipped)
}

func TestPoller_EndToEnd(t *testing.T) {
	f := newFixture(t, "token")
	ctx := context.Background()
	require.NoError(t, f.store.SetEnabled(ctx, true))
	require.NoError(t, f.repo.SetInt(ctx, model.KeyStatusMessageID.String(), 10))
	require.NoError(t, f.repo.SetInt(ctx, model.KeyHistoryMessageID.String(), 11))

	f.play("a")
	assert.Equal(t, []string{"title:A", "edit:10", "edit:11"}, f.tick())
	assert.Empty(t, f.tick())

	f.play("b")
	assert.Equal(t, []string{"title:B", "edit:10", "edit:11"}, f.tick())

	var history []string
	_, err := f.repo.GetJSON(ctx, model.KeyTrackHistory.String(), &history)
	require.NoError(t, err)
	assert.Equal(t, []string{"A - X", "B - Y"}, history)
	assert.Equal(t, "playing(B)", f.poller.LastTick().Snapshot)
}

func TestPoller_RecreatesMissingMessages(t *testing.T) {
	f := newFixture(t, "token")
	ctx := context.Background()
	require.NoError(t, f.store.SetEnabled(ctx, true))

	calls := f.tick()
	assert.Equal(t, []string{"send:1", "send:2"}, calls)

	history, _ := f.repo.GetInt(ctx, model.KeyHistoryMessageID.String())
	status, _ := f.repo.GetInt(ctx, model.KeyStatusMessageID.String())
	assert.Equal(t, 1, history)
	assert.Equal(t, 2, status)
}

func TestPoller_PlaceholderFailureKeepsFlag(t *testing.T) {
	f := newFixture(t, "token")
	ctx := context.Background()
	require.NoError(t, f.store.SetEnabled(ctx, true))
	f.channel.sendErr = errors.New("connection reset by peer")

	f.tick()

	enabled, err := f.store.Enabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Error(t, f.poller.LastTick().Err)

	f.channel.sendErr = nil
	f.play("a")
	assert.Equal(t, []string{"send:1", "send:2", "title:A", "edit:2", "edit:1"}, f.tick())
	assert.NoError(t, f.poller.LastTick().Err)
}

func TestPoller_PartialPlaceholderFailure(t *testing.T) {
	f := newFixture(t, "token")
	ctx := context.Background()
	require.NoError(t, f.store.SetEnabled(ctx, true))
	f.channel.sendErrs = []error{nil, errors.New("flood wait")}

	assert.Equal(t, []string{"send:1"}, f.tick())

	history, _ := f.repo.GetInt(ctx, model.KeyHistoryMessageID.String())
	assert.Equal(t, 1, history)

	// история уже есть, повторно публикуется только статус
	assert.Equal(t, []string{"send:2"}, f.tick())
	status, _ := f.repo.GetInt(ctx, model.KeyStatusMessageID.String())
	assert.Equal(t, 2, status)
}

func TestPoller_RetriesFailedSave(t *testing.T) {
	f := newFixture(t, "token")
	ctx := context.Background()
	require.NoError(t, f.store.SetEnabled(ctx, true))
	require.NoError(t, f.repo.SetInt(ctx, model.KeyStatusMessageID.String(), 10))
	require.NoError(t, f.repo.SetInt(ctx, model.KeyHistoryMessageID.String(), 11))
	f.repo.failJSON = 1

	f.play("a")
	f.tick()
	assert.Error(t, f.poller.LastTick().Err)

	_, ok, _ := f.repo.GetString(ctx, model.KeyTrackHistory.String())
	assert.False(t, ok)

	assert.Empty(t, f.tick(), "same track, nothing to change in the channel")
	assert.NoError(t, f.poller.LastTick().Err)

	var history []string
	found, err := f.repo.GetJSON(ctx, model.KeyTrackHistory.String(), &history)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"A - X"}, history)
}

func TestPoller_StateDoesNotWaitForTick(t *testing.T) {
	f := newFixture(t, "token")
	ctx := context.Background()
	require.NoError(t, f.store.SetEnabled(ctx, true))
	require.NoError(t, f.repo.SetInt(ctx, model.KeyStatusMessageID.String(), 10))
	require.NoError(t, f.repo.SetInt(ctx, model.KeyHistoryMessageID.String(), 11))
	f.play("a")
	f.tick()

	f.poller.mu.Lock()
	defer f.poller.mu.Unlock()

	done := make(chan reconciler.State, 1)
	go func() { done <- f.poller.State() }()

	select {
	case state := <-done:
		require.NotNil(t, state.LastTitle)
		assert.Equal(t, "A", *state.LastTitle)
	case <-time.After(time.Second):
		t.Fatal("State blocked on a running tick")
	}
}

func TestPoller_MissingChannelDisables(t *testing.T) {
	f := newFixture(t, "token")
	ctx := context.Background()
	require.NoError(t, f.store.SetEnabled(ctx, true))
	f.channel.configured = false

	f.tick()

	enabled, _ := f.store.Enabled(ctx)
	assert.False(t, enabled)
	assert.ErrorIs(t, f.poller.LastTick().Err, ErrChannelNotConfigured)
	assert.Zero(t, f.negotiator.calls)
}

func TestPoller_MissingTokenSkips(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, f.store.SetEnabled(context.Background(), true))

	assert.Empty(t, f.tick())
	assert.Zero(t, f.negotiator.calls)
	assert.Equal(t, "token not configured", f.poller.LastTick().Skipped)
}

func TestPoller_UnresolvedTrackIsNoTrack(t *testing.T) {
	f := newFixture(t, "token")
	ctx := context.Background()
	require.NoError(t, f.store.SetEnabled(ctx, true))
	require.NoError(t, f.repo.SetInt(ctx, model.KeyStatusMessageID.String(), 10))
	require.NoError(t, f.repo.SetInt(ctx, model.KeyHistoryMessageID.String(), 11))

	f.play("unknown")
	assert.Empty(t, f.tick())
	assert.Equal(t, "no_track", f.poller.LastTick().Snapshot)
}

func TestLiveService_Toggle(t *testing.T) {
	f := newFixture(t, "token")
	ctx := context.Background()
	live := NewLiveService(f.poller, f.store, f.channel, nil, NewIdleCover(""), 555, t.TempDir(), zap.NewNop())

	require.NoError(t, f.repo.SetInt(ctx, model.KeyStatusMessageID.String(), 7))
	require.NoError(t, f.repo.SetInt(ctx, model.KeyHistoryMessageID.String(), 6))
	f.play("a")

	enabled, err := live.Toggle(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, []string{
		"promote:555",
		"delete:6", "delete:7",
		"send:1", "send:2",
		"title:A", "edit:2", "edit:1",
	}, f.channel.calls)

	status, err := live.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	assert.Equal(t, "A", status.NowPlaying)
	assert.Equal(t, []string{"A - X"}, status.History)

	f.channel.calls = nil
	enabled, err = live.Toggle(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Empty(t, f.channel.calls)
}

func TestLiveService_ToggleWithoutChannel(t *testing.T) {
	f := newFixture(t, "token")
	f.channel.configured = false
	live := NewLiveService(f.poller, f.store, f.channel, nil, NewIdleCover(""), 0, t.TempDir(), zap.NewNop())

	_, err := live.Toggle(context.Background())
	assert.ErrorIs(t, err, ErrChannelNotConfigured)

	enabled, _ := f.store.Enabled(context.Background())
	assert.False(t, enabled)
}

type fileWriter struct{ content string }

func (w fileWriter) DownloadFile(_ context.Context, _ string, dst string) error {
	return os.WriteFile(dst, []byte(w.content), 0o644)
}

func TestLiveService_SetIdleCover(t *testing.T) {
	f := newFixture(t, "token")
	dir := t.TempDir()
	idle := NewIdleCover(filepath.Join(dir, "missing.jpg"))
	live := NewLiveService(f.poller, f.store, f.channel, fileWriter{"jpeg"}, idle, 0, dir, zap.NewNop())

	assert.Empty(t, idle.Path(), "missing file is not offered")

	first, err := live.SetIdleCover(context.Background(), "file-1")
	require.NoError(t, err)
	assert.Equal(t, first, idle.Path())

	stored, err := f.store.IdleCoverPath(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, stored)

	second, err := live.SetIdleCover(context.Background(), "file-2")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	_, err = os.Stat(first)
	assert.True(t, os.IsNotExist(err), "previous cover is removed")
}
