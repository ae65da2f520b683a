package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRequester struct {
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	title     string
	sendErr   error
	fileURL   string
}

func (f *fakeRequester) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	return tgbotapi.Message{MessageID: 100 + len(f.sent)}, nil
}

func (f *fakeRequester) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requested = append(f.requested, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeRequester) GetChat(cfg tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	return tgbotapi.Chat{ID: cfg.ChatID, Title: f.title}, nil
}

func (f *fakeRequester) GetFileDirectURL(string) (string, error) {
	return f.fileURL, nil
}

func TestNormalizeChannelID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"1234567890", -1001234567890, false},
		{"-1001234567890", -1001234567890, false},
		{" 42 ", -10042, false},
		{"", 0, false},
		{"abc", 0, true},
		{"-x", 0, true},
	}
	for _, tt := range tests {
		got, err := NormalizeChannelID(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "Song", NormalizeTitle("  Song "))
	assert.Equal(t, "\u00e9", NormalizeTitle("e\u0301"))

	long := strings.Repeat("я", 200)
	assert.Equal(t, MaxTitleLength, len([]rune(NormalizeTitle(long))))
}

func TestChannel_Operations(t *testing.T) {
	api := &fakeRequester{title: "Current"}
	ch := NewChannel(api, -1001, zap.NewNop())
	ctx := context.Background()

	title, err := ch.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Current", title)

	require.NoError(t, ch.SetTitle(ctx, " New "))
	require.NoError(t, ch.SetPhoto(ctx, "/tmp/c.jpg"))
	require.NoError(t, ch.PromoteInfoEditor(ctx, 77))
	require.NoError(t, ch.DeleteMessage(ctx, 5))

	require.Len(t, api.requested, 4)
	assert.Equal(t, tgbotapi.SetChatTitleConfig{ChatID: -1001, Title: "New"}, api.requested[0])

	photo, ok := api.requested[1].(tgbotapi.SetChatPhotoConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-1001), photo.ChatID)
	assert.Equal(t, tgbotapi.FilePath("/tmp/c.jpg"), photo.File)

	promote, ok := api.requested[2].(tgbotapi.PromoteChatMemberConfig)
	require.True(t, ok)
	assert.True(t, promote.CanChangeInfo)
	assert.Equal(t, int64(77), promote.UserID)

	id, err := ch.SendMessage(ctx, "<b>hi</b>")
	require.NoError(t, err)
	assert.Equal(t, 101, id)
	msg := api.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.True(t, msg.DisableWebPagePreview)
}

func TestChannel_EditNotModifiedIsSuccess(t *testing.T) {
	api := &fakeRequester{sendErr: errors.New("Bad Request: message is not modified: specified new message content is the same")}
	ch := NewChannel(api, -1001, zap.NewNop())

	assert.NoError(t, ch.EditMessage(context.Background(), 3, "-"))

	api.sendErr = errors.New("Bad Request: message to edit not found")
	err := ch.EditMessage(context.Background(), 3, "-")
	assert.ErrorIs(t, err, ErrPlatformUpdate)
}

func TestChannel_NotConfigured(t *testing.T) {
	api := &fakeRequester{}
	ch := NewChannel(api, 0, zap.NewNop())

	assert.False(t, ch.Configured())
	assert.ErrorIs(t, ch.SetTitle(context.Background(), "x"), ErrNoChannel)
	_, err := ch.SendMessage(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoChannel)
	assert.Empty(t, api.requested)
	assert.Empty(t, api.sent)
}

func TestClient_CleansServiceMessages(t *testing.T) {
	api := &fakeRequester{}
	client := &Client{channel: NewChannel(api, -1001, zap.NewNop()), logger: zap.NewNop()}
	ctx := context.Background()

	client.processUpdate(ctx, tgbotapi.Update{ChannelPost: &tgbotapi.Message{
		MessageID: 9, Chat: &tgbotapi.Chat{ID: -1001}, NewChatTitle: "Song",
	}})
	client.processUpdate(ctx, tgbotapi.Update{ChannelPost: &tgbotapi.Message{
		MessageID: 10, Chat: &tgbotapi.Chat{ID: -1001}, Text: "regular post",
	}})
	client.processUpdate(ctx, tgbotapi.Update{ChannelPost: &tgbotapi.Message{
		MessageID: 11, Chat: &tgbotapi.Chat{ID: -2002}, NewChatTitle: "Other",
	}})

	require.Len(t, api.requested, 1)
	assert.Equal(t, tgbotapi.NewDeleteMessage(-1001, 9), api.requested[0])
}

type recordingRouter struct{ updates []tgbotapi.Update }

func (r *recordingRouter) HandleUpdate(u tgbotapi.Update)              { r.updates = append(r.updates, u) }
func (r *recordingRouter) RegisterBotCommands() []tgbotapi.BotCommand { return nil }

func TestClient_RoutesOnlyCommands(t *testing.T) {
	router := &recordingRouter{}
	client := &Client{channel: NewChannel(&fakeRequester{}, -1001, zap.NewNop()), router: router, logger: zap.NewNop()}

	command := &tgbotapi.Message{
		Text:     "/yalive",
		Chat:     &tgbotapi.Chat{ID: 1},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 7}},
	}
	client.processUpdate(context.Background(), tgbotapi.Update{Message: command})
	client.processUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 1}}})

	require.Len(t, router.updates, 1)
	assert.Equal(t, "yalive", router.updates[0].Message.Command())
}

func TestBotAPI_DownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("photo"))
	}))
	t.Cleanup(srv.Close)

	api := NewTelegramBotAPI(&fakeRequester{fileURL: srv.URL + "/file"}, zap.NewNop())
	dst := filepath.Join(t.TempDir(), "covers", "idle.jpg")

	require.NoError(t, api.DownloadFile(context.Background(), "file-id", dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "photo", string(data))
}

func TestBotAPI_DownloadFileTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	t.Cleanup(srv.Close)

	api := NewTelegramBotAPI(&fakeRequester{fileURL: srv.URL + "/file"}, zap.NewNop())
	api.maxSize = 4
	dir := t.TempDir()
	dst := filepath.Join(dir, "idle.jpg")

	err := api.DownloadFile(context.Background(), "file-id", dst)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is left behind")
}
