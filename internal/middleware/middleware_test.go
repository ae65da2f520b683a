package middleware

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct{ texts []string }

func (r *recordingNotifier) SendMessage(_ int64, text string) error {
	r.texts = append(r.texts, text)
	return nil
}

func command(user, text string) tgbotapi.Update {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: 1, UserName: user},
		Chat:     &tgbotapi.Chat{ID: 1},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}}
}

func TestOwnerOnly(t *testing.T) {
	notifier := &recordingNotifier{}
	mw := OwnerOnlyMiddleware("@Owner", notifier, zap.NewNop())

	var handled []string
	next := func(u tgbotapi.Update) { handled = append(handled, u.Message.Text) }

	mw(command("owner", "/yalive"), next)
	mw(command("stranger", "/yalive"), next)
	mw(command("stranger", "/help"), next)

	assert.Equal(t, []string{"/yalive", "/help"}, handled)
	require.Len(t, notifier.texts, 1)
	assert.Equal(t, accessDeniedText, notifier.texts[0])
}

func TestChain_Order(t *testing.T) {
	var order []string
	mk := func(name string) Func {
		return func(u tgbotapi.Update, next Handler) {
			order = append(order, name)
			next(u)
		}
	}

	Chain(mk("a"), mk("b"), mk("c"))(tgbotapi.Update{}, func(tgbotapi.Update) { order = append(order, "handler") })
	assert.Equal(t, []string{"a", "b", "c", "handler"}, order)
}

func TestRecoveryMiddleware(t *testing.T) {
	assert.NotPanics(t, func() {
		RecoveryMiddleware(zap.NewNop())(command("owner", "/yalive"), func(tgbotapi.Update) { panic("boom") })
	})
}

func TestDebounce_Toggle(t *testing.T) {
	mw := DebounceMiddleware(NewDebouncer(time.Second, zap.NewNop()), zap.NewNop())

	calls := 0
	next := func(tgbotapi.Update) { calls++ }

	mw(command("owner", "/yalive"), next)
	mw(command("owner", "/yalive"), next)
	mw(command("owner", "/yastatus"), next)

	assert.Equal(t, 2, calls)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, zap.NewNop())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow(1))
	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))
	assert.True(t, rl.Allow(2))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow(1))

	now = now.Add(2 * time.Minute)
	rl.Cleanup()
	assert.Empty(t, rl.requests)
}

func TestProcessWithMiddleware(t *testing.T) {
	notifier := &recordingNotifier{}
	m := New("owner", notifier, zap.NewNop())

	handled := 0
	m.ProcessWithMiddleware(command("owner", "/yastatus"), func(tgbotapi.Update) { handled++ })
	m.ProcessWithMiddleware(command("other", "/yastatus"), func(tgbotapi.Update) { handled++ })

	assert.Equal(t, 1, handled)
	assert.Len(t, notifier.texts, 1)
}
