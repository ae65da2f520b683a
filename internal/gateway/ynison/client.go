// Package ynison реализует двухшаговое рукопожатие с сервисом Ynison
// (realtime-сессии Яндекс Музыки) для получения текущей очереди.
package ynison

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// DefaultRedirectorURL адрес редиректора Ynison
	DefaultRedirectorURL = "wss://ynison.music.yandex.ru/redirector.YnisonRedirectService/GetRedirectToYnison"
	statePath            = "/ynison_state.YnisonStateService/PutYnisonState"
	origin               = "http://music.yandex.ru"
	deviceInfoJSON       = `{"app_name":"Chrome","type":1}`
	defaultTimeout       = 10 * time.Second
)

var (
	// ErrProtocol неожиданный или неполный ответ
	ErrProtocol = errors.New("ynison protocol error")
	// ErrTimeout нет ответа за отведенное время
	ErrTimeout = errors.New("ynison timeout")
)

// Client выполняет рукопожатие. Соединения не удерживаются между вызовами.
type Client struct {
	redirectorURL string
	stateScheme   string
	timeout       time.Duration
	dialer        *websocket.Dialer
	logger        *zap.Logger
}

// Option настраивает Client
type Option func(*Client)

// WithRedirectorURL подменяет адрес редиректора
func WithRedirectorURL(u string) Option {
	return func(c *Client) { c.redirectorURL = u }
}

// WithStateScheme задает схему для второго соединения (wss по умолчанию)
func WithStateScheme(scheme string) Option {
	return func(c *Client) { c.stateScheme = scheme }
}

// WithTimeout задает ограничение на каждый шаг
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient создает клиент Ynison
func NewClient(logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		redirectorURL: DefaultRedirectorURL,
		stateScheme:   "wss",
		timeout:       defaultTimeout,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dialer = &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.timeout,
	}
	return c
}

// Negotiate получает снимок очереди: редирект, затем одно состояние.
// Повторов нет, их ритм задает опрос.
func (c *Client) Negotiate(ctx context.Context, token string) (RawQueue, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrProtocol)
	}

	deviceID := newDeviceID()

	host, ticket, err := c.redirect(ctx, token, deviceID)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Ynison redirect received", zap.String("host", host))

	return c.putState(ctx, token, deviceID, host, ticket)
}

// redirect первый шаг: получение host и redirect_ticket
func (c *Client) redirect(ctx context.Context, token, deviceID string) (string, string, error) {
	conn, err := c.dial(ctx, c.redirectorURL, c.headers(token, deviceID, ""))
	if err != nil {
		return "", "", classify("redirect dial", err)
	}
	defer conn.Close()

	data, err := c.readFrame(conn)
	if err != nil {
		return "", "", classify("redirect read", err)
	}

	return parseRedirect(data)
}

// putState второй шаг: объявляемся неактивным плеером и читаем одно состояние
func (c *Client) putState(ctx context.Context, token, deviceID, host, ticket string) (RawQueue, error) {
	stateURL := c.stateScheme + "://" + strings.TrimSuffix(host, "/") + statePath

	conn, err := c.dial(ctx, stateURL, c.headers(token, deviceID, ticket))
	if err != nil {
		return nil, classify("state dial", err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, classify("state write", err)
	}
	if err := conn.WriteJSON(newPutStateRequest(deviceID)); err != nil {
		return nil, classify("state write", err)
	}

	data, err := c.readFrame(conn)
	if err != nil {
		return nil, classify("state read", err)
	}

	return ParseQueue(data)
}

func (c *Client) dial(ctx context.Context, url string, header http.Header) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, resp, err := c.dialer.DialContext(dialCtx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	return conn, nil
}

func (c *Client) readFrame(conn *websocket.Conn) ([]byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}
	_, data, err := conn.ReadMessage()
	return data, err
}

// headers собирает заголовки рукопожатия; учетные данные Ynison
// передаются внутри Sec-WebSocket-Protocol
func (c *Client) headers(token, deviceID, ticket string) http.Header {
	proto := map[string]string{
		"Ynison-Device-Id":   deviceID,
		"Ynison-Device-Info": deviceInfoJSON,
	}
	if ticket != "" {
		proto["Ynison-Redirect-Ticket"] = ticket
	}
	payload, _ := json.Marshal(proto)

	h := http.Header{}
	h.Set("Sec-WebSocket-Protocol", "Bearer, v2, "+string(payload))
	h.Set("Origin", origin)
	h.Set("Authorization", "OAuth "+token)
	return h
}

func newPutStateRequest(deviceID string) putStateRequest {
	v := version{DeviceID: deviceID, Version: time.Now().UnixNano(), TimestampMs: 0}

	return putStateRequest{
		UpdateFullState: updateFullState{
			PlayerState: playerState{
				PlayerQueue: playerQueue{
					CurrentPlayableIndex: -1,
					EntityType:           "VARIOUS",
					PlayableList:         []any{},
					Options:              map[string]any{"repeat_mode": "NONE"},
					EntityContext:        "BASED_ON_ENTITY_BY_DEFAULT",
					Version:              v,
				},
				Status: playerStatus{
					Paused:        true,
					PlaybackSpeed: 1,
					Version:       v,
				},
			},
			Device: device{
				Capabilities: capabilities{
					CanBePlayer:       true,
					VolumeGranularity: 16,
				},
				Info: deviceInfo{
					DeviceID: deviceID,
					Type:     "WEB",
					Title:    "Chrome Browser",
					AppName:  "Chrome",
				},
				VolumeInfo: map[string]int{"volume": 0},
				IsShadow:   true,
			},
			IsCurrentlyActive: false,
		},
		RID:                      uuid.NewString(),
		ActivityInterceptionType: "DO_NOT_INTERCEPT_BY_DEFAULT",
	}
}

// newDeviceID случайный идентификатор устройства на одну сессию
func newDeviceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// classify сводит сетевые ошибки к ErrTimeout или ErrProtocol
func classify(step string, err error) error {
	if errors.Is(err, ErrProtocol) || errors.Is(err, ErrTimeout) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, step, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrProtocol, step, err)
}
