// Package yandexmusic реализует клиент каталога Яндекс Музыки:
// метаданные трека по идентификатору и загрузку обложки.
package yandexmusic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// DefaultBaseURL адрес API каталога
const DefaultBaseURL = "https://api.music.yandex.net"

// maxResponseSize ограничение на размер ответа каталога
const maxResponseSize = 2 << 20

// ErrResolution каталог не вернул пригодную запись
var ErrResolution = errors.New("track resolution failed")

// Client клиент каталога
type Client struct {
	baseURL  string
	api      *http.Client
	cdn      *http.Client
	retry    RetryConfig
	coverDir string
	maxCover int64
	logger   *zap.Logger
}

// Option настраивает Client
type Option func(*Client)

// WithBaseURL подменяет адрес API
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithCoverDir каталог для временных файлов обложек
func WithCoverDir(dir string) Option {
	return func(c *Client) { c.coverDir = dir }
}

// WithRetryConfig задает политику повторов загрузки обложки
func WithRetryConfig(rc RetryConfig) Option {
	return func(c *Client) { c.retry = rc }
}

// NewClient создает клиент каталога. Токен добавляется только к запросам API,
// загрузка обложек с CDN идет без него.
func NewClient(token string, logger *zap.Logger, opts ...Option) *Client {
	base := NewHTTPClient(DefaultHTTPClientConfig(), logger)

	c := &Client{
		baseURL: DefaultBaseURL,
		api: &http.Client{
			Transport: &oauthTransport{base: base.Transport, token: token},
			Timeout:   base.Timeout,
		},
		cdn:    base,
		retry:    DefaultRetryConfig(),
		maxCover: maxCoverSize,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveTrack возвращает метаданные трека. Любая проблема (пустой id,
// транспорт, статус, формат, не ровно одна запись) дает (nil, false).
func (c *Client) ResolveTrack(ctx context.Context, id string) (*Track, bool) {
	track, err := c.fetchTrack(ctx, id)
	if err != nil {
		c.logger.Warn("Failed to resolve track", zap.String("track_id", id), zap.Error(err))
		return nil, false
	}
	return track, true
}

func (c *Client) fetchTrack(ctx context.Context, id string) (*Track, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty track id", ErrResolution)
	}

	endpoint := c.baseURL + "/tracks/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrResolution, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.api.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request: %v", ErrResolution, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d", ErrResolution, resp.StatusCode)
	}

	var payload tracksResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrResolution, err)
	}

	return toTrack(payload)
}

// toTrack проверяет форму ответа и переводит его в Track
func toTrack(payload tracksResponse) (*Track, error) {
	if len(payload.Result) != 1 {
		return nil, fmt.Errorf("%w: expected one record, got %d", ErrResolution, len(payload.Result))
	}

	dto := payload.Result[0]
	title := strings.TrimSpace(dto.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: record without title", ErrResolution)
	}

	track := &Track{
		ID:       string(dto.ID),
		Title:    title,
		CoverURI: dto.CoverURI,
	}
	if track.ID == "" {
		track.ID = string(dto.RealID)
	}

	for _, a := range dto.Artists {
		if name := strings.TrimSpace(a.Name); name != "" {
			track.Artists = append(track.Artists, name)
		}
	}

	if len(dto.Albums) > 0 {
		track.AlbumID = string(dto.Albums[0].ID)
		if track.CoverURI == "" {
			track.CoverURI = dto.Albums[0].CoverURI
		}
	}
	if track.CoverURI == "" {
		track.CoverURI = dto.OgImage
	}

	return track, nil
}
