package yandexmusic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultCoverSize размер обложки, подставляемый в шаблон
	DefaultCoverSize = "400x400"
	coverPlaceholder = "%%"
	maxCoverSize     = 10 << 20
	coverTimeout     = 15 * time.Second
)

// CoverURL превращает шаблон coverUri в URL загрузки:
// %% заменяется размером, схема приводится к https.
func CoverURL(uri, size string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	if size == "" {
		size = DefaultCoverSize
	}

	uri = strings.ReplaceAll(uri, coverPlaceholder, size)

	switch {
	case strings.HasPrefix(uri, "https://"):
	case strings.HasPrefix(uri, "http://"):
		uri = "https://" + strings.TrimPrefix(uri, "http://")
	case strings.HasPrefix(uri, "//"):
		uri = "https:" + uri
	default:
		uri = "https://" + uri
	}
	return uri
}

// DownloadCover скачивает обложку во временный файл. Вызывающий
// удаляет файл через cleanup.
func (c *Client) DownloadCover(ctx context.Context, coverURL string) (path string, cleanup func(), err error) {
	if coverURL == "" {
		return "", nil, errors.New("empty cover url")
	}

	ctx, cancel := context.WithTimeout(ctx, coverTimeout)
	defer cancel()

	err = withRetry(ctx, c.logger, c.retry, func() error {
		p, dlErr := c.downloadOnce(ctx, coverURL)
		if dlErr != nil {
			return dlErr
		}
		path = p
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("download cover: %w", err)
	}

	return path, func() { _ = os.Remove(path) }, nil
}

func (c *Client) downloadOnce(ctx context.Context, coverURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return "", permanentError{err}
	}

	resp, err := c.cdn.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", permanentError{err}
		}
		return "", err
	}

	f, err := os.CreateTemp(c.coverDir, "ymlive-cover-*.jpg")
	if err != nil {
		return "", permanentError{err}
	}

	n, err := io.Copy(f, io.LimitReader(resp.Body, c.maxCover+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	switch {
	case err != nil:
	case n == 0:
		err = errors.New("empty cover body")
	case n > c.maxCover:
		err = permanentError{fmt.Errorf("cover exceeds %d bytes", c.maxCover)}
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	c.logger.Debug("Cover downloaded", zap.String("url", coverURL), zap.Int64("bytes", n))
	return f.Name(), nil
}
