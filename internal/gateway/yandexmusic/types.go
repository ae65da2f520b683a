package yandexmusic

import (
	"bytes"
	"encoding/json"
)

// Track метаданные трека из каталога
type Track struct {
	ID       string
	Title    string
	Artists  []string
	CoverURI string
	AlbumID  string
}

// tracksResponse ответ /tracks/<id>
type tracksResponse struct {
	Result []trackDTO `json:"result"`
}

type trackDTO struct {
	ID       anyID  `json:"id"`
	RealID   anyID  `json:"realId"`
	Title    string `json:"title"`
	Version  string `json:"version"`
	CoverURI string `json:"coverUri"`
	OgImage  string `json:"ogImage"`
	Artists  []struct {
		ID   anyID  `json:"id"`
		Name string `json:"name"`
	} `json:"artists"`
	Albums []struct {
		ID       anyID  `json:"id"`
		CoverURI string `json:"coverUri"`
	} `json:"albums"`
}

// anyID идентификатор, который API отдает то строкой, то числом
type anyID string

func (a *anyID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = anyID(s)
		return nil
	}
	*a = anyID(data)
	return nil
}
