// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: KV
package model

import (
	"time"

	"github.com/uptrace/bun"
)

// KV представляет одну запись хранилища ключ-значение
type KV struct {
	bun.BaseModel `bun:"table:ymlive_kv"`

	Key       string    `bun:"name,pk" json:"key"`
	Value     string    `bun:"value,notnull" json:"value"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
