package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// JSONMap represents a generic JSON object stored in a JSONB column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported JSONMap source type %T", src)
	}
	return json.Unmarshal(b, m)
}

// Clone returns a deep copy of the map via a JSON round trip.
func (m JSONMap) Clone() JSONMap {
	if m == nil {
		return JSONMap{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return JSONMap{}
	}
	var out JSONMap
	if err := json.Unmarshal(b, &out); err != nil {
		return JSONMap{}
	}
	return out
}
