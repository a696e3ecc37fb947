package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type ValueType string

const (
	TypeString ValueType = "string"
	TypeInt    ValueType = "int"
	TypeFloat  ValueType = "float"
	TypeBool   ValueType = "bool"
	TypeJSON   ValueType = "json"
)

// Setting is a store-level configuration value. Values are stored as text and
// decoded per ValueType when read. Public settings are visible without a
// session so the register UI can render store branding before login.
type Setting struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	Key         string        `gorm:"not null;uniqueIndex" json:"key"`
	Value       string        `gorm:"not null;default:''" json:"-"`
	ValueType   ValueType     `gorm:"not null;default:string" json:"value_type"`
	Description string        `json:"description,omitempty"`
	Category    string        `gorm:"index" json:"category,omitempty"`
	IsPublic    bool          `gorm:"not null;default:false" json:"is_public"`
	UpdatedBy   *snowflake.ID `json:"updated_by,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Setting) TableName() string { return "settings" }

// TypedValue decodes the stored text per ValueType. A value that no longer
// parses as its declared type is returned as the raw string rather than an
// error so one bad row cannot break the whole settings listing.
func (s Setting) TypedValue() any {
	switch s.ValueType {
	case TypeInt:
		if n, err := strconv.ParseInt(s.Value, 10, 64); err == nil {
			return n
		}
	case TypeFloat:
		if f, err := strconv.ParseFloat(s.Value, 64); err == nil {
			return f
		}
	case TypeBool:
		switch strings.ToLower(s.Value) {
		case "true", "1", "yes", "on":
			return true
		default:
			return false
		}
	case TypeJSON:
		var v any
		if err := json.Unmarshal([]byte(s.Value), &v); err == nil {
			return v
		}
	}
	return s.Value
}

// View is the wire shape of a setting with its value decoded.
type View struct {
	ID          snowflake.ID  `json:"id"`
	Key         string        `json:"key"`
	Value       any           `json:"value"`
	ValueType   ValueType     `json:"value_type"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category,omitempty"`
	IsPublic    bool          `json:"is_public"`
	UpdatedBy   *snowflake.ID `json:"updated_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (s Setting) View() View {
	return View{
		ID:          s.ID,
		Key:         s.Key,
		Value:       s.TypedValue(),
		ValueType:   s.ValueType,
		Description: s.Description,
		Category:    s.Category,
		IsPublic:    s.IsPublic,
		UpdatedBy:   s.UpdatedBy,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// EncodeValue renders a decoded JSON value back to storage form, inferring the
// ValueType the way values arrive from encoding/json. Whole-number floats are
// kept as ints since JSON does not distinguish the two.
func EncodeValue(value any) (string, ValueType) {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v), TypeBool
	case int:
		return strconv.FormatInt(int64(v), 10), TypeInt
	case int64:
		return strconv.FormatInt(v, 10), TypeInt
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), TypeInt
		}
		return strconv.FormatFloat(v, 'f', -1, 64), TypeFloat
	case string:
		return v, TypeString
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", TypeString
		}
		return string(raw), TypeJSON
	}
}
