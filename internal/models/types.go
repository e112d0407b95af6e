package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the wire format for every timestamp in a response body.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Layouts the stores are known to hand back when a driver returns text
// instead of a time.Time.
var scanLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a time.Time that serializes as ISO-8601 UTC with millisecond
// precision and scans from any of the supported drivers.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// String implements fmt.Stringer.
func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		parsed, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	case []byte:
		parsed, err := ParseTimestamp(string(v))
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	case nil:
		return fmt.Errorf("cannot scan NULL into Timestamp")
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
}

// Value implements driver.Valuer.
func (t Timestamp) Value() (driver.Value, error) {
	return t.UTC(), nil
}

// NullTimestamp is a Timestamp that may be NULL.
type NullTimestamp struct {
	Timestamp Timestamp
	Valid     bool
}

// Scan implements sql.Scanner.
func (n *NullTimestamp) Scan(src interface{}) error {
	if src == nil {
		n.Timestamp, n.Valid = Timestamp{}, false
		return nil
	}
	if err := n.Timestamp.Scan(src); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Ptr returns nil when the value is NULL.
func (n NullTimestamp) Ptr() *Timestamp {
	if !n.Valid {
		return nil
	}
	ts := n.Timestamp
	return &ts
}

// ParseTimestamp parses s using the layouts drivers produce, returning UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range scanLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
