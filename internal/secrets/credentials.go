package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DBCredentials are the connection parameters stored in the database secret.
// The JSON layout matches the one RDS writes for managed secrets.
type DBCredentials struct {
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
	Port     Port   `json:"port"`
	DBName   string `json:"dbname,omitempty"`
}

// Port accepts either a JSON number or a numeric string.
type Port int

// UnmarshalJSON implements json.Unmarshaler.
func (p *Port) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid port %s", data)
	}
	*p = Port(n)
	return nil
}

// ParseDBCredentials decodes a secret payload.
func ParseDBCredentials(payload string) (*DBCredentials, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, errors.New("secret payload is empty")
	}

	var creds DBCredentials
	if err := json.Unmarshal([]byte(payload), &creds); err != nil {
		return nil, fmt.Errorf("decoding secret payload: %w", err)
	}
	return &creds, nil
}
