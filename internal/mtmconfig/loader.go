package mtmconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Load reads a settings YAML file on top of Defaults()
// KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Settings, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	s, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return s, data, nil
}

// Parse decodes YAML settings; fields not present keep their defaults
func Parse(data []byte) (*Settings, error) {
	s := Defaults()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Hash generates SHA256 hash from Settings (canonical JSON)
func Hash(s *Settings) (string, error) {
	jsonBytes, err := json.Marshal(s)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// NewRunSnapshot stamps a run with a fresh id and the settings hash
func NewRunSnapshot(s *Settings, valuationDate time.Time) (*RunSnapshot, error) {
	hash, err := Hash(s)
	if err != nil {
		return nil, err
	}

	return &RunSnapshot{
		RunID:         uuid.NewString(),
		SettingsHash:  hash,
		Settings:      *s,
		ValuationDate: valuationDate,
		CreatedAt:     time.Now(),
	}, nil
}
