// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrVersionMismatch defines that stored record schema differs from supported one.
var ErrVersionMismatch = errors.New("record version mismatch")

// Namespace defines independent part of the wallet state.
type Namespace string

const (
	// NamespaceConfig keeps wallet configuration.
	NamespaceConfig Namespace = "config"
	// NamespaceKeyring keeps derived account indexes.
	NamespaceKeyring Namespace = "keyring"
	// NamespaceHTTP keeps chain service connection settings.
	NamespaceHTTP Namespace = "http"
)

// Schema versions of the namespace records.
const (
	ConfigRecordVersion  = 1
	KeyringRecordVersion = 1
	HTTPRecordVersion    = 1
)

// statePrefix prefixes every state key.
const statePrefix = "state/"

// ConfigRecord describes persisted wallet configuration.
type ConfigRecord struct {
	Network        string `json:"network"`
	DerivationPath string `json:"derivationPath"`
	CoinType       uint32 `json:"coinType"`
	URL            string `json:"url"`
}

// KeyringRecord describes persisted keyring accounts.
type KeyringRecord struct {
	Indexes      []uint32 `json:"indexes"`
	CurrentIndex uint32   `json:"currentIndex"`
	AddressType  string   `json:"addressType"`
}

// HTTPRecord describes persisted chain service connection.
type HTTPRecord struct {
	Host    string            `json:"host"`
	Headers map[string]string `json:"headers,omitempty"`
}

// envelope wraps namespace data with schema version and update time.
type envelope[T any] struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`
	Data      T         `json:"data"`
}

// State stores typed records of every namespace in DB.
type State struct {
	db  DB
	log zerolog.Logger
	now func() time.Time
}

// NewState is a constructor for State.
func NewState(db DB, log zerolog.Logger) *State {
	return &State{db: db, log: log, now: time.Now}
}

// Config returns stored configuration, false if absent.
func (s *State) Config() (ConfigRecord, time.Time, bool, error) {
	return load[ConfigRecord](s, NamespaceConfig, ConfigRecordVersion)
}

// SaveConfig stores configuration.
func (s *State) SaveConfig(record ConfigRecord) error {
	return save(s, NamespaceConfig, ConfigRecordVersion, record)
}

// Keyring returns stored keyring accounts, false if absent.
func (s *State) Keyring() (KeyringRecord, time.Time, bool, error) {
	return load[KeyringRecord](s, NamespaceKeyring, KeyringRecordVersion)
}

// SaveKeyring stores keyring accounts.
func (s *State) SaveKeyring(record KeyringRecord) error {
	return save(s, NamespaceKeyring, KeyringRecordVersion, record)
}

// HTTP returns stored chain service connection, false if absent.
func (s *State) HTTP() (HTTPRecord, time.Time, bool, error) {
	return load[HTTPRecord](s, NamespaceHTTP, HTTPRecordVersion)
}

// SaveHTTP stores chain service connection.
func (s *State) SaveHTTP(record HTTPRecord) error {
	return save(s, NamespaceHTTP, HTTPRecordVersion, record)
}

// Clear removes record of the namespace.
func (s *State) Clear(namespace Namespace) error {
	if err := s.db.Delete(stateKey(namespace)); err != nil {
		return fmt.Errorf("clear %s: %w", namespace, err)
	}

	s.log.Debug().Str("namespace", string(namespace)).Msg("state cleared")

	return nil
}

func load[T any](s *State, namespace Namespace, version int) (data T, updatedAt time.Time, ok bool, err error) {
	raw, err := s.db.Get(stateKey(namespace))
	if errors.Is(err, ErrNotFound) {
		return data, updatedAt, false, nil
	}
	if err != nil {
		return data, updatedAt, false, fmt.Errorf("load %s: %w", namespace, err)
	}

	var record envelope[T]
	if err = json.Unmarshal(raw, &record); err != nil {
		return data, updatedAt, false, fmt.Errorf("decode %s: %w", namespace, err)
	}
	if record.Version != version {
		return data, updatedAt, false, fmt.Errorf("%w: %s has %d, supported %d", ErrVersionMismatch, namespace, record.Version, version)
	}

	return record.Data, record.UpdatedAt, true, nil
}

func save[T any](s *State, namespace Namespace, version int, data T) error {
	raw, err := json.Marshal(envelope[T]{Version: version, UpdatedAt: s.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("encode %s: %w", namespace, err)
	}

	if err = s.db.Put(stateKey(namespace), raw); err != nil {
		return fmt.Errorf("save %s: %w", namespace, err)
	}

	s.log.Debug().Str("namespace", string(namespace)).Msg("state saved")

	return nil
}

func stateKey(namespace Namespace) []byte {
	return []byte(statePrefix + string(namespace))
}
