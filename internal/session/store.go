// Package session persists the dataset, cursor, and generation timestamp.
package session

import (
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"github.com/verte-zerg/bpsim/internal/apperr"
	"github.com/verte-zerg/bpsim/internal/kv"
	"github.com/verte-zerg/bpsim/internal/model"
)

// Persisted slot keys. These are the wire format shared with any other
// consumer of the same store.
const (
	keyDataset   = "bp-dataset"
	keyIndex     = "bp-index"
	keyTimestamp = "bp-timestamp"
)

const probeKeyPrefix = "bp-probe-"

const msgUnavailable = "storage is not available"

// Store wraps the persistence collaborator with the three session slots.
// The collaborator may be nil, which every operation treats as unavailable.
type Store struct {
	kv kv.Store
}

// NewStore wraps the given collaborator.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// Keys returns a copy of the slot-name mapping.
func (s *Store) Keys() model.StorageKeys {
	return model.StorageKeys{
		Dataset:   keyDataset,
		Index:     keyIndex,
		Timestamp: keyTimestamp,
	}
}

// available probes the collaborator with a throwaway write-then-delete of a
// sentinel key. The probe runs on every public call rather than being
// cached, so a medium that disappears mid-session is detected immediately.
func (s *Store) available() bool {
	if s.kv == nil {
		return false
	}
	probe := probeKeyPrefix + uuid.NewString()
	if err := s.kv.Set(probe, "1"); err != nil {
		return false
	}
	if err := s.kv.Delete(probe); err != nil {
		return false
	}
	return true
}

// StoreDataset serializes the dataset to JSON and writes the dataset slot.
func (s *Store) StoreDataset(readings []model.Reading) error {
	if !s.available() {
		return apperr.Storage(msgUnavailable, "")
	}
	data, err := json.Marshal(readings)
	if err != nil {
		return apperr.Storage("failed to serialize dataset", err.Error())
	}
	if err := s.kv.Set(keyDataset, string(data)); err != nil {
		return apperr.Storage("failed to store dataset", err.Error())
	}
	return nil
}

// Dataset reads and decodes the dataset slot.
func (s *Store) Dataset() ([]model.Reading, error) {
	if !s.available() {
		return nil, apperr.Storage(msgUnavailable, "")
	}
	raw, ok, err := s.kv.Get(keyDataset)
	if err != nil {
		return nil, apperr.Storage("failed to read dataset", err.Error())
	}
	if !ok {
		return nil, apperr.Storage("No dataset found", "")
	}
	var readings []model.Reading
	if err := json.Unmarshal([]byte(raw), &readings); err != nil {
		return nil, apperr.Storage("Failed to parse JSON data", err.Error())
	}
	return readings, nil
}

// StoreIndex writes the cursor slot as decimal text.
func (s *Store) StoreIndex(index int) error {
	if !s.available() {
		return apperr.Storage(msgUnavailable, "")
	}
	if err := s.kv.Set(keyIndex, strconv.Itoa(index)); err != nil {
		return apperr.Storage("failed to store index", err.Error())
	}
	return nil
}

// Index reads and parses the cursor slot.
func (s *Store) Index() (int, error) {
	if !s.available() {
		return 0, apperr.Storage(msgUnavailable, "")
	}
	raw, ok, err := s.kv.Get(keyIndex)
	if err != nil {
		return 0, apperr.Storage("failed to read index", err.Error())
	}
	if !ok {
		return 0, apperr.Storage("No index found", "")
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Storage("failed to parse stored index", err.Error())
	}
	return index, nil
}

// StoreTimestamp writes the generation timestamp slot as decimal text.
func (s *Store) StoreTimestamp(timestampMs int64) error {
	if !s.available() {
		return apperr.Storage(msgUnavailable, "")
	}
	if err := s.kv.Set(keyTimestamp, strconv.FormatInt(timestampMs, 10)); err != nil {
		return apperr.Storage("failed to store timestamp", err.Error())
	}
	return nil
}

// Timestamp reads and parses the generation timestamp slot.
func (s *Store) Timestamp() (int64, error) {
	if !s.available() {
		return 0, apperr.Storage(msgUnavailable, "")
	}
	raw, ok, err := s.kv.Get(keyTimestamp)
	if err != nil {
		return 0, apperr.Storage("failed to read timestamp", err.Error())
	}
	if !ok {
		return 0, apperr.Storage("No timestamp found", "")
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Storage("failed to parse stored timestamp", err.Error())
	}
	return ts, nil
}

// Clear deletes all three slots. Deletion is best-effort: every slot is
// attempted even after a failure, and the first failure is reported.
func (s *Store) Clear() error {
	if !s.available() {
		return apperr.Storage(msgUnavailable, "")
	}
	var firstErr error
	for _, key := range []string{keyDataset, keyIndex, keyTimestamp} {
		if err := s.kv.Delete(key); err != nil && firstErr == nil {
			firstErr = apperr.Storage("failed to clear storage", err.Error())
		}
	}
	return firstErr
}

// Initialized reports whether all three slots are present. It checks
// existence only, never content, and returns false rather than an error
// when the collaborator is unavailable.
func (s *Store) Initialized() bool {
	if !s.available() {
		return false
	}
	for _, key := range []string{keyDataset, keyIndex, keyTimestamp} {
		_, ok, err := s.kv.Get(key)
		if err != nil || !ok {
			return false
		}
	}
	return true
}
