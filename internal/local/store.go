// Package local persists device-side state: the journal entry list, the
// last sync time, the auto-sync switch and the configured user name.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Keys of the persisted device state.
const (
	KeyJournalEntries  = "journalEntries"
	KeyLastSyncTime    = "last_sync_time"
	KeyAutoSyncEnabled = "auto_sync_enabled"
	KeyLineUsername    = "line-username"
)

// Store is a string key/value store.
type Store interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key; removing an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// ReadEntries decodes the stored entry list. A missing key, an empty value
// or a JSON null yield an empty list. Elements that are not JSON objects are
// returned as nil maps so callers can count and skip them.
func ReadEntries(ctx context.Context, s Store) ([]map[string]any, error) {
	raw, ok, err := s.Get(ctx, KeyJournalEntries)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return DecodeEntries(raw)
}

// DecodeEntries parses a stored entry list. Numbers are kept as json.Number.
func DecodeEntries(raw string) ([]map[string]any, error) {
	if len(bytes.TrimSpace([]byte(raw))) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("decode entries: expected a list, got %T", v)
	}
	out := make([]map[string]any, len(list))
	for i, el := range list {
		if m, ok := el.(map[string]any); ok {
			out[i] = m
		}
	}
	return out, nil
}

// WriteEntries stores entries as the journal entry list.
func WriteEntries(ctx context.Context, s Store, entries []map[string]any) error {
	if entries == nil {
		entries = []map[string]any{}
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	return s.Set(ctx, KeyJournalEntries, string(b))
}

// AutoSyncEnabled reports the persisted auto-sync switch. Only the literal
// "false" disables it.
func AutoSyncEnabled(ctx context.Context, s Store) (bool, error) {
	v, ok, err := s.Get(ctx, KeyAutoSyncEnabled)
	if err != nil {
		return false, err
	}
	return !ok || v != "false", nil
}

// SetAutoSyncEnabled persists the auto-sync switch.
func SetAutoSyncEnabled(ctx context.Context, s Store, enabled bool) error {
	v := "false"
	if enabled {
		v = "true"
	}
	return s.Set(ctx, KeyAutoSyncEnabled, v)
}
