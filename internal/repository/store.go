package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskplanner/internal/model"
)

// KV is the persistence port: JSON values under string keys. Load reports
// false when the key has never been written.
type KV interface {
	Load(ctx context.Context, key string, dest any) (bool, error)
	Save(ctx context.Context, key string, value any) error
	// SaveAll writes every key or none of them.
	SaveAll(ctx context.Context, values map[string]any) error
}

// KeyLister is implemented by stores that can enumerate their keys.
type KeyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Store is the SQLite-backed KV.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Load(ctx context.Context, key string, dest any) (bool, error) {
	var entry model.Entry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(entry.Value), dest); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Save(ctx context.Context, key string, value any) error {
	entry, err := encode(key, value)
	if err != nil {
		return err
	}
	return upsert(s.db.WithContext(ctx), entry)
}

func (s *Store) SaveAll(ctx context.Context, values map[string]any) error {
	entries := make([]model.Entry, 0, len(values))
	for _, key := range sortedKeys(values) {
		entry, err := encode(key, values[key])
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			if err := upsert(tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// Keys lists stored keys with the given prefix, sorted.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	if err := s.db.WithContext(ctx).Model(&model.Entry{}).
		Where("entry_key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").
		Order("entry_key ASC").
		Pluck("entry_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

func upsert(db *gorm.DB, entry model.Entry) error {
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entry).Error; err != nil {
		return fmt.Errorf("save %s: %w", entry.Key, err)
	}
	return nil
}

func encode(key string, value any) (model.Entry, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return model.Entry{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return model.Entry{Key: key, Value: string(raw)}, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MemoryStore is a KV held in a map. Values are stored encoded so callers never
// share slices with the store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	// Err, when set, fails every operation.
	Err error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (m *MemoryStore) Save(ctx context.Context, key string, value any) error {
	return m.SaveAll(ctx, map[string]any{key: value})
}

func (m *MemoryStore) SaveAll(_ context.Context, values map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	encoded := make(map[string][]byte, len(values))
	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		encoded[key] = raw
	}
	for key, raw := range encoded {
		m.data[key] = raw
	}
	return nil
}

func (m *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var keys []string
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Raw returns the stored bytes for key.
func (m *MemoryStore) Raw(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data[key]...)
}
