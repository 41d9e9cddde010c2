package cart

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/papertide/storefront-api/internal/domain"
)

// Storage is the key-value persistence port the store mirrors its items to.
// Each cart instance persists under its own key.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, payload []byte) error
}

// MemoryStorage is an in-memory Storage useful for tests and ephemeral
// sessions.
type MemoryStorage struct {
	mu      sync.Mutex
	records map[string][]byte
}

// NewMemoryStorage constructs an empty memory-backed storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string][]byte)}
}

// Load implements the Storage interface.
func (s *MemoryStorage) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, ok := s.records[key]
	if !ok {
		return nil, false, nil
	}
	dup := make([]byte, len(payload))
	copy(dup, payload)
	return dup, true, nil
}

// Save implements the Storage interface.
func (s *MemoryStorage) Save(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dup := make([]byte, len(payload))
	copy(dup, payload)
	s.records[key] = dup
	return nil
}

// FileStorage persists each key as a JSON file under a directory, standing
// in for durable browser storage across restarts.
type FileStorage struct {
	dir string
}

// NewFileStorage constructs a file-backed storage rooted at dir.
func NewFileStorage(dir string) (*FileStorage, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, errors.New("cart: storage directory is required")
	}
	if err := os.MkdirAll(trimmed, 0o750); err != nil {
		return nil, err
	}
	return &FileStorage{dir: trimmed}, nil
}

// Load implements the Storage interface.
func (s *FileStorage) Load(_ context.Context, key string) ([]byte, bool, error) {
	payload, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

// Save implements the Storage interface.
func (s *FileStorage) Save(_ context.Context, key string, payload []byte) error {
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o640); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *FileStorage) path(key string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(s.dir, sanitized+".json")
}

// EncodeItems serialises the item list for persistence.
func EncodeItems(items []domain.CartItem) ([]byte, error) {
	if items == nil {
		items = []domain.CartItem{}
	}
	return json.Marshal(items)
}

// DecodeItems parses a persisted payload back into an item list.
func DecodeItems(payload []byte) ([]domain.CartItem, error) {
	var items []domain.CartItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.CartItem{}
	}
	return items, nil
}
