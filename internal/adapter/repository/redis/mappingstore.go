package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/mietwerk/rentledger/internal/domain"
	"github.com/mietwerk/rentledger/internal/ingest"
)

// MappingStore implements usecase.MappingStore using Redis. The remembered
// mapping is a convenience, not a source of truth, so losing it on a Redis
// flush only costs one auto-detection pass.
type MappingStore struct {
	client *redis.Client
	prefix string
}

// NewMappingStore creates a new MappingStore.
func NewMappingStore(client *redis.Client) *MappingStore {
	return &MappingStore{
		client: client,
		prefix: "mapping:",
	}
}

// Get retrieves the remembered column mapping for an account.
func (s *MappingStore) Get(ctx context.Context, accountID string) (*ingest.ColumnMapping, error) {
	data, err := s.client.Get(ctx, s.prefix+accountID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrMappingNotFound
		}

		return nil, err
	}

	var mapping ingest.ColumnMapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, err
	}

	return &mapping, nil
}

// Save remembers the column mapping of a successful import. Mappings do not
// expire; the next successful import overwrites them.
func (s *MappingStore) Save(ctx context.Context, accountID string, mapping *ingest.ColumnMapping) error {
	data, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, s.prefix+accountID, data, 0).Err()
}
