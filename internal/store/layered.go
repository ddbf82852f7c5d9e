package store

import "context"

// LayeredStore puts a fast local store in front of a durable one.
// Reads check the front first and promote hits from the back.
type LayeredStore struct {
	front Store
	back  Store
}

// NewLayeredStore creates a layered store
func NewLayeredStore(front, back Store) *LayeredStore {
	return &LayeredStore{front: front, back: back}
}

// Get retrieves a value, checking the front layer first
func (s *LayeredStore) Get(ctx context.Context, key string) (string, bool, error) {
	if val, ok, err := s.front.Get(ctx, key); err == nil && ok {
		return val, true, nil
	}

	val, ok, err := s.back.Get(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}

	// Promote to front
	_ = s.front.Set(ctx, key, val)
	return val, true, nil
}

// Set writes the back layer first so the durable copy is never behind
func (s *LayeredStore) Set(ctx context.Context, key, value string) error {
	if err := s.back.Set(ctx, key, value); err != nil {
		return err
	}
	return s.front.Set(ctx, key, value)
}

// HGetAll retrieves a hash, checking the front layer first
func (s *LayeredStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if fields, err := s.front.HGetAll(ctx, key); err == nil && len(fields) > 0 {
		return fields, nil
	}

	fields, err := s.back.HGetAll(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		_ = s.front.HSet(ctx, key, fields)
	}
	return fields, nil
}

// HSet writes a hash to both layers
func (s *LayeredStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if err := s.back.HSet(ctx, key, fields); err != nil {
		return err
	}
	return s.front.HSet(ctx, key, fields)
}

// Close closes both layers
func (s *LayeredStore) Close() error {
	frontErr := s.front.Close()
	if err := s.back.Close(); err != nil {
		return err
	}
	return frontErr
}
