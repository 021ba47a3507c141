package redis

import "github.com/redis/rueidis"

// NewStoreForTest wraps an existing rueidis client (typically a mock) in a Store.
func NewStoreForTest(client rueidis.Client) *Store {
	return &Store{client: client}
}
