package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps every Redis failure that is not a plain miss.
var ErrStoreUnavailable = errors.New("key-value store unavailable")

// LookupStatus tells a caller whether a read found the key, did not find it,
// or could not ask the store at all.
type LookupStatus int

const (
	Miss LookupStatus = iota
	Hit
	Unavailable
)

func (s LookupStatus) String() string {
	switch s {
	case Hit:
		return "hit"
	case Unavailable:
		return "unavailable"
	default:
		return "miss"
	}
}

// Lookup is the result of a single-key read.
type Lookup struct {
	Status LookupStatus
	Value  string
	Err    error
}

// HashLookup is the result of a hash read.
type HashLookup struct {
	Status LookupStatus
	Fields map[string]string
	Err    error
}

// Entry is one key written by SetAllIfAbsent.
type Entry struct {
	Key   string
	Value string
	TTL   time.Duration
}

// maxWatchRetries bounds how often an optimistic transaction is retried after
// a watched key changed.
const maxWatchRetries = 3

// KVStore is the key-value adapter over Redis. Reads never return a bare
// error; they classify the outcome as Hit, Miss or Unavailable. Writes return
// an error wrapping ErrStoreUnavailable which callers may ignore.
type KVStore struct {
	client redis.UniversalClient
}

func NewKVStore(client redis.UniversalClient) *KVStore {
	return &KVStore{client: client}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

func (s *KVStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *KVStore) Get(ctx context.Context, key string) Lookup {
	val, err := s.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return Lookup{Status: Miss}
	case err != nil:
		return Lookup{Status: Unavailable, Err: unavailable("get "+key, err)}
	}
	return Lookup{Status: Hit, Value: val}
}

// Exists reports Hit when the key is present, Miss when absent.
func (s *KVStore) Exists(ctx context.Context, key string) Lookup {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return Lookup{Status: Unavailable, Err: unavailable("exists "+key, err)}
	}
	if n == 0 {
		return Lookup{Status: Miss}
	}
	return Lookup{Status: Hit}
}

// Set writes key with ttl; a zero ttl keeps the key forever.
func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set "+key, err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return unavailable("del", err)
	}
	return nil
}

// SetAllIfAbsent writes every entry in one MULTI/EXEC block, but only when
// none of guardKeys exists. The guards are WATCHed, so a concurrent writer
// that creates one first aborts the write. It returns the first guard found
// to exist, or "" when the entries were written.
func (s *KVStore) SetAllIfAbsent(ctx context.Context, guardKeys []string, entries []Entry) (string, error) {
	var conflict string
	txf := func(tx *redis.Tx) error {
		conflict = ""
		for _, key := range guardKeys {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				conflict = key
				return nil
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, e := range entries {
				pipe.Set(ctx, e.Key, e.Value, e.TTL)
			}
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err = s.client.Watch(ctx, txf, guardKeys...)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}

	if errors.Is(err, redis.TxFailedErr) {
		return guardKeys[0], nil
	}
	if err != nil {
		return "", unavailable("set-if-absent "+strings.Join(guardKeys, ","), err)
	}
	return conflict, nil
}

// HashSet stores fields under key and applies ttl to the whole hash.
func (s *KVStore) HashSet(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, values)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return unavailable("hset "+key, err)
	}
	return nil
}

// HashTake reads and deletes a hash atomically, so only one caller can ever
// observe a Hit for the same key.
func (s *KVStore) HashTake(ctx context.Context, key string) HashLookup {
	var read *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		read = pipe.HGetAll(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return HashLookup{Status: Unavailable, Err: unavailable("htake "+key, err)}
	}
	fields := read.Val()
	if len(fields) == 0 {
		return HashLookup{Status: Miss}
	}
	return HashLookup{Status: Hit, Fields: fields}
}

// SetAdd adds member to the set at key and refreshes the set ttl.
func (s *KVStore) SetAdd(ctx context.Context, key, member string, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, member)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return unavailable("sadd "+key, err)
	}
	return nil
}

func (s *KVStore) SetRemove(ctx context.Context, key, member string) error {
	if err := s.client.SRem(ctx, key, member).Err(); err != nil {
		return unavailable("srem "+key, err)
	}
	return nil
}

func (s *KVStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, unavailable("smembers "+key, err)
	}
	return members, nil
}

// ScanKeys calls fn for every key matching pattern. Iteration stops at the
// first error returned by fn.
func (s *KVStore) ScanKeys(ctx context.Context, pattern string, fn func(key string) error) error {
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return unavailable("scan "+pattern, err)
	}
	return nil
}
