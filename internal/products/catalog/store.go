package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	panelKeyPrefix = "catalog:panel:"
	lockKeyPrefix  = "catalog:lock:"
	// lockTTL bounds how long a crashed holder can block a session.
	lockTTL       = time.Minute
	lockRetryWait = 10 * time.Millisecond
)

// ErrLockTimeout is returned when a session lock could not be taken before
// the context ended.
var ErrLockTimeout = errors.New("catalog: panel lock not acquired")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Store keeps one Panel per browser session in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Store. Entries expire after ttl of inactivity.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Get returns the stored panel for sessionID, or nil when none exists.
func (s *Store) Get(ctx context.Context, sessionID string) (*Panel, error) {
	payload, err := s.client.Get(ctx, panelKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: load panel: %w", err)
	}
	var panel Panel
	if err := json.Unmarshal(payload, &panel); err != nil {
		return nil, fmt.Errorf("catalog: decode panel: %w", err)
	}
	return &panel, nil
}

// Save persists panel for sessionID and refreshes its expiry.
func (s *Store) Save(ctx context.Context, sessionID string, panel *Panel) error {
	data, err := json.Marshal(panel)
	if err != nil {
		return fmt.Errorf("catalog: encode panel: %w", err)
	}
	if err := s.client.Set(ctx, panelKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("catalog: save panel: %w", err)
	}
	return nil
}

// Lock takes the session's panel lock, waiting until it is free or ctx ends.
// Every read-change-save of a panel runs between Lock and the returned release.
func (s *Store) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := lockKeyPrefix + sessionID
	token := uuid.NewString()
	for {
		ok, err := s.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
			}
			return nil, fmt.Errorf("catalog: lock panel: %w", err)
		}
		if ok {
			release := func() {
				// The request context may already be gone.
				_ = releaseScript.Run(context.Background(), s.client, []string{key}, token).Err()
			}
			return release, nil
		}
		timer := time.NewTimer(lockRetryWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
		case <-timer.C:
		}
	}
}

func panelKey(sessionID string) string {
	return panelKeyPrefix + sessionID
}
