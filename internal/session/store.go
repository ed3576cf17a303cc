// Package session owns in-progress order, purchase and quotation forms. Each
// session wraps one ledger and lives in Redis under a TTL until it is
// submitted to the backend or expires.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitkip/ventory/internal/ledger"
)

// ErrNotFound indicates the session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is the stored form state. The ledger snapshot carries the line items
// together with the sales stock reservations captured at add time.
type Session struct {
	ID        string           `json:"id"`
	Direction ledger.Direction `json:"direction"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Ledger    ledger.Snapshot  `json:"ledger"`
}

// Restore rebuilds the in-memory ledger from the stored snapshot.
func (s Session) Restore() *ledger.Ledger {
	return ledger.FromSnapshot(s.Ledger)
}

// Store persists sessions as JSON values in Redis. Every write refreshes the
// TTL so an actively edited form never expires under the user.
type Store struct {
	R   *redis.Client
	TTL time.Duration
}

func (st *Store) ttl() time.Duration {
	if st == nil || st.TTL <= 0 {
		return 2 * time.Hour
	}
	return st.TTL
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Save writes the session back and refreshes its TTL.
func (st *Store) Save(ctx context.Context, sess Session) error {
	if st == nil || st.R == nil {
		return errors.New("session store not configured")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return st.R.Set(ctx, sessionKey(sess.ID), data, st.ttl()).Err()
}

// Load fetches a session by id.
func (st *Store) Load(ctx context.Context, id string) (Session, error) {
	if st == nil || st.R == nil {
		return Session{}, errors.New("session store not configured")
	}
	data, err := st.R.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (st *Store) Delete(ctx context.Context, id string) error {
	if st == nil || st.R == nil {
		return errors.New("session store not configured")
	}
	return st.R.Del(ctx, sessionKey(id)).Err()
}
