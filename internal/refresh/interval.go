package refresh

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soltixdb/clusterview/internal/utils"
)

// DefaultIntervalKey is the key the selected interval is stored under
const DefaultIntervalKey = utils.DefaultIntervalKey

// ErrNoStore is returned when no interval store is configured
var ErrNoStore = errors.New("no interval store configured")

// IntervalStore persists the selected refresh interval as a string.
// metadata.Store satisfies it.
type IntervalStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}

// LoadInterval reads the interval stored under key as decimal milliseconds.
// A missing, malformed or unreadable value yields fallback together with an
// error describing why; the returned duration is always usable.
func LoadInterval(ctx context.Context, store IntervalStore, key string, fallback time.Duration) (time.Duration, error) {
	if store == nil {
		return fallback, ErrNoStore
	}

	raw, err := store.Get(ctx, key)
	if err != nil {
		return fallback, fmt.Errorf("failed to read refresh interval: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, fmt.Errorf("refresh interval %s not set", key)
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("invalid refresh interval %q: %w", raw, err)
	}
	if ms < 0 {
		return fallback, fmt.Errorf("invalid refresh interval %q: negative", raw)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// SaveInterval stores d under key as decimal milliseconds
func SaveInterval(ctx context.Context, store IntervalStore, key string, d time.Duration) error {
	if store == nil {
		return ErrNoStore
	}
	if err := store.Put(ctx, key, strconv.FormatInt(d.Milliseconds(), 10)); err != nil {
		return fmt.Errorf("failed to store refresh interval: %w", err)
	}
	return nil
}
