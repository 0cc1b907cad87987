package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Endpoint classes with distinct TTLs.
const (
	ClassList   = "list"
	ClassRecent = "recent"
)

// Listing is the read-through cache in front of session-listing queries.
// Keys are always scoped by owner, so a cache hit can never leak another
// owner's rows. Invalidation rotates the owner's generation key: every
// key minted before a write embeds the old generation and can no longer
// be produced by a later read, which makes a read that follows a write
// always miss and repopulate. Store failures are logged and treated as
// misses; the cache never fails or widens a request.
type Listing struct {
	store     Store
	listTTL   time.Duration
	recentTTL time.Duration
}

func NewListing(store Store, listTTL, recentTTL time.Duration) *Listing {
	return &Listing{store: store, listTTL: listTTL, recentTTL: recentTTL}
}

func (l *Listing) Get(ctx context.Context, class, owner string, params interface{}, dst interface{}) bool {
	if l == nil || l.store == nil {
		return false
	}
	key, ok := l.key(ctx, class, owner, params)
	if !ok {
		return false
	}
	raw, hit, err := l.store.Get(ctx, key)
	if err != nil {
		logutil.GetLogger(ctx).Warn("listing cache read failed", zap.String("class", class), zap.Error(err))
		return false
	}
	if !hit {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logutil.GetLogger(ctx).Warn("listing cache payload corrupt", zap.String("class", class), zap.Error(err))
		return false
	}
	return true
}

// Set is last-write-wins; concurrent populations of the same key are fine.
func (l *Listing) Set(ctx context.Context, class, owner string, params interface{}, value interface{}) {
	if l == nil || l.store == nil {
		return
	}
	key, ok := l.key(ctx, class, owner, params)
	if !ok {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	ttl := l.listTTL
	if class == ClassRecent {
		ttl = l.recentTTL
	}
	if err := l.store.Set(ctx, key, raw, ttl); err != nil {
		logutil.GetLogger(ctx).Warn("listing cache write failed", zap.String("class", class), zap.Error(err))
	}
}

// Invalidate drops the owner's generation so every cached listing for that
// owner becomes unreachable.
func (l *Listing) Invalidate(ctx context.Context, owner string) {
	if l == nil || l.store == nil {
		return
	}
	if err := l.store.Del(ctx, genKey(owner)); err != nil {
		logutil.GetLogger(ctx).Warn("listing cache invalidation failed", zap.String("owner", owner), zap.Error(err))
	}
}

func (l *Listing) key(ctx context.Context, class, owner string, params interface{}) (string, bool) {
	gen, err := l.generation(ctx, owner)
	if err != nil {
		logutil.GetLogger(ctx).Warn("listing cache generation unavailable", zap.Error(err))
		return "", false
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "", false
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("sessions:%s:%s:%s:%s", class, owner, gen, hex.EncodeToString(hash[:8])), true
}

func (l *Listing) generation(ctx context.Context, owner string) (string, error) {
	key := genKey(owner)
	raw, hit, err := l.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if hit {
		return string(raw), nil
	}
	gen := fmt.Sprintf("%d", time.Now().UnixNano())
	// Lives longer than any listing TTL; losing it only causes extra misses.
	if err := l.store.Set(ctx, key, []byte(gen), 24*time.Hour); err != nil {
		return "", err
	}
	return gen, nil
}

func genKey(owner string) string {
	if owner == "" {
		owner = "anon"
	}
	return "sessions:gen:" + owner
}
