package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/roomescape/internal/model"
)

// Popular is what the HTTP layer needs from a ranker.
type Popular interface {
	PopularThemes(ctx context.Context, p model.Period, count int) ([]model.Theme, error)
}

// CachedRanker memoises popular-theme results in Redis.  Results for a
// closed period only change when reservations in it are created or
// cancelled, so a short TTL is enough.  A nil client disables caching.
type CachedRanker struct {
	next   Popular
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

func NewCachedRanker(next Popular, rdb *redis.Client, ttl time.Duration, prefix string, log *zap.Logger) *CachedRanker {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedRanker{next: next, rdb: rdb, ttl: ttl, prefix: prefix, log: log}
}

func (c *CachedRanker) key(p model.Period, count int) string {
	return fmt.Sprintf("%s:popular:%s:%s:%d", c.prefix,
		p.From.Format(model.DateLayout), p.To.Format(model.DateLayout), count)
}

type cachedTheme struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

func (c *CachedRanker) PopularThemes(ctx context.Context, p model.Period, count int) ([]model.Theme, error) {
	if c.rdb == nil {
		return c.next.PopularThemes(ctx, p, count)
	}
	key := c.key(p, count)
	if bs, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached []cachedTheme
		if err := json.Unmarshal(bs, &cached); err == nil {
			out := make([]model.Theme, len(cached))
			for i, ct := range cached {
				out[i] = model.Theme{ID: ct.ID, Name: ct.Name, Description: ct.Description, Thumbnail: ct.Thumbnail}
			}
			return out, nil
		}
	} else if err != redis.Nil {
		c.log.Warn("popular cache read failed", zap.String("key", key), zap.Error(err))
	}

	themes, err := c.next.PopularThemes(ctx, p, count)
	if err != nil {
		return nil, err
	}
	cached := make([]cachedTheme, len(themes))
	for i, th := range themes {
		cached[i] = cachedTheme{ID: th.ID, Name: th.Name, Description: th.Description, Thumbnail: th.Thumbnail}
	}
	if bs, err := json.Marshal(cached); err == nil {
		if err := c.rdb.SetEx(ctx, key, bs, c.ttl).Err(); err != nil {
			c.log.Warn("popular cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return themes, nil
}
