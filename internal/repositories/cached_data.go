package repositories

import (
	"context"
	gocache "github.com/patrickmn/go-cache"
	"time"
)

type dataRepository interface {
	Save(ctx context.Context, id string, data []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
}

// CachedData keeps recently read values in memory. Save refreshes the cache.
type CachedData struct {
	repo  dataRepository
	cache *gocache.Cache
}

func NewCachedData(repo dataRepository) *CachedData {
	return &CachedData{repo: repo, cache: gocache.New(10*time.Minute, 20*time.Minute)}
}

func (c *CachedData) Save(ctx context.Context, id string, data []byte) error {
	if err := c.repo.Save(ctx, id, data); err != nil {
		c.cache.Delete(id)
		return err
	}
	c.cache.SetDefault(id, data)
	return nil
}

func (c *CachedData) Load(ctx context.Context, id string) ([]byte, error) {
	if value, found := c.cache.Get(id); found {
		return value.([]byte), nil
	}

	data, err := c.repo.Load(ctx, id)
	if err == nil && data != nil {
		c.cache.SetDefault(id, data)
	}
	return data, err
}
