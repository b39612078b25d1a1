package availabilityRepo

import (
	"context"
	"errors"

	"caredesk/models"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

type cachedTemplate struct {
	tpl     *models.AvailabilityTemplate
	missing bool
}

// CachedAvailabilityRepo keeps recently read templates in an LRU. Slot queries and the
// per-pass availability plan read the same few templates over and over.
type CachedAvailabilityRepo struct {
	next   AvailabilityRepository
	cache  *lru.Cache[models.ProfessionalRef, cachedTemplate]
	logger *zap.Logger
}

func NewCachedAvailabilityRepo(next AvailabilityRepository, size int, logger *zap.Logger) (*CachedAvailabilityRepo, error) {
	if size <= 0 {
		size = 512
	}
	cache, err := lru.New[models.ProfessionalRef, cachedTemplate](size)
	if err != nil {
		return nil, err
	}
	return &CachedAvailabilityRepo{
		next:   next,
		cache:  cache,
		logger: logger.Named("AvailabilityCache"),
	}, nil
}

func (c *CachedAvailabilityRepo) GetTemplate(ctx context.Context, ref models.ProfessionalRef) (*models.AvailabilityTemplate, error) {
	if entry, ok := c.cache.Get(ref); ok {
		if entry.missing {
			return nil, models.ErrNotFound
		}
		return copyTemplate(*entry.tpl), nil
	}

	tpl, err := c.next.GetTemplate(ctx, ref)
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.cache.Add(ref, cachedTemplate{missing: true})
		return nil, err
	case err != nil:
		return nil, err
	}
	c.cache.Add(ref, cachedTemplate{tpl: copyTemplate(*tpl)})
	return tpl, nil
}

func (c *CachedAvailabilityRepo) SaveTemplate(ctx context.Context, tpl *models.AvailabilityTemplate) error {
	c.cache.Remove(tpl.Professional)
	if err := c.next.SaveTemplate(ctx, tpl); err != nil {
		return err
	}
	// A read racing the write may have cached the previous template again.
	c.cache.Remove(tpl.Professional)
	c.logger.Debug("template cache invalidated", zap.String("professional", tpl.Professional.String()))
	return nil
}

// Purge drops every cached template so a full pass sees writes made by other instances.
func (c *CachedAvailabilityRepo) Purge() {
	c.cache.Purge()
}
