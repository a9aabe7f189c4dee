package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"surveybridge/internal/errs"
	"surveybridge/internal/infrastructure/persistence/sql/model"
	"surveybridge/internal/ports"
)

// SQLCache keeps short-lived response caches in the main store so a
// single-node deployment needs no extra infrastructure. Expired rows are
// treated as misses and reaped lazily on read.
type SQLCache struct {
	db  *gorm.DB
	now func() time.Time
}

var _ ports.Cache = (*SQLCache)(nil)

func NewSQLCache(db *gorm.DB) *SQLCache {
	return &SQLCache{db: db, now: time.Now}
}

func (c *SQLCache) Get(ctx context.Context, key string) (string, bool, error) {
	if ctx == nil {
		return "", false, errors.New("context is required")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return "", false, errors.New("key is required")
	}

	var row model.CacheEntry
	if err := c.db.WithContext(ctx).Where("key = ?", trimmedKey).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errs.Wrap(err, "query cache by key")
	}

	if row.ExpiresAt > 0 && row.ExpiresAt <= c.now().Unix() {
		_ = c.db.WithContext(ctx).Where("key = ?", trimmedKey).Delete(&model.CacheEntry{}).Error
		return "", false, nil
	}

	return row.Value, true, nil
}

func (c *SQLCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return errors.New("key is required")
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = c.now().Add(ttl).Unix()
	}

	row := model.CacheEntry{
		Key:       trimmedKey,
		Value:     value,
		ExpiresAt: expiresAt,
		UpdatedAt: c.now().UTC().Format(time.RFC3339Nano),
	}

	if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":      row.Value,
			"expires_at": row.ExpiresAt,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row).Error; err != nil {
		return errs.Wrap(err, "upsert cache key")
	}

	return nil
}

func (c *SQLCache) Delete(ctx context.Context, key string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return errors.New("key is required")
	}

	if err := c.db.WithContext(ctx).Where("key = ?", trimmedKey).Delete(&model.CacheEntry{}).Error; err != nil {
		return errs.Wrap(err, "delete cache key")
	}
	return nil
}
