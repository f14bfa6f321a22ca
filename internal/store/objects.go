package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/hiro4859/syukatsu-base-v2/internal/models"
)

// ObjectKey builds the storage key of a user's file.
func ObjectKey(userID, fileName string) string {
	return userID + "/" + fileName
}

// KeyFromURL recovers "{userId}/{fileName}" from a public object URL: the last two path segments.
func KeyFromURL(url string) string {
	parts := strings.Split(strings.TrimRight(url, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[len(parts)-2:], "/")
}

type gormObjects struct {
	db     *gorm.DB
	userID string
}

func (o *gormObjects) own(key string) error {
	if !strings.HasPrefix(key, o.userID+"/") {
		return fmt.Errorf("object %s: %w", key, ErrNotFound)
	}
	return nil
}

func (o *gormObjects) Put(ctx context.Context, key, contentType string, data []byte) error {
	if err := o.own(key); err != nil {
		return err
	}
	obj := models.Object{Key: key, ContentType: contentType, Data: data}
	return o.db.WithContext(ctx).Create(&obj).Error
}

// Get is not scoped to the user; object keys are public the way image URLs are.
func (o *gormObjects) Get(ctx context.Context, key string) (*models.Object, error) {
	var obj models.Object
	err := o.db.WithContext(ctx).Where("key = ?", key).First(&obj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

func (o *gormObjects) Remove(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if err := o.own(k); err != nil {
			return err
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return o.db.WithContext(ctx).Where("key IN ?", keys).Delete(&models.Object{}).Error
}

// PublicObjects reads objects without a user scope, for serving image URLs.
func PublicObjects(db *gorm.DB) interface {
	Get(ctx context.Context, key string) (*models.Object, error)
} {
	return &gormObjects{db: db}
}
