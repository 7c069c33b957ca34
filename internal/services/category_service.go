package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

const categoryCacheSize = 256

// CategoryService manages a user's categories and caches the visible set.
type CategoryService struct {
	store ledger.CategoryStore
	cache *cache.LRU[int64, []core.Category]
}

// NewCategoryService caches visible categories for ttl; ttl <= 0 disables caching.
func NewCategoryService(store ledger.CategoryStore, ttl time.Duration) *CategoryService {
	s := &CategoryService{store: store}
	if ttl > 0 {
		s.cache = cache.NewLRU[int64, []core.Category](categoryCacheSize, ttl)
	}
	return s
}

// List returns the user's own categories plus the defaults, by name.
func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	if s.cache != nil {
		if cats, ok := s.cache.Get(userID); ok {
			return cats, nil
		}
	}
	cats, err := s.store.VisibleCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if s.cache != nil {
		s.cache.Set(userID, cats)
	}
	return cats, nil
}

// Resolve finds a visible category by id.
func (s *CategoryService) Resolve(ctx context.Context, userID, id int64) (core.Category, error) {
	cats, err := s.List(ctx, userID)
	if err != nil {
		return core.Category{}, err
	}
	for _, c := range cats {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (s *CategoryService) Create(ctx context.Context, userID int64, name string) (core.Category, error) {
	c := core.Category{UserID: userID, Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	id, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.invalidate(userID)
	c.ID = id
	slog.InfoContext(ctx, "Category added", "user_id", userID, "category_id", id, "name", c.Name)
	return c, nil
}

func (s *CategoryService) Rename(ctx context.Context, userID, id int64, name string) error {
	c := core.Category{ID: id, UserID: userID, Name: strings.TrimSpace(name)}
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.store.RenameCategory(ctx, userID, id, c.Name); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	slog.InfoContext(ctx, "Category removed", "user_id", userID, "category_id", id)
	return nil
}

func (s *CategoryService) invalidate(userID int64) {
	if s.cache != nil {
		s.cache.Delete(userID)
	}
}
