package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	domain "github.com/feastly/api/internal/domain"
	"github.com/feastly/api/internal/repositories"
)

// CatalogServiceDeps bundles collaborators for the menu catalog.
type CatalogServiceDeps struct {
	MenuItems   repositories.MenuItemRepository
	SeedOnEmpty bool
	Clock       func() time.Time
	Logger      *zap.Logger
}

type catalogService struct {
	menuItems   repositories.MenuItemRepository
	seedOnEmpty bool
	clock       func() time.Time
	logger      *zap.Logger
}

// NewCatalogService wires dependencies into a concrete CatalogService.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.MenuItems == nil {
		return nil, errors.New("catalog service: menu item repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &catalogService{
		menuItems:   deps.MenuItems,
		seedOnEmpty: deps.SeedOnEmpty,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// ListMenu returns the available catalog. An empty store is seeded with the
// starter menu; an unreachable store serves the starter menu from memory with
// synthetic IDs so browsing keeps working.
func (s *catalogService) ListMenu(ctx context.Context, filter MenuFilter) ([]domain.MenuItem, error) {
	items, err := s.menuItems.ListAvailable(ctx)
	if err != nil {
		s.logger.Warn("menu store unreachable, serving starter menu from memory", zap.Error(err))
		return filterMenuItems(FallbackMenu(s.clock()), filter), nil
	}

	if len(items) == 0 && s.seedOnEmpty {
		seeded, err := s.menuItems.InsertMany(ctx, StarterMenu(s.clock()))
		if err != nil {
			s.logger.Warn("menu seeding failed, serving starter menu from memory", zap.Error(err))
			return filterMenuItems(FallbackMenu(s.clock()), filter), nil
		}
		s.logger.Info("seeded starter menu", zap.Int("items", len(seeded)))
		items = seeded
	}

	return filterMenuItems(items, filter), nil
}

func filterMenuItems(items []domain.MenuItem, filter MenuFilter) []domain.MenuItem {
	category := strings.TrimSpace(filter.Category)
	query := strings.TrimSpace(filter.Query)
	if category == "" && query == "" {
		return items
	}

	folder := cases.Fold()
	foldedCategory := folder.String(category)
	foldedQuery := folder.String(query)

	filtered := make([]domain.MenuItem, 0, len(items))
	for _, item := range items {
		if foldedCategory != "" && folder.String(item.Category) != foldedCategory {
			continue
		}
		if foldedQuery != "" &&
			!strings.Contains(folder.String(item.Name), foldedQuery) &&
			!strings.Contains(folder.String(item.Description), foldedQuery) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}
