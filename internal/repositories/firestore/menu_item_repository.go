package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/feastly/api/internal/domain"
	pfirestore "github.com/feastly/api/internal/platform/firestore"
)

const menuItemsCollection = "menu_items"

type ingredientDocument struct {
	Name   string `firestore:"name"`
	Origin string `firestore:"origin"`
}

type menuItemDocument struct {
	Name        string               `firestore:"name"`
	Description string               `firestore:"description"`
	Price       float64              `firestore:"price"`
	Image       string               `firestore:"image"`
	Category    string               `firestore:"category"`
	Available   bool                 `firestore:"available"`
	MoodTags    []string             `firestore:"moodTags"`
	Ingredients []ingredientDocument `firestore:"ingredients"`
	CreatedAt   time.Time            `firestore:"createdAt"`
	UpdatedAt   time.Time            `firestore:"updatedAt"`
}

// MenuItemRepository implements repositories.MenuItemRepository backed by Firestore.
type MenuItemRepository struct {
	items *pfirestore.BaseRepository[menuItemDocument]
}

// NewMenuItemRepository constructs a Firestore-backed menu item repository.
func NewMenuItemRepository(provider *pfirestore.Provider) (*MenuItemRepository, error) {
	if provider == nil {
		return nil, errors.New("menu item repository requires firestore provider")
	}
	return &MenuItemRepository{
		items: pfirestore.NewBaseRepository[menuItemDocument](provider, menuItemsCollection, nil),
	}, nil
}

// ListAvailable returns the orderable catalog sorted by category then name.
func (r *MenuItemRepository) ListAvailable(ctx context.Context) ([]domain.MenuItem, error) {
	docs, err := r.items.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("available", "==", true).
			OrderBy("category", firestore.Asc).
			OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.MenuItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, decodeMenuItem(doc.ID, doc.Data))
	}
	return items, nil
}

// InsertMany writes the provided items, allocating document IDs where missing,
// and returns the items with their assigned IDs.
func (r *MenuItemRepository) InsertMany(ctx context.Context, items []domain.MenuItem) ([]domain.MenuItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	inserted := make([]domain.MenuItem, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			allocated, err := r.items.NewDocumentID(ctx)
			if err != nil {
				return inserted, err
			}
			id = allocated
		}
		if _, err := r.items.Set(ctx, id, encodeMenuItem(item)); err != nil {
			return inserted, err
		}
		item.ID = id
		inserted = append(inserted, item)
	}
	return inserted, nil
}

func encodeMenuItem(item domain.MenuItem) menuItemDocument {
	ingredients := make([]ingredientDocument, 0, len(item.Ingredients))
	for _, ingredient := range item.Ingredients {
		ingredients = append(ingredients, ingredientDocument(ingredient))
	}

	return menuItemDocument{
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Image:       item.Image,
		Category:    item.Category,
		Available:   item.Available,
		MoodTags:    item.MoodTags,
		Ingredients: ingredients,
		CreatedAt:   item.CreatedAt.UTC(),
		UpdatedAt:   item.UpdatedAt.UTC(),
	}
}

func decodeMenuItem(id string, doc menuItemDocument) domain.MenuItem {
	ingredients := make([]domain.Ingredient, 0, len(doc.Ingredients))
	for _, ingredient := range doc.Ingredients {
		ingredients = append(ingredients, domain.Ingredient(ingredient))
	}

	return domain.MenuItem{
		ID:          id,
		Name:        doc.Name,
		Description: doc.Description,
		Price:       doc.Price,
		Image:       doc.Image,
		Category:    doc.Category,
		Available:   doc.Available,
		MoodTags:    doc.MoodTags,
		Ingredients: ingredients,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}
