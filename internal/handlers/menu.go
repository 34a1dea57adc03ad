package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domain "github.com/feastly/api/internal/domain"
	"github.com/feastly/api/internal/platform/httpx"
	"github.com/feastly/api/internal/platform/requestctx"
	"github.com/feastly/api/internal/services"
)

// MenuHandlers exposes the public catalog endpoints.
type MenuHandlers struct {
	catalog services.CatalogService
}

// NewMenuHandlers constructs the handler set.
func NewMenuHandlers(catalog services.CatalogService) *MenuHandlers {
	return &MenuHandlers{catalog: catalog}
}

// Routes registers the menu endpoints on the provided router.
func (h *MenuHandlers) Routes(r chi.Router) {
	r.Get("/", h.listMenu)
}

func (h *MenuHandlers) listMenu(w http.ResponseWriter, r *http.Request) {
	filter := services.MenuFilter{
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
	}

	items, err := h.catalog.ListMenu(r.Context(), filter)
	if err != nil {
		requestctx.Logger(r.Context()).Error("menu listing failed", zap.Error(err))
		httpx.WriteError(r.Context(), w, httpx.NewError("internal_error", "something went wrong", http.StatusInternalServerError))
		return
	}

	payload := make([]menuItemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, menuItemPayloadFrom(item))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"items":   payload,
	})
}

type menuItemPayload struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       float64             `json:"price"`
	Image       string              `json:"image"`
	Category    string              `json:"category"`
	Available   bool                `json:"available"`
	MoodTags    []string            `json:"moodTags,omitempty"`
	Ingredients []ingredientPayload `json:"ingredients,omitempty"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
}

type ingredientPayload struct {
	Name   string `json:"name"`
	Origin string `json:"origin"`
}

func menuItemPayloadFrom(item domain.MenuItem) menuItemPayload {
	ingredients := make([]ingredientPayload, 0, len(item.Ingredients))
	for _, ingredient := range item.Ingredients {
		ingredients = append(ingredients, ingredientPayload{Name: ingredient.Name, Origin: ingredient.Origin})
	}
	return menuItemPayload{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Image:       item.Image,
		Category:    item.Category,
		Available:   item.Available,
		MoodTags:    item.MoodTags,
		Ingredients: ingredients,
		CreatedAt:   item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
