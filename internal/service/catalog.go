package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/internal/embedding"
	"github.com/AyushDoCode/WhatsappChatbot/internal/engine"
	"github.com/AyushDoCode/WhatsappChatbot/internal/normalize"
	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
)

// CatalogService applies catalog sync events to the store.
type CatalogService struct {
	catalog engine.Catalog
	logger  *slog.Logger
}

// NewCatalogService creates a catalog ingestion service.
func NewCatalogService(catalog engine.Catalog, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		logger:  logger,
	}
}

// UpsertInput is a product as reported by the scraper and, optionally, the
// enrichment step. Empty enrichment fields mean "unchanged".
type UpsertInput struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Brand        string       `json:"brand"`
	Category     string       `json:"category"`
	CategoryKey  string       `json:"category_key"`
	Price        domain.Price `json:"price"`
	URL          string       `json:"url"`
	ImageURLs    []string     `json:"image_urls"`
	Description  string       `json:"description"`
	Colors       []string     `json:"colors"`
	Styles       []string     `json:"styles"`
	Materials    []string     `json:"materials"`
	BeltType     string       `json:"belt_type"`
	AICategory   string       `json:"ai_category"`
	GenderTarget string       `json:"ai_gender_target"`
}

// Upsert creates or refreshes a product. Scraped fields are replaced,
// enrichment fields are kept unless the input carries new values, and the
// embedding is cleared only when the searchable text changed.
func (s *CatalogService) Upsert(ctx context.Context, in UpsertInput) (*domain.Product, error) {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}

	existing, err := s.catalog.Get(ctx, in.ID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		existing = &domain.Product{ID: in.ID}
	case err != nil:
		return nil, fmt.Errorf("load product %s: %w", in.ID, err)
	}

	p := merge(existing, in)
	if p.CategoryKey == "" {
		return nil, apperrors.InvalidInput(fmt.Sprintf("product %s has no recognizable category", in.ID))
	}

	text := embedding.SearchableText(p)
	if text != existing.SearchableText {
		p.SearchableText = text
		p.Embedding = nil
		p.IndexedAt = nil
	}

	if err := s.catalog.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert product %s: %w", in.ID, err)
	}

	s.logger.InfoContext(ctx, "product upserted",
		slog.String("product_id", p.ID),
		slog.String("category_key", p.CategoryKey),
		slog.Bool("needs_index", !p.Indexed()),
	)
	return p, nil
}

// Delete removes a product.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if err := s.catalog.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

func merge(existing *domain.Product, in UpsertInput) *domain.Product {
	p := *existing
	p.Name = strings.TrimSpace(in.Name)
	p.Price = in.Price
	p.URL = in.URL
	if in.ImageURLs != nil {
		p.ImageURLs = in.ImageURLs
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.Category != "" {
		p.Category = in.Category
	}
	if b := strings.TrimSpace(in.Brand); b != "" {
		p.Brand = normalize.Brand(strings.ToLower(b))
	}

	switch key := strings.TrimSpace(in.CategoryKey); {
	case normalize.IsCategory(key):
		p.CategoryKey = key
	case !normalize.IsCategory(p.CategoryKey):
		p.CategoryKey = ""
		if k, ok := normalize.DetectCategory(p.Category); ok {
			p.CategoryKey = k
		} else if k, ok := normalize.DetectCategory(p.Name); ok {
			p.CategoryKey = k
		}
	}

	if len(in.Colors) > 0 {
		p.Colors = normalize.Colors.Standardize(in.Colors)
	}
	if len(in.Styles) > 0 {
		p.Styles = normalize.Styles.Standardize(in.Styles)
	}
	if len(in.Materials) > 0 {
		p.Materials = normalize.Materials.Standardize(in.Materials)
	}
	if bt := normalize.BeltType(in.BeltType); bt != "" {
		p.BeltType = bt
	}
	if in.AICategory != "" {
		p.AICategory = strings.ToLower(strings.TrimSpace(in.AICategory))
	}
	switch g := strings.ToLower(strings.TrimSpace(in.GenderTarget)); g {
	case domain.GenderMens, domain.GenderWomens, domain.GenderUnisex:
		p.GenderTarget = g
	}
	return &p
}
