// Package seed fills an empty catalog with the starter products.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/ecosopis/storefront/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var productsYAML []byte

type ProductWriter interface {
	CountProducts(ctx context.Context) (int64, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
}

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	Name         string          `yaml:"name"`
	Description  string          `yaml:"description"`
	Ingredients  string          `yaml:"ingredients"`
	Benefits     string          `yaml:"benefits"`
	Tags         []string        `yaml:"tags"`
	Price        int64           `yaml:"price"`
	Category     string          `yaml:"category"`
	Channels     domain.Channels `yaml:"channels"`
	ImageURL     string          `yaml:"image_url"`
	Subscription bool            `yaml:"subscription"`
}

// Products decodes the embedded starter catalog.
func Products() ([]domain.Product, error) {
	return parse(productsYAML)
}

func parse(data []byte) ([]domain.Product, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed products: %w", err)
	}

	products := make([]domain.Product, 0, len(f.Products))
	for i, sp := range f.Products {
		p := domain.Product{
			Name:           sp.Name,
			Description:    sp.Description,
			Ingredients:    sp.Ingredients,
			Benefits:       sp.Benefits,
			Tags:           sp.Tags,
			Price:          sp.Price,
			Channels:       sp.Channels,
			ImageURL:       sp.ImageURL,
			Category:       sp.Category,
			IsSubscription: sp.Subscription,
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("seed product %d: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}

// Run inserts the starter products when the catalog is empty and reports how
// many were created. A non-empty catalog is left untouched.
func Run(ctx context.Context, repo ProductWriter, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	count, err := repo.CountProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		logger.DebugContext(ctx, "catalog not empty, skipping seed", "products", count)
		return 0, nil
	}

	products, err := Products()
	if err != nil {
		return 0, err
	}

	logger.InfoContext(ctx, "seeding catalog", "products", len(products))
	for i := range products {
		if err := repo.CreateProduct(ctx, &products[i]); err != nil {
			return i, fmt.Errorf("create seed product %q: %w", products[i].Name, err)
		}
	}
	return len(products), nil
}
