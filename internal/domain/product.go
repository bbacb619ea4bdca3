package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/url"
)

// Channels lists where a product is sold. Display metadata only.
type Channels struct {
	Site   bool   `json:"site" yaml:"site"`
	ML     string `json:"ml,omitempty" yaml:"ml,omitempty"`
	Shopee string `json:"shopee,omitempty" yaml:"shopee,omitempty"`
}

// Value stores Channels as jsonb.
func (c Channels) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads Channels from a jsonb column.
func (c *Channels) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = Channels{}
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("channels: unsupported type %T", src)
	}
}

// Product prices are in minor currency units (cents).
type Product struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Ingredients    string   `json:"ingredients"`
	Benefits       string   `json:"benefits"`
	Tags           []string `json:"tags"`
	Price          int64    `json:"price"`
	Channels       Channels `json:"channels"`
	ImageURL       string   `json:"imageUrl"`
	Category       string   `json:"category"`
	IsSubscription bool     `json:"isSubscription"`
}

// ProductFilter narrows ListProducts. Empty fields do not filter.
type ProductFilter struct {
	Category string
	Search   string
}

// ProductPatch is a partial update; nil fields are left unchanged.
type ProductPatch struct {
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	Ingredients    *string   `json:"ingredients"`
	Benefits       *string   `json:"benefits"`
	Tags           *[]string `json:"tags"`
	Price          *int64    `json:"price"`
	Channels       *Channels `json:"channels"`
	ImageURL       *string   `json:"imageUrl"`
	Category       *string   `json:"category"`
	IsSubscription *bool     `json:"isSubscription"`
}

// Apply returns a copy of p with the patch applied.
func (pp ProductPatch) Apply(p Product) Product {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Ingredients != nil {
		p.Ingredients = *pp.Ingredients
	}
	if pp.Benefits != nil {
		p.Benefits = *pp.Benefits
	}
	if pp.Tags != nil {
		p.Tags = append([]string(nil), (*pp.Tags)...)
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Channels != nil {
		p.Channels = *pp.Channels
	}
	if pp.ImageURL != nil {
		p.ImageURL = *pp.ImageURL
	}
	if pp.Category != nil {
		p.Category = *pp.Category
	}
	if pp.IsSubscription != nil {
		p.IsSubscription = *pp.IsSubscription
	}
	return p
}

// Validate checks the fields every stored product must carry.
func (p Product) Validate() error {
	if p.Name == "" {
		return NewValidationError("name", "is required")
	}
	if p.Category == "" {
		return NewValidationError("category", "is required")
	}
	if p.ImageURL == "" {
		return NewValidationError("imageUrl", "is required")
	}
	if p.Price < 0 {
		return NewValidationError("price", "must not be negative")
	}
	links := []struct{ field, url string }{
		{"channels.ml", p.Channels.ML},
		{"channels.shopee", p.Channels.Shopee},
	}
	for _, l := range links {
		if l.url != "" && !isAbsoluteURL(l.url) {
			return NewValidationError(l.field, "must be an absolute URL")
		}
	}
	return nil
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
