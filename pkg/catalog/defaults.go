package catalog

import (
	"github.com/example/pickupshop/pkg/models"
	"github.com/shopspring/decimal"
)

// DefaultCategories seeds an empty or unreadable category collection.
func DefaultCategories() []models.Category {
	return []models.Category{
		{ID: 1, Name: "Camisetas"},
		{ID: 2, Name: "Calças"},
	}
}

// DefaultProducts seeds an empty or unreadable product collection.
func DefaultProducts() []models.Product {
	promo := decimal.RequireFromString("129.90")
	return []models.Product{
		{
			ID:    "1",
			Name:  "Camiseta Básica Algodão Premium",
			Price: decimal.RequireFromString("59.90"),
			Stock: 15,
			Variants: []models.Variant{
				{Label: "P", Stock: 5},
				{Label: "M", Stock: 5},
				{Label: "G", Stock: 3},
				{Label: "GG", Stock: 2},
			},
			Image:    models.DefaultImage,
			Category: "Camisetas",
		},
		{
			ID:         "2",
			Name:       "Calça Jeans Skinny Lavagem Escura",
			Price:      decimal.RequireFromString("149.90"),
			PromoPrice: &promo,
			Stock:      8,
			Variants: []models.Variant{
				{Label: "36", Stock: 2},
				{Label: "38", Stock: 3},
				{Label: "40", Stock: 2},
				{Label: "42", Stock: 1},
			},
			Image:    "https://images.unsplash.com/photo-1541099649105-f69ad21f3246?auto=format&fit=crop&w=600&q=80",
			Category: "Calças",
		},
	}
}
