package products

import "github.com/storefront/storefront/internal/shared"

type ProductForm struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Category    string  `json:"category" validate:"max=100"`
	Brand       string  `json:"brand" validate:"max=100"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	ImageURL    string  `json:"imageUrl" validate:"omitempty,url"`
}

func (f ProductForm) toProduct() Product {
	return Product{
		Title:       shared.CleanText(f.Title),
		Description: shared.CleanText(f.Description),
		Category:    shared.CleanText(f.Category),
		Brand:       shared.CleanText(f.Brand),
		Price:       f.Price,
		Stock:       f.Stock,
		ImageURL:    f.ImageURL,
	}
}

type listResponse struct {
	Items []Product `json:"items"`
	shared.Pagination
}
