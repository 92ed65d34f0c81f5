package catalog

import "context"

type Product struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
	Image      string `json:"image"`
}

// Stock is the purchasable quantity of one product.
type Stock struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

type Store interface {
	Ping(ctx context.Context) error
	ListSortedByID(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int) (Product, bool, error)
	Stock(ctx context.Context, id int) (Stock, bool, error)
}

func NewStore() Store {
	return NewMemStore(SeedProducts(), SeedStock())
}

func SeedProducts() []Product {
	return []Product{
		{ID: 1, Title: "Tênis de Caminhada Leve Confortável", PriceCents: 17990, Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis1.jpg"},
		{ID: 2, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", PriceCents: 13990, Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg"},
		{ID: 3, Title: "Tênis Adidas Duramo Lite 2.0", PriceCents: 21990, Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis3.jpg"},
		{ID: 5, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", PriceCents: 13990, Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg"},
		{ID: 6, Title: "Tênis Adidas Duramo Lite 2.0", PriceCents: 21990, Image: "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis3.jpg"},
	}
}

func SeedStock() []Stock {
	return []Stock{
		{ID: 1, Amount: 3},
		{ID: 2, Amount: 5},
		{ID: 3, Amount: 2},
		{ID: 4, Amount: 1},
		{ID: 5, Amount: 5},
		{ID: 6, Amount: 10},
	}
}
