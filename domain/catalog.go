package domain

import "context"

// Product is a catalog entry as the assistant sees it.
type Product struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	ImageURL string `json:"image_url,omitempty"`
}

// ProductPage is one page of a cursor-paginated product listing. An
// empty NextCursor means the listing is exhausted.
type ProductPage struct {
	Items      []Product `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// LineItem is one ordered product line.
type LineItem struct {
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is a store order as the assistant sees it.
type Order struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Status    string     `json:"status,omitempty"`
	CreatedAt string     `json:"created_at,omitempty"`
	LineItems []LineItem `json:"line_items"`
}

// Catalog abstracts the external store API. Implementations wrap the
// error taxonomy sentinels: ErrNotFound for unknown IDs,
// ErrUpstreamTimeout for deadline hits, ErrUpstreamUnavailable for
// everything else that is not a success.
type Catalog interface {
	CreateProduct(ctx context.Context, title, price, imageURL string) (Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, cursor string, limit int) (ProductPage, error)

	CreateOrder(ctx context.Context, customerEmail string, items []LineItem) (Order, error)
	DeleteOrder(ctx context.Context, id string) error
	ListOrders(ctx context.Context, limit int) ([]Order, error)
}
