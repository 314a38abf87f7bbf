package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
)

// Shopify implements domain.Catalog against the Shopify Admin REST
// API. Every call is bounded by the client timeout; responses are
// mapped into the shared error taxonomy.
type Shopify struct {
	httpClient *http.Client
	baseURL    string
	token      string
	apiVersion string
}

type Config struct {
	ShopURL     string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
}

func NewShopify(cfg Config) *Shopify {
	baseURL := cfg.ShopURL
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Shopify{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      cfg.AccessToken,
		apiVersion: cfg.APIVersion,
	}
}

type shopifyProduct struct {
	ID       json.Number `json:"id"`
	Title    string      `json:"title"`
	Variants []struct {
		Price string `json:"price"`
	} `json:"variants"`
	Image *struct {
		Src string `json:"src"`
	} `json:"image"`
}

func (p shopifyProduct) toDomain() domain.Product {
	product := domain.Product{
		ID:    p.ID.String(),
		Title: p.Title,
	}
	if len(p.Variants) > 0 {
		product.Price = p.Variants[0].Price
	}
	if p.Image != nil {
		product.ImageURL = p.Image.Src
	}
	return product
}

func (s *Shopify) CreateProduct(ctx context.Context, title, price, imageURL string) (domain.Product, error) {
	product := map[string]any{
		"title":    title,
		"variants": []map[string]any{{"price": price}},
	}
	if imageURL != "" {
		product["images"] = []map[string]any{{"src": imageURL}}
	}

	var out struct {
		Product shopifyProduct `json:"product"`
	}
	_, err := s.do(ctx, http.MethodPost, "products.json", nil, map[string]any{"product": product}, &out)
	if err != nil {
		return domain.Product{}, err
	}
	return out.Product.toDomain(), nil
}

func (s *Shopify) DeleteProduct(ctx context.Context, id string) error {
	_, err := s.do(ctx, http.MethodDelete, "products/"+id+".json", nil, nil, nil)
	return err
}

// ListProducts returns one page. cursor is Shopify's page_info token
// from a previous page; an empty NextCursor ends the listing.
func (s *Shopify) ListProducts(ctx context.Context, cursor string, limit int) (domain.ProductPage, error) {
	if limit <= 0 {
		limit = 5
	}
	query := url.Values{}
	query.Set("limit", fmt.Sprint(limit))
	if cursor != "" {
		query.Set("page_info", cursor)
	}

	var out struct {
		Products []shopifyProduct `json:"products"`
	}
	header, err := s.do(ctx, http.MethodGet, "products.json", query, nil, &out)
	if err != nil {
		return domain.ProductPage{}, err
	}

	page := domain.ProductPage{
		Items:      make([]domain.Product, 0, len(out.Products)),
		NextCursor: nextPageInfo(header.Get("Link")),
	}
	for _, p := range out.Products {
		page.Items = append(page.Items, p.toDomain())
	}
	return page, nil
}

type shopifyOrder struct {
	ID                json.Number `json:"id"`
	Email             string      `json:"email"`
	FulfillmentStatus string      `json:"fulfillment_status"`
	CreatedAt         string      `json:"created_at"`
	LineItems         []struct {
		Title    string      `json:"title"`
		Quantity int         `json:"quantity"`
		Price    json.Number `json:"price"`
	} `json:"line_items"`
}

func (o shopifyOrder) toDomain() domain.Order {
	order := domain.Order{
		ID:        o.ID.String(),
		Email:     o.Email,
		Status:    o.FulfillmentStatus,
		CreatedAt: o.CreatedAt,
	}
	for _, item := range o.LineItems {
		price, _ := item.Price.Float64()
		order.LineItems = append(order.LineItems, domain.LineItem{
			Title:    item.Title,
			Quantity: item.Quantity,
			Price:    price,
		})
	}
	return order
}

func (s *Shopify) CreateOrder(ctx context.Context, customerEmail string, items []domain.LineItem) (domain.Order, error) {
	lineItems := make([]map[string]any, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, map[string]any{
			"title":    item.Title,
			"quantity": item.Quantity,
			"price":    item.Price,
		})
	}
	body := map[string]any{
		"order": map[string]any{
			"email":            customerEmail,
			"line_items":       lineItems,
			"financial_status": "paid",
			"test":             true,
		},
	}

	var out struct {
		Order shopifyOrder `json:"order"`
	}
	_, err := s.do(ctx, http.MethodPost, "orders.json", nil, body, &out)
	if err != nil {
		return domain.Order{}, err
	}
	return out.Order.toDomain(), nil
}

func (s *Shopify) DeleteOrder(ctx context.Context, id string) error {
	_, err := s.do(ctx, http.MethodDelete, "orders/"+id+".json", nil, nil, nil)
	return err
}

func (s *Shopify) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	query := url.Values{}
	query.Set("limit", fmt.Sprint(limit))

	var out struct {
		Orders []shopifyOrder `json:"orders"`
	}
	if _, err := s.do(ctx, http.MethodGet, "orders.json", query, nil, &out); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(out.Orders))
	for _, o := range out.Orders {
		orders = append(orders, o.toDomain())
	}
	return orders, nil
}

// do performs one Admin API request and decodes the response into out
// when provided. It returns the response header for pagination.
func (s *Shopify) do(ctx context.Context, method, path string, query url.Values, body any, out any) (http.Header, error) {
	endpoint := fmt.Sprintf("%s/admin/api/%s/%s", s.baseURL, s.apiVersion, path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: shopify %s %s: %v", domain.ErrUpstreamTimeout, method, path, err)
		}
		return nil, fmt.Errorf("%w: shopify %s %s: %v", domain.ErrUpstreamUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: shopify %s %s", domain.ErrNotFound, method, path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: shopify %s %s: status %d: %s",
			domain.ErrUpstreamUnavailable, method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("%w: shopify %s %s: decoding response: %v",
				domain.ErrUpstreamUnavailable, method, path, err)
		}
	}
	return resp.Header, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// nextPageInfo extracts the page_info cursor from a Shopify Link
// header, e.g.
// <https://shop/admin/api/2023-10/products.json?page_info=abc>; rel="next".
func nextPageInfo(link string) string {
	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start < 0 || end <= start {
			continue
		}
		parsed, err := url.Parse(part[start+1 : end])
		if err != nil {
			continue
		}
		return parsed.Query().Get("page_info")
	}
	return ""
}
