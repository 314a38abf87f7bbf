package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
)

func newTestShopify(t *testing.T, handler http.Handler) (*Shopify, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewShopify(Config{
		ShopURL:     server.URL,
		AccessToken: "test-token",
		APIVersion:  "2023-10",
		Timeout:     2 * time.Second,
	}), server
}

func TestCreateProduct(t *testing.T) {
	var gotBody map[string]any
	shopify, _ := newTestShopify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/api/2023-10/products.json", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-Shopify-Access-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"product":{"id":632910392,"title":"Tutu","variants":[{"price":"10.00"}],"image":{"src":"https://cdn.example/tutu.png"}}}`)
	}))

	product, err := shopify.CreateProduct(context.Background(), "Tutu", "10.00", "https://cdn.example/tutu.png")

	require.NoError(t, err)
	assert.Equal(t, "632910392", product.ID)
	assert.Equal(t, "Tutu", product.Title)
	assert.Equal(t, "10.00", product.Price)
	assert.Equal(t, "https://cdn.example/tutu.png", product.ImageURL)

	sent := gotBody["product"].(map[string]any)
	assert.Equal(t, "Tutu", sent["title"])
	images := sent["images"].([]any)
	require.Len(t, images, 1)
}

func TestDeleteProductNotFound(t *testing.T) {
	shopify, _ := newTestShopify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := shopify.DeleteProduct(context.Background(), "999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListProductsPagination(t *testing.T) {
	var server *httptest.Server
	calls := 0
	shopify, server := newTestShopify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Query().Get("page_info") {
		case "":
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2023-10/products.json?limit=2&page_info=cursor-two>; rel="next"`, server.URL))
			fmt.Fprint(w, `{"products":[{"id":1,"title":"A","variants":[{"price":"1.00"}]},{"id":2,"title":"B","variants":[{"price":"2.00"}]}]}`)
		case "cursor-two":
			fmt.Fprint(w, `{"products":[{"id":3,"title":"C","variants":[{"price":"3.00"}]}]}`)
		default:
			t.Errorf("unexpected page_info %q", r.URL.Query().Get("page_info"))
		}
	}))

	first, err := shopify.ListProducts(context.Background(), "", 2)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "cursor-two", first.NextCursor)

	second, err := shopify.ListProducts(context.Background(), first.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "C", second.Items[0].Title)
	assert.Empty(t, second.NextCursor)
	assert.Equal(t, 2, calls)
}

func TestServerErrorMapsToUnavailable(t *testing.T) {
	shopify, _ := newTestShopify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))

	_, err := shopify.ListProducts(context.Background(), "", 5)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.ErrorContains(t, err, "status 500")
}

func TestTimeoutMapsToUpstreamTimeout(t *testing.T) {
	shopify, _ := newTestShopify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := shopify.ListProducts(ctx, "", 5)
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}

func TestCreateOrder(t *testing.T) {
	shopify, _ := newTestShopify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2023-10/orders.json", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		order := body["order"].(map[string]any)
		assert.Equal(t, "alice@example.com", order["email"])
		assert.Equal(t, true, order["test"])

		fmt.Fprint(w, `{"order":{"id":450789469,"email":"alice@example.com","fulfillment_status":"","line_items":[{"title":"Charger","quantity":2,"price":"9.99"}]}}`)
	}))

	order, err := shopify.CreateOrder(context.Background(), "alice@example.com", []domain.LineItem{
		{Title: "Charger", Quantity: 2, Price: 9.99},
	})

	require.NoError(t, err)
	assert.Equal(t, "450789469", order.ID)
	require.Len(t, order.LineItems, 1)
	assert.Equal(t, 2, order.LineItems[0].Quantity)
	assert.Equal(t, 9.99, order.LineItems[0].Price)
}

func TestNextPageInfo(t *testing.T) {
	link := `<https://shop.myshopify.com/admin/api/2023-10/products.json?limit=5&page_info=prev>; rel="previous", <https://shop.myshopify.com/admin/api/2023-10/products.json?limit=5&page_info=next-token>; rel="next"`
	assert.Equal(t, "next-token", nextPageInfo(link))
	assert.Equal(t, "", nextPageInfo(""))
	assert.Equal(t, "", nextPageInfo(`<https://x>; rel="previous"`))
}
