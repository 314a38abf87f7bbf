package usecase

import (
	"context"
	"fmt"

	"github.com/pauline-si/ai-eng-tech-eval/domain"
)

// Turn is the mutable state of one conversation turn. Tool executors
// mutate the to-do list and stage fact writes here; the loop commits
// both to the session when the turn completes.
type Turn struct {
	SessionID string
	Todos     []domain.TodoItem

	catalog domain.Catalog
	facts   map[string]domain.Fact
}

func (t *Turn) setFact(key string, f domain.Fact) {
	if t.facts == nil {
		t.facts = make(map[string]domain.Fact)
	}
	t.facts[key] = f
}

// builtinTools declares the closed tool set the model may invoke.
func builtinTools() []Tool {
	return []Tool{
		{
			Schema: domain.ToolSchema{
				Name:        "add_todo",
				Description: "Add a new task to the user's todo list.",
				Params: map[string]domain.Param{
					"text": {Type: domain.TypeString, Description: "The task text."},
				},
				Required: []string{"text"},
			},
			Run: runAddTodo,
		},
		{
			Schema: domain.ToolSchema{
				Name:        "remove_todo",
				Description: "Remove a task from the user's todo list by its id.",
				Params: map[string]domain.Param{
					"id": {Type: domain.TypeString, Description: "The id of the task to remove."},
				},
				Required: []string{"id"},
			},
			Run: runRemoveTodo,
		},
		{
			Schema: domain.ToolSchema{
				Name:        "add_product",
				Description: "Add a new product to the Shopify store.",
				Params: map[string]domain.Param{
					"title":     {Type: domain.TypeString, Description: "The product title."},
					"price":     {Type: domain.TypeString, Description: "The product price."},
					"image_url": {Type: domain.TypeString, Description: "Optional image URL for the product."},
				},
				Required: []string{"title", "price"},
			},
			Run: runAddProduct,
		},
		{
			Schema: domain.ToolSchema{
				Name:        "remove_product",
				Description: "Remove a product from Shopify using its ID.",
				Params: map[string]domain.Param{
					"product_id": {Type: domain.TypeString, Description: "The ID of the product to remove."},
				},
				Required: []string{"product_id"},
			},
			Run: runRemoveProduct,
		},
		{
			Schema: domain.ToolSchema{
				Name:        "list_products",
				Description: "List products from the Shopify store, one page at a time.",
				Params: map[string]domain.Param{
					"limit":  {Type: domain.TypeInteger, Description: "Number of products per page, e.g. 3 or 10."},
					"cursor": {Type: domain.TypeString, Description: "Page cursor returned by a previous call."},
				},
			},
			Run: runListProducts,
		},
		{
			Schema: domain.ToolSchema{
				Name:        "add_order",
				Description: "Create a new order in Shopify.",
				Params: map[string]domain.Param{
					"customer_email": {Type: domain.TypeString, Description: "The email address of the customer."},
					"line_items": {
						Type:        domain.TypeArray,
						Description: "A list of items to order. Each item must have a title, quantity, and price.",
						Items: &domain.Param{
							Type: domain.TypeObject,
							Properties: map[string]domain.Param{
								"title":    {Type: domain.TypeString, Description: "The name of the product."},
								"quantity": {Type: domain.TypeInteger, Description: "The quantity of the product."},
								"price":    {Type: domain.TypeNumber, Description: "The price of the product."},
							},
							Required: []string{"title", "quantity", "price"},
						},
					},
				},
				Required: []string{"customer_email", "line_items"},
			},
			Run: runAddOrder,
		},
		{
			Schema: domain.ToolSchema{
				Name:        "remove_order",
				Description: "Delete a Shopify order by order ID.",
				Params: map[string]domain.Param{
					"order_id": {Type: domain.TypeString, Description: "The Shopify order ID to delete."},
				},
				Required: []string{"order_id"},
			},
			Run: runRemoveOrder,
		},
		{
			Schema: domain.ToolSchema{
				Name:        "list_orders",
				Description: "List recent Shopify orders.",
				Params: map[string]domain.Param{
					"limit": {Type: domain.TypeInteger, Description: "The number of orders to return (default 5)."},
				},
			},
			Run: runListOrders,
		},
	}
}

func runAddTodo(ctx context.Context, turn *Turn, args map[string]any) (map[string]any, error) {
	item := domain.NewTodoItem(stringArg(args, "text"))
	turn.Todos = append(turn.Todos, item)
	return map[string]any{
		"id":     item.ID,
		"text":   item.Text,
		"status": item.Status,
	}, nil
}

func runRemoveTodo(ctx context.Context, turn *Turn, args map[string]any) (map[string]any, error) {
	id := stringArg(args, "id")
	for i, item := range turn.Todos {
		if item.ID == id {
			turn.Todos = append(turn.Todos[:i], turn.Todos[i+1:]...)
			return map[string]any{"id": id, "message": "Todo removed."}, nil
		}
	}
	return nil, fmt.Errorf("%w: todo %q", domain.ErrNotFound, id)
}

func runAddProduct(ctx context.Context, turn *Turn, args map[string]any) (map[string]any, error) {
	title := stringArg(args, "title")
	product, err := turn.catalog.CreateProduct(ctx, title, stringArg(args, "price"), stringArg(args, "image_url"))
	if err != nil {
		return nil, fmt.Errorf("creating product %q: %w", title, err)
	}

	item := domain.NewTodoItem(fmt.Sprintf("Add product '%s' to Shopify", product.Title))
	item.Status = domain.TodoDone
	item.Image = product.ImageURL
	turn.Todos = append(turn.Todos, item)

	turn.setFact(domain.FactLastAddedProduct, domain.Fact{ID: product.ID, Title: product.Title})
	return map[string]any{
		"id":    product.ID,
		"title": product.Title,
		"price": product.Price,
		"image": product.ImageURL,
	}, nil
}

func runRemoveProduct(ctx context.Context, turn *Turn, args map[string]any) (map[string]any, error) {
	id := stringArg(args, "product_id")
	if err := turn.catalog.DeleteProduct(ctx, id); err != nil {
		return nil, fmt.Errorf("removing product %q: %w", id, err)
	}
	turn.setFact(domain.FactLastRemovedProduct, domain.Fact{ID: id})
	return map[string]any{"id": id, "message": "Product removed."}, nil
}

func runListProducts(ctx context.Context, turn *Turn, args map[string]any) (map[string]any, error) {
	page, err := turn.catalog.ListProducts(ctx, stringArg(args, "cursor"), intArg(args, "limit", 5))
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products := make([]any, 0, len(page.Items))
	for _, p := range page.Items {
		products = append(products, map[string]any{
			"id":        p.ID,
			"title":     p.Title,
			"price":     p.Price,
			"image_url": p.ImageURL,
		})
	}
	result := map[string]any{"products": products}
	if page.NextCursor != "" {
		result["next_cursor"] = page.NextCursor
	}
	return result, nil
}

func runAddOrder(ctx context.Context, turn *Turn, args map[string]any) (map[string]any, error) {
	email := stringArg(args, "customer_email")
	rawItems, _ := args["line_items"].([]any)
	items := make([]domain.LineItem, 0, len(rawItems))
	for _, raw := range rawItems {
		entry, _ := raw.(map[string]any)
		items = append(items, domain.LineItem{
			Title:    stringArg(entry, "title"),
			Quantity: intArg(entry, "quantity", 1),
			Price:    numberArg(entry, "price"),
		})
	}

	order, err := turn.catalog.CreateOrder(ctx, email, items)
	if err != nil {
		return nil, fmt.Errorf("creating order for %q: %w", email, err)
	}
	turn.setFact(domain.FactLastAddedOrder, domain.Fact{ID: order.ID, Title: order.Email})
	return map[string]any{
		"order_id":   order.ID,
		"email":      order.Email,
		"status":     order.Status,
		"line_items": order.LineItems,
	}, nil
}

func runRemoveOrder(ctx context.Context, turn *Turn, args map[string]any) (map[string]any, error) {
	id := stringArg(args, "order_id")
	if err := turn.catalog.DeleteOrder(ctx, id); err != nil {
		return nil, fmt.Errorf("removing order %q: %w", id, err)
	}
	turn.setFact(domain.FactLastRemovedOrder, domain.Fact{ID: id})
	return map[string]any{"order_id": id, "message": "Order deleted successfully."}, nil
}

func runListOrders(ctx context.Context, turn *Turn, args map[string]any) (map[string]any, error) {
	orders, err := turn.catalog.ListOrders(ctx, intArg(args, "limit", 5))
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	entries := make([]any, 0, len(orders))
	for _, o := range orders {
		entries = append(entries, map[string]any{
			"order_id":   o.ID,
			"email":      o.Email,
			"status":     o.Status,
			"created_at": o.CreatedAt,
			"line_items": o.LineItems,
		})
	}
	return map[string]any{"orders": entries}, nil
}

// Argument accessors run after schema validation, so type assertions
// only need to tolerate absent optional parameters.

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string, fallback int) int {
	if f, ok := args[key].(float64); ok {
		return int(f)
	}
	return fallback
}

func numberArg(args map[string]any, key string) float64 {
	f, _ := args[key].(float64)
	return f
}
