package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bborn/grocer/internal/planner"
)

// ListQuery selects one page of a list endpoint.
type ListQuery struct {
	Page  int
	Query string
}

func (q ListQuery) values() url.Values {
	page := q.Page
	if page < 1 {
		page = 1
	}
	v := url.Values{"page": {strconv.Itoa(page)}}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	return v
}

// ListIngredients returns one page of ingredients matching the query.
func (c *Client) ListIngredients(ctx context.Context, q ListQuery) (*planner.Page[planner.Ingredient], error) {
	var out planner.Page[planner.Ingredient]
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/ingredients", query: q.values(), auth: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateIngredient stores a new ingredient.
func (c *Client) CreateIngredient(ctx context.Context, in planner.IngredientInput) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/api/ingredients", body: in, auth: true}, nil)
}

// UpdateIngredient replaces the ingredient with the given id.
func (c *Client) UpdateIngredient(ctx context.Context, id string, in planner.IngredientInput) error {
	return c.do(ctx, request{method: http.MethodPatch, path: "/api/ingredients/" + url.PathEscape(id), body: in, auth: true}, nil)
}

// DeleteIngredient removes the ingredient with the given id.
func (c *Client) DeleteIngredient(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/ingredients/" + url.PathEscape(id), auth: true}, nil)
}

// ListDishes returns one page of dishes matching the query.
func (c *Client) ListDishes(ctx context.Context, q ListQuery) (*planner.Page[planner.Dish], error) {
	var out planner.Page[planner.Dish]
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/dishes", query: q.values(), auth: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDish stores a new dish.
func (c *Client) CreateDish(ctx context.Context, in planner.DishInput) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/api/dishes", body: in, auth: true}, nil)
}

// UpdateDish replaces the dish with the given id.
func (c *Client) UpdateDish(ctx context.Context, id string, in planner.DishInput) error {
	return c.do(ctx, request{method: http.MethodPatch, path: "/api/dishes/" + url.PathEscape(id), body: in, auth: true}, nil)
}
