package api

import (
	"context"

	"github.com/bborn/grocer/internal/autocomplete"
	"github.com/bborn/grocer/internal/planner"
	"github.com/bborn/grocer/internal/refresh"
)

// IngredientOptions turns ingredients into autocomplete options described by
// their preparations.
func IngredientOptions(ings []planner.Ingredient) []autocomplete.Option {
	out := make([]autocomplete.Option, len(ings))
	for i, ing := range ings {
		out[i] = autocomplete.Option{
			ID:          ing.ID,
			Label:       ing.Name,
			Description: planner.PreparationSummary(ing.Preparations),
		}
	}
	return out
}

// IngredientLookup searches ingredients for the rows of a dish form.
func (c *Client) IngredientLookup() refresh.Lookup {
	return func(ctx context.Context, query string, page int) ([]autocomplete.Option, error) {
		res, err := c.ListIngredients(ctx, ListQuery{Page: page, Query: query})
		if err != nil {
			return nil, err
		}
		return IngredientOptions(res.Data), nil
	}
}
