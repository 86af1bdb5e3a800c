// Package planner defines the grocery planner's domain types as exchanged with
// the remote API, along with the form rules applied before anything is sent.
package planner

import (
	"fmt"
	"strings"
	"time"
)

// PreparationCategories lists every preparation type a user can pick.
var PreparationCategories = []string{
	"Baked",
	"Boiled",
	"Chopped",
	"Diced",
	"Dried",
	"Fermented",
	"Fried",
	"Frosted",
	"Grated",
	"Grilled",
	"Ground",
	"Kneaded",
	"Marinated",
	"Roasted",
	"Sauteed",
	"Shredded",
	"Sliced",
	"Smoked",
	"Soaked",
	"Sprouted",
	"Steamed",
	"Stir-fried",
	"Stuffed",
	"Toasted",
	"Whipped",
}

// TimeUnits are the units a preparation time can be given in.
var TimeUnits = []string{"days", "hours", "minutes"}

// MeasurementUnits are the units a dish ingredient amount can be given in.
var MeasurementUnits = []string{"cup", "tablespoon", "teaspoon", "gm", "ml"}

// MaxDishIngredients caps the ingredient rows of a dish.
const MaxDishIngredients = 100

// PageSize is the number of rows the API returns per page.
const PageSize = 10

// Auth sources reported for a user.
const (
	AuthSourceEmail    = "email"
	AuthSourceNonEmail = "nonEmail"
)

// User is the signed-in account.
type User struct {
	AuthSource string `json:"authSource"`
	Email      string `json:"email"`
	FName      string `json:"fName"`
	ID         string `json:"id"`
	LName      string `json:"lName,omitempty"`
	Name       string `json:"name"`
	Picture    string `json:"picture,omitempty"`
}

// CanChangePassword reports whether the account has a password at all.
// Accounts created through Google sign-in do not.
func (u User) CanChangePassword() bool {
	return u.AuthSource == AuthSourceEmail
}

// Author identifies who created or last updated a record.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	FName string `json:"fName"`
	LName string `json:"lName"`
}

// Preparation is one step an ingredient needs before use, e.g. soaked for a day.
type Preparation struct {
	ID         string `json:"_id,omitempty"`
	Category   string `json:"category"`
	TimeAmount int    `json:"timeAmount"`
	TimeUnits  string `json:"timeUnits"`
}

// String renders the preparation the compact way, e.g. "Soaked:1d".
func (p Preparation) String() string {
	return fmt.Sprintf("%s:%d%s", p.Category, p.TimeAmount, shortUnit(p.TimeUnits))
}

func shortUnit(unit string) string {
	switch unit {
	case "days":
		return "d"
	case "minutes":
		return "min"
	case "hours":
		return "h"
	default:
		return unit
	}
}

// PreparationSummary joins the compact form of every preparation with ", ".
// An ingredient without preparations has an empty summary.
func PreparationSummary(preps []Preparation) string {
	parts := make([]string, len(preps))
	for i, p := range preps {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// Ingredient is a stored ingredient.
type Ingredient struct {
	ID           string        `json:"_id"`
	Name         string        `json:"name"`
	Preparations []Preparation `json:"preparations"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	CreatedBy    Author        `json:"createdBy"`
	UpdatedBy    Author        `json:"updatedBy"`
}

// IngredientInput is the body sent to create or update an ingredient.
type IngredientInput struct {
	Name         string        `json:"name"`
	Preparations []Preparation `json:"preparations"`
}

// Input returns the writable part of the ingredient.
func (i Ingredient) Input() IngredientInput {
	preps := make([]Preparation, len(i.Preparations))
	copy(preps, i.Preparations)
	return IngredientInput{Name: i.Name, Preparations: preps}
}

// IngredientRef is how a dish refers to an ingredient when writing.
type IngredientRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// DishIngredient is one row of a dish as read from the API.
type DishIngredient struct {
	Ingredient      Ingredient `json:"ingredient"`
	Amount          int        `json:"amount"`
	MeasurementUnit string     `json:"measurement_unit"`
}

// DishIngredientInput is one row of a dish as written to the API.
type DishIngredientInput struct {
	Ingredient      IngredientRef `json:"ingredient"`
	Amount          int           `json:"amount"`
	MeasurementUnit string        `json:"measurement_unit"`
}

// Dish is a stored dish.
type Dish struct {
	ID          string           `json:"_id"`
	Name        string           `json:"name"`
	Recipe      string           `json:"recipe"`
	Ingredients []DishIngredient `json:"ingredients"`
	IsPrivate   bool             `json:"isPrivate"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	CreatedBy   Author           `json:"createdBy"`
	UpdatedBy   Author           `json:"updatedBy"`
}

// DishInput is the body sent to create or update a dish.
type DishInput struct {
	Name        string                `json:"name"`
	Recipe      string                `json:"recipe"`
	Ingredients []DishIngredientInput `json:"ingredients"`
	IsPrivate   bool                  `json:"isPrivate"`
}

// Input returns the writable part of the dish, with ingredients reduced to
// references.
func (d Dish) Input() DishInput {
	rows := make([]DishIngredientInput, len(d.Ingredients))
	for i, di := range d.Ingredients {
		rows[i] = DishIngredientInput{
			Ingredient:      IngredientRef{ID: di.Ingredient.ID, Name: di.Ingredient.Name},
			Amount:          di.Amount,
			MeasurementUnit: di.MeasurementUnit,
		}
	}
	return DishInput{Name: d.Name, Recipe: d.Recipe, Ingredients: rows, IsPrivate: d.IsPrivate}
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

// Pages returns how many pages of size limit hold count rows.
func Pages(count, limit int) int {
	if limit <= 0 {
		limit = PageSize
	}
	if count <= 0 {
		return 0
	}
	return (count + limit - 1) / limit
}

// ClampPage keeps page within [1, Pages(count, limit)]. With no rows at all
// the first page is returned.
func ClampPage(page, count, limit int) int {
	total := Pages(count, limit)
	if page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}
	return page
}
