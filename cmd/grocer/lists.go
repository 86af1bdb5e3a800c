package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bborn/grocer/internal/api"
	"github.com/bborn/grocer/internal/planner"
)

func pageFooter(page, count int) string {
	pages := planner.Pages(count, planner.PageSize)
	if pages == 0 {
		return "no results"
	}
	return fmt.Sprintf("page %d of %d (%d total)", page, pages, count)
}

func newIngredientsCmd(flags *globalFlags, logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ingredients",
		Aliases: []string{"ing"},
		Short:   "List and delete ingredients",
	}

	var q api.ListQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List ingredients",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags, logger)
			if err != nil {
				return err
			}
			defer e.Close()
			if _, err := e.requireLogin(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			page, err := e.client.ListIngredients(ctx, q)
			if err != nil {
				return e.apiError(err)
			}
			for _, ing := range page.Data {
				line := boldStyle.Render(ing.Name)
				if len(ing.Preparations) > 0 {
					line += "  " + planner.PreparationSummary(ing.Preparations)
				}
				fmt.Println(line + "  " + dimStyle.Render(ing.ID))
			}
			fmt.Println(dimStyle.Render(pageFooter(max(q.Page, 1), page.Count)))
			return nil
		},
	}
	list.Flags().StringVarP(&q.Query, "query", "q", "", "Search by name")
	list.Flags().IntVarP(&q.Page, "page", "p", 1, "Page number")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an ingredient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags, logger)
			if err != nil {
				return err
			}
			defer e.Close()
			if _, err := e.requireLogin(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			if err := e.client.DeleteIngredient(ctx, args[0]); err != nil {
				return e.apiError(err)
			}
			fmt.Println(successStyle.Render("Ingredient deleted successfully"))
			return nil
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}

func newDishesCmd(flags *globalFlags, logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dishes",
		Short: "List dishes",
	}

	var q api.ListQuery
	list := &cobra.Command{
		Use:   "list",
		Short: "List dishes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(flags, logger)
			if err != nil {
				return err
			}
			defer e.Close()
			if _, err := e.requireLogin(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()
			page, err := e.client.ListDishes(ctx, q)
			if err != nil {
				return e.apiError(err)
			}
			for _, d := range page.Data {
				line := boldStyle.Render(d.Name)
				if d.IsPrivate {
					line += " " + dimStyle.Render("(private)")
				}
				names := make([]string, 0, len(d.Ingredients))
				for _, di := range d.Ingredients {
					names = append(names, di.Ingredient.Name)
				}
				if len(names) > 0 {
					line += "  " + strings.Join(names, ", ")
				}
				fmt.Println(line + "  " + dimStyle.Render(d.ID))
			}
			fmt.Println(dimStyle.Render(pageFooter(max(q.Page, 1), page.Count)))
			return nil
		},
	}
	list.Flags().StringVarP(&q.Query, "query", "q", "", "Search by name")
	list.Flags().IntVarP(&q.Page, "page", "p", 1, "Page number")

	cmd.AddCommand(list)
	return cmd
}
