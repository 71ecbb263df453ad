package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/resourcemart/storefront/internal/auth"
	"github.com/resourcemart/storefront/internal/client"
	"github.com/resourcemart/storefront/internal/filter"
	"github.com/resourcemart/storefront/internal/models"
)

func newSearchCmd() *cobra.Command {
	var category string
	var priceMin, priceMax float64
	var sortBy string
	var pages int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Query the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			patch := filter.Patch{}
			if category != "" {
				patch.Category = filter.Set(category)
			}
			if cmd.Flags().Changed("price-min") || cmd.Flags().Changed("price-max") {
				if !cmd.Flags().Changed("price-max") {
					priceMax = filter.PriceCeiling
				}
				patch.Price = filter.Set(filter.PriceRange{Min: priceMin, Max: priceMax})
			}
			if sortBy != "" {
				patch.SortBy = filter.Set(models.SortKey(sortBy))
			}
			e.catalog.SetFilters(patch)

			ctx := cmd.Context()
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			if err := e.catalog.Search(ctx, query); err != nil {
				return fmt.Errorf("search: %s", e.catalog.Err())
			}
			for p := 1; p < pages; p++ {
				if err := e.catalog.LoadMore(ctx); err != nil {
					break
				}
			}

			pg := e.catalog.Pagination()
			fmt.Printf("%d of %d resources (has more: %v)\n", len(e.catalog.Resources()), pg.Total, pg.HasMore)
			for _, r := range e.catalog.Resources() {
				fmt.Printf("  %-10s %-8s %8.2f  %s\n", r.ID, r.Type, r.Price, r.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	cmd.Flags().Float64Var(&priceMin, "price-min", 0, "minimum price")
	cmd.Flags().Float64Var(&priceMax, "price-max", filter.PriceCeiling, "maximum price")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort order (latest|popular|price|rating)")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	return cmd
}

func newCartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and mutate the cart",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "Show the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.cart.Refresh(cmd.Context()); err != nil {
				fmt.Printf("(offline: showing local snapshot; %s)\n", e.cart.Err())
			}
			printCart(e)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <resource-id>",
		Short: "Add one unit of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			// Resolve the resource so the local fallback path has title
			// and price on hand.
			res, err := lookupResource(cmd, e, args[0])
			if err != nil {
				return err
			}
			if err := e.cart.AddItem(cmd.Context(), res); err != nil {
				fmt.Printf("(offline: applied locally; %s)\n", e.cart.Err())
			}
			printCart(e)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <resource-id> <quantity>",
		Short: "Set a line quantity (0 removes the line)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			q, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be an integer: %w", err)
			}
			if err := e.cart.UpdateQuantity(cmd.Context(), args[0], q); err != nil {
				fmt.Printf("(offline: applied locally; %s)\n", e.cart.Err())
			}
			printCart(e)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <resource-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.cart.RemoveItem(cmd.Context(), args[0]); err != nil {
				fmt.Printf("(offline: applied locally; %s)\n", e.cart.Err())
			}
			printCart(e)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.cart.ClearCart(cmd.Context()); err != nil {
				fmt.Printf("(offline: applied locally; %s)\n", e.cart.Err())
			}
			printCart(e)
			return nil
		},
	})

	return cmd
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Sign in and persist the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			ac := client.NewAuthClient(e.cfg.CatalogURL)
			resp, err := ac.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			e.auth.SignIn(auth.User{
				ID:       resp.User.ID,
				Username: resp.User.Username,
				Avatar:   resp.User.Avatar,
			}, resp.Token)
			fmt.Printf("signed in as %s\n", resp.User.Username)
			return nil
		},
	}
}

func lookupResource(cmd *cobra.Command, e *env, id string) (models.Resource, error) {
	cc := client.NewCatalogClient(e.cfg.CatalogURL, e.auth.Token())
	res, err := cc.Query(cmd.Context(), client.QueryParams{Page: 1, Limit: 100})
	if err == nil {
		for _, r := range res.Items {
			if r.ID == id {
				return r, nil
			}
		}
	}
	// Offline or unknown id: the fallback item carries only the id; the
	// next successful reconciliation fills in server truth.
	return models.Resource{ID: id}, nil
}

func printCart(e *env) {
	items := e.cart.Items()
	if len(items) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, it := range items {
		fmt.Printf("  %-10s x%-3d %8.2f  %s\n", it.ResourceID, it.Quantity, it.Price, it.Title)
	}
	fmt.Printf("total: %.2f (%d items)\n", e.cart.Total(), e.cart.ItemCount())
}
