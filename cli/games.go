package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/unionhall/gameshelf/model"
)

func newListCmd(app *App) *cobra.Command {
	var (
		name      string
		genre     string
		playtime  int
		players   int
		sortField string
		desc      bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries, filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := model.ParseSortField(sortField)
			if err != nil {
				return fmt.Errorf("%w: %q", err, sortField)
			}
			filter := model.FilterSpec{Name: name, Genre: genre}
			if cmd.Flags().Changed("playtime") {
				filter.Playtime = &playtime
			}
			if cmd.Flags().Changed("players") {
				filter.PlayerCount = &players
			}

			ctx, cancel := cmdContext()
			defer cancel()
			app.Collection.Refresh(ctx)
			app.Collection.UpdateFilterAndSort(filter, model.SortSpec{Field: field, Descending: desc})

			games := app.Collection.Games()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tGENRE\tPLAYERS\tPLAYTIME\tAVAIL\tCHECKOUTS")
			for i := range games {
				g := &games[i]
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d/%d\t%d\n",
					g.ID, g.Name, g.Genre,
					rangeLabel(g.MinPlayerCount, g.MaxPlayerCount, ""),
					rangeLabel(g.MinPlaytime, g.MaxPlaytime, "m"),
					g.AvailableCopies, g.Quantity, g.CheckoutCount)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "substring match on name")
	cmd.Flags().StringVar(&genre, "genre", "", "substring match on genre")
	cmd.Flags().IntVar(&playtime, "playtime", 0, "desired playtime in minutes")
	cmd.Flags().IntVar(&players, "players", 0, "desired player count")
	cmd.Flags().StringVar(&sortField, "sort", string(model.SortByName), "sort field: name|minPlayerCount|minPlaytime|checkoutCount")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()
			app.Collection.Refresh(ctx)

			g, ok := app.Collection.Get(id)
			if !ok {
				return fmt.Errorf("no game with id %d", id)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (#%d)\n", g.Name, g.ID)
			if g.Genre != "" {
				fmt.Fprintf(out, "  genre:     %s\n", g.Genre)
			}
			if g.Description != "" {
				fmt.Fprintf(out, "  about:     %s\n", g.Description)
			}
			fmt.Fprintf(out, "  players:   %s\n", rangeLabel(g.MinPlayerCount, g.MaxPlayerCount, ""))
			fmt.Fprintf(out, "  playtime:  %s\n", rangeLabel(g.MinPlaytime, g.MaxPlaytime, "m"))
			fmt.Fprintf(out, "  copies:    %d of %d available\n", g.AvailableCopies, g.Quantity)
			fmt.Fprintf(out, "  checkouts: %d\n", g.CheckoutCount)
			if g.InternalNotes != "" {
				fmt.Fprintf(out, "  notes:     %s\n", g.InternalNotes)
			}
			return nil
		},
	}
}

func newCheckoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <id>",
		Short: "Check out one copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()
			app.Collection.Refresh(ctx)
			if err := app.Collection.Checkout(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "checked out")
			return nil
		},
	}
}

func newReturnCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "return <id>",
		Short: "Return one copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()
			app.Collection.Refresh(ctx)
			if err := app.Collection.Return(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "returned")
			return nil
		},
	}
}

func newStatsCmd(app *App) *cobra.Command {
	var fromStr, toStr string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show checkout statistics for an optional date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDate(fromStr)
			if err != nil {
				return err
			}
			to, err := parseDate(toStr)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()
			stats, err := app.Collection.FetchStats(ctx, from, to)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "most popular game:     %s\n", stats.MostPopularGameName)
			fmt.Fprintf(out, "total checkouts:       %d\n", stats.TotalCheckouts)
			fmt.Fprintf(out, "avg checkouts/game:    %.1f\n", stats.AverageGamesCheckout)
			fmt.Fprintf(out, "avg players/game:      %.1f\n", stats.AveragePlayersPerGame)
			fmt.Fprintf(out, "avg playtime/game:     %.0f min\n", stats.AveragePlaytimePerGame)
			fmt.Fprintf(out, "copies on shelf:       %d\n", stats.TotalAvailableCopies)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromStr, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "end date (YYYY-MM-DD)")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func rangeLabel(min, max *int, unit string) string {
	switch {
	case min == nil && max == nil:
		return "-"
	case min != nil && max != nil && *min != *max:
		return fmt.Sprintf("%d-%d%s", *min, *max, unit)
	case min != nil:
		return fmt.Sprintf("%d%s", *min, unit)
	default:
		return fmt.Sprintf("%d%s", *max, unit)
	}
}
