package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/unionhall/gameshelf/model"
)

func newAddCmd(app *App) *cobra.Command {
	var (
		draft      model.Game
		minPlayers int
		maxPlayers int
		minTime    int
		maxTime    int
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a catalog entry (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.Name = args[0]
			if cmd.Flags().Changed("min-players") {
				draft.MinPlayerCount = &minPlayers
			}
			if cmd.Flags().Changed("max-players") {
				draft.MaxPlayerCount = &maxPlayers
			}
			if cmd.Flags().Changed("min-playtime") {
				draft.MinPlaytime = &minTime
			}
			if cmd.Flags().Changed("max-playtime") {
				draft.MaxPlaytime = &maxTime
			}
			draft.AvailableCopies = draft.Quantity

			ctx, cancel := cmdContext()
			defer cancel()
			created, err := app.Collection.Create(ctx, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %q with id %d\n", created.Name, created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&draft.Genre, "genre", "", "genre")
	cmd.Flags().StringVar(&draft.Description, "description", "", "short description")
	cmd.Flags().StringVar(&draft.BoxImageURL, "image", "", "box image URL")
	cmd.Flags().StringVar(&draft.InternalNotes, "notes", "", "internal notes")
	cmd.Flags().IntVar(&draft.Quantity, "quantity", 1, "number of copies")
	cmd.Flags().IntVar(&minPlayers, "min-players", 0, "minimum player count")
	cmd.Flags().IntVar(&maxPlayers, "max-players", 0, "maximum player count")
	cmd.Flags().IntVar(&minTime, "min-playtime", 0, "minimum playtime in minutes")
	cmd.Flags().IntVar(&maxTime, "max-playtime", 0, "maximum playtime in minutes")
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var (
		name     string
		genre    string
		desc     string
		image    string
		notes    string
		quantity int
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a catalog entry (admin); only changed flags are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var patch model.GamePatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("genre") {
				patch.Genre = &genre
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &desc
			}
			if cmd.Flags().Changed("image") {
				patch.BoxImageURL = &image
			}
			if cmd.Flags().Changed("notes") {
				patch.InternalNotes = &notes
			}
			if cmd.Flags().Changed("quantity") {
				patch.Quantity = &quantity
			}

			ctx, cancel := cmdContext()
			defer cancel()
			updated, err := app.Collection.Update(ctx, id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %q\n", updated.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&genre, "genre", "", "new genre")
	cmd.Flags().StringVar(&desc, "description", "", "new description")
	cmd.Flags().StringVar(&image, "image", "", "new box image URL")
	cmd.Flags().StringVar(&notes, "notes", "", "new internal notes")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "new copy count")
	return cmd
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a catalog entry (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()
			if err := app.Collection.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}

func newReturnAllCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "return-all",
		Short: "Return every outstanding copy (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			changed, err := app.Collection.ReturnAll(ctx)
			if err != nil {
				return err
			}
			if len(changed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing was out")
				return nil
			}
			for i := range changed {
				fmt.Fprintf(cmd.OutOrStdout(), "returned %q\n", changed[i].Name)
			}
			return nil
		},
	}
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import entries from a CSV file (admin); duplicate names are skipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ctx, cancel := cmdContext()
			defer cancel()
			if err := app.Collection.ImportFromFile(ctx, filepath.Base(args[0]), f); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "imported")
			return nil
		},
	}
}

func newExportCmd(app *App) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the catalog as CSV (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			body, err := app.Collection.ExportToFile(ctx)
			if err != nil {
				return err
			}
			defer body.Close()

			var dst io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				dst = f
			}
			if _, err := io.Copy(dst, body); err != nil {
				return err
			}
			if outPath != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", outPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}
