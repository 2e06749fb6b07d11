// Package cli is the display layer: a thin cobra command tree that reads the
// collection's derived view and the session role, and turns user intents into
// operations. No catalog or session logic lives here.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/unionhall/gameshelf/collection"
	"github.com/unionhall/gameshelf/session"
	"go.uber.org/zap"
)

// App bundles the constructed services the commands operate on. Everything is
// injected; the CLI owns nothing.
type App struct {
	Sessions   *session.Controller
	Collection *collection.Manager
	Logger     *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "gameshelf",
		Short:         "Catalog client for the games lending library",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newListCmd(app),
		newShowCmd(app),
		newCheckoutCmd(app),
		newReturnCmd(app),
		newReturnAllCmd(app),
		newAddCmd(app),
		newEditCmd(app),
		newRemoveCmd(app),
		newImportCmd(app),
		newExportCmd(app),
		newStatsCmd(app),
	)
	return root
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
