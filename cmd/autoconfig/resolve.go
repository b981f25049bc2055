package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/yanizio/autoconfig/internal/autoconfig"
	"github.com/yanizio/autoconfig/internal/layer"
	"github.com/yanizio/autoconfig/internal/logger"
	"github.com/yanizio/autoconfig/internal/render"
)

var resolveFlags struct {
	json bool
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <address>",
	Short: "Print the configuration for one email address",
	Long: `Resolve an email address against the configured source and print the
clientConfig document a mail client would receive.

Examples:
  # XML document
  autoconfig resolve alice@example.com

  # Flattened context, useful for debugging references
  autoconfig resolve alice@example.com --json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().BoolVar(&resolveFlags.json, "json", false, "print the flattened context as JSON")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logger.Console("warn")
	if err != nil {
		return err
	}

	store, closeFn, err := loadOnce(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	snap, err := store.Current()
	if err != nil {
		return err
	}
	return writeResolved(cmd.OutOrStdout(), snap.Raw, args[0], resolveFlags.json)
}

// writeResolved renders address as XML, or as indented JSON of the
// flattened context when asJSON is set.
func writeResolved(w io.Writer, rc *layer.RawConfig, address string, asJSON bool) error {
	ctx, err := autoconfig.Resolve(rc, address)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ctx.Flatten())
	}

	doc, err := render.XML(ctx)
	if err != nil {
		return err
	}
	_, err = w.Write(doc)
	return err
}
