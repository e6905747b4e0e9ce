package cli

import (
	"fmt"

	"github.com/formulary/backend/internal/infrastructure/logging"
	"github.com/formulary/backend/internal/infrastructure/records"
	"github.com/spf13/cobra"
)

func newImportCommand(opts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a YAML or JSON record file into the SQLite store",
		Long: `Import replaces every herb and formula in the SQLite store with the
contents of a record file. Records without an _id are assigned a UUID.

The target defaults to records.sqlite_path from configuration.`,
		Example: "  formulary import --from data/formulary.yaml --to data/formulary.db",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if to == "" {
				to = cfg.Records.SQLitePath
			}

			doc, err := records.NewFileSource(from).Load(cmd.Context())
			if err != nil {
				return err
			}

			store, err := records.NewSQLiteStore(to, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Import(cmd.Context(), doc); err != nil {
				return err
			}

			logger.Info("records imported",
				logging.String("from", from),
				logging.String("to", to),
				logging.Int("herbs", len(doc.Herbs)),
				logging.Int("formulas", len(doc.Formulas)))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d herbs and %d formulas into %s\n", len(doc.Herbs), len(doc.Formulas), to)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "record file to import (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&to, "to", "", "SQLite database path")
	cmd.MarkFlagRequired("from")
	return cmd
}
