package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simmap/simmap/qmap/embedding"
	"github.com/simmap/simmap/qmap/store"
)

var (
	ingestDSN         string // Donor database URL (overrides defaults)
	ingestEmbedURL    string // Embedding server URL (overrides defaults)
	ingestCreateTable bool   // Create the donor table before inserting
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [solver output files...]",
	Short: "Embed solved mappings and store them as donors",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadSettings(cmd)
		if cmd.Flags().Changed("db") {
			cfg.Store.DSN = ingestDSN
		}
		if cmd.Flags().Changed("embed-url") {
			cfg.Embedding.URL = ingestEmbedURL
		}

		ctx, stop := signalContext()
		defer stop()

		pool, err := store.Connect(ctx, cfg.Store.DSN)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer pool.Close()
		donors := store.New(pool, cfg.Store.Table)
		if ingestCreateTable {
			if err := donors.CreateTable(ctx, cfg.Store.Dimensions); err != nil {
				logrus.Fatalf("Failed to create donor table: %v", err)
			}
		}

		ingester := embedding.NewIngester(newEmbedClientFromConfig(cfg.Embedding), donors)
		stats, err := ingester.IngestFiles(ctx, args)
		if err != nil {
			logrus.Errorf("Ingestion finished with errors: %v", err)
		}
		if stats.Inserted == 0 && err != nil {
			logrus.Fatalf("No donors inserted")
		}
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDSN, "db", "", "Donor database URL (overrides defaults)")
	ingestCmd.Flags().StringVar(&ingestEmbedURL, "embed-url", "", "Embedding server base URL (overrides defaults)")
	ingestCmd.Flags().BoolVar(&ingestCreateTable, "create-table", false, "Create the donor table if it does not exist")
	rootCmd.AddCommand(ingestCmd)
}
