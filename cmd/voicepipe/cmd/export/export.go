package export

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"voicepipe/internal/app/export"
	"voicepipe/internal/app/model"
	"voicepipe/internal/app/repository"
	"voicepipe/internal/app/repository/pg"
	"voicepipe/internal/app/repository/sqlite"
	"voicepipe/internal/config"
)

var recordingID string
var outputFilePath string

func init() {
	Cmd.Flags().StringVarP(&recordingID, "recording", "r", "", "limit the export to one recording")
	Cmd.Flags().StringVarP(&outputFilePath, "outputFilePath", "o", "", "set outputFilePath")

	Cmd.MarkFlagRequired("outputFilePath")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export the sync audit trail to excel",
	Long: `Export the sync audit trail to excel.

One row per sync attempt, plus a per-status summary sheet.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v\n", err)
		}

		var store repository.Store
		switch cfg.Database.Driver {
		case "postgres":
			store, err = pg.Open(cfg.Database.DSN)
		default:
			store, err = sqlite.Open(cfg.Database.DSN)
		}
		if err != nil {
			log.Fatalf("Failed to open database: %v\n", err)
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		var logs []model.SyncLog
		if recordingID != "" {
			logs, err = store.SyncLogs().ListByRecording(ctx, recordingID)
		} else {
			logs, err = store.SyncLogs().ListAll(ctx)
		}
		if err != nil {
			log.Fatal(err)
		}

		if err := export.ToExcel(logs, outputFilePath); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("export finished, exported file path: %v\n", outputFilePath)
	},
}
