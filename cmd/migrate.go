package cmd

import (
	"log"

	"soundwave/config"
	"soundwave/db"
	"soundwave/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.DB.Close()

		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database with GORM: %v", err)
		}
		defer db.CloseGormDB()

		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize user schema: %v", err)
		}

		if err := db.AutoMigrateModels(&model.Artist{}, &model.Genre{}, &model.Track{}); err != nil {
			log.Fatalf("Failed to migrate catalog models: %v", err)
		}

		log.Println("Migration completed.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
