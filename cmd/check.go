package cmd

import (
	"log"

	"soundwave/cache"
	"soundwave/config"
	"soundwave/db"
	"soundwave/storage"

	"github.com/spf13/cobra"
)

// checkCmd probes every external dependency so a deployment can be
// verified before the server is started.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity to MySQL, Redis and the file store",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("MySQL check failed: %v", err)
		}
		db.DB.Close()
		log.Println("MySQL: ok")

		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("Redis check failed: %v", err)
		}
		cache.CloseRedis()
		log.Println("Redis: ok")

		if cfg.StorageBackend == "minio" {
			if _, err := storage.NewMinioStore(cfg); err != nil {
				log.Fatalf("MinIO check failed: %v", err)
			}
			log.Println("MinIO: ok")
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
