package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fearless-dhbw/img-classification/internal/repository/sqlite"
	"github.com/fearless-dhbw/img-classification/internal/service/storage"
)

var migrateOpts struct {
	ArchiveDir string
	DBPath     string
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rebuild the history database from archived face crops",
	RunE: func(cmd *cobra.Command, args []string) error {
		archiveDir := migrateOpts.ArchiveDir
		if archiveDir == "" {
			archiveDir = cfg.ArchiveDirectory
		}
		dbPath := migrateOpts.DBPath
		if dbPath == "" {
			dbPath = cfg.DatabasePath
		}

		fmt.Printf("Migrating crops from %s to database %s\n", archiveDir, dbPath)

		records, skipped, err := storage.ScanArchive(archiveDir)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No crops found to migrate")
			return nil
		}

		db, err := sqlite.New(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		repo := sqlite.NewClassificationRepository(db)

		fmt.Printf("Inserting %d records into database...\n", len(records))
		if err := repo.InsertBatch(records); err != nil {
			return fmt.Errorf("failed to insert records: %w", err)
		}

		fmt.Printf("Migrated %d crops\n", len(records))
		if skipped > 0 {
			fmt.Printf("Skipped %d files (unrecognized name or unreadable image)\n", skipped)
		}

		counts, err := repo.GetLabelCounts()
		if err == nil {
			fmt.Println("Per label:")
			for _, c := range counts {
				fmt.Printf("   - %s: %d\n", c.Label, c.Count)
			}
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateOpts.ArchiveDir, "archive", "", "Crop archive directory (default ARCHIVE_DIR)")
	migrateCmd.Flags().StringVar(&migrateOpts.DBPath, "db", "", "History database path (default DB_PATH)")
	rootCmd.AddCommand(migrateCmd)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
