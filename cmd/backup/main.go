package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kidsvideohub/internal/config"
	"kidsvideohub/internal/database"
	"kidsvideohub/internal/logging"
	"kidsvideohub/internal/repository"
	"kidsvideohub/internal/service"
)

var log = &logging.Logger

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LogLevel, "kidsvideohub-backup")

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	ctx := context.Background()
	backupService := service.NewBackupService(repository.NewStore(db), nil)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, backupService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, backupService, db, *importInput, *importClear)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, backupService *service.BackupService, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("backup_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal().Err(err).Msg("Failed to create output directory")
		}
	}

	log.Info().Str("path", outputPath).Msg("Exporting database")
	if err := backupService.Export(ctx, outputPath); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	// Get file size
	fileInfo, err := os.Stat(outputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Export file missing")
	}
	log.Info().Float64("size_mb", float64(fileInfo.Size())/1024/1024).Msg("Export complete")
}

func handleImport(ctx context.Context, backupService *service.BackupService, db *database.DB, inputPath string, clearData bool) {
	// Check if file exists
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatal().Str("path", inputPath).Msg("Input file does not exist")
	}

	if clearData {
		fmt.Print("WARNING: This will delete all existing data. Type 'yes' to confirm: ")
		var confirmation string
		fmt.Scanln(&confirmation)
		if confirmation != "yes" {
			log.Info().Msg("Import cancelled")
			return
		}

		log.Info().Msg("Clearing existing data...")
		if err := clearDatabase(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to clear database")
		}
	}

	log.Info().Str("path", inputPath).Msg("Importing database")
	if err := backupService.Import(ctx, inputPath); err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	log.Info().Msg("Import complete")
}

func clearDatabase(ctx context.Context, db *database.DB) error {
	// Delete in reverse order of dependencies
	tables := []string{
		"settings",
		"feedback",
		"global_subscriptions",
		"daily_watch_time",
		"voice_recordings",
		"video_kids",
		"videos",
		"folders",
		"kids",
		"accounts",
	}

	return db.InTx(ctx, func(tx *database.Tx) error {
		for _, table := range tables {
			query := fmt.Sprintf("DELETE FROM %s", table)
			if _, err := tx.ExecContext(ctx, query); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			log.Info().Str("table", table).Msg("Cleared table")
		}
		return nil
	})
}

func printUsage() {
	fmt.Println("Kids Video Hub Database Backup Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export [options]    Export database to JSON file")
	fmt.Println("  backup import [options]    Import database from JSON file")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>    Output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>     Input file path (required)")
	fmt.Println("  -clear            Clear existing data before import (WARNING: destructive)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Export database")
	fmt.Println("  backup export")
	fmt.Println("  backup export -output mybackup.json")
	fmt.Println()
	fmt.Println("  # Import database (merge with existing data)")
	fmt.Println("  backup import -input backup.json")
	fmt.Println()
	fmt.Println("  # Import database (replace all data)")
	fmt.Println("  backup import -input backup.json -clear")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./kidsvideohub.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
