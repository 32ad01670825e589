// auditctl runs the audit retention sweep as an operational command.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/auditgate/auditgate/internal/config"
	"github.com/auditgate/auditgate/internal/pkg/logger"
	"github.com/auditgate/auditgate/internal/repository"
	"github.com/auditgate/auditgate/internal/service"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report the eligible count without deleting")
	batchSize := flag.Int("batch-size", service.DefaultCleanupBatchSize, "rows to delete per transaction")
	retentionDays := flag.Int("retention-days", 0, "override the configured retention window")
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	days := cfg.Audit.RetentionDays
	if *retentionDays > 0 {
		days = *retentionDays
	}

	db, err := repository.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	cleanup := service.NewAuditCleanupService(repository.NewAuditRepo(db))
	result, err := cleanup.Cleanup(context.Background(), service.CleanupOptions{
		RetentionDays: days,
		BatchSize:     *batchSize,
		DryRun:        *dryRun,
	})
	if err != nil {
		// Partial progress stays deleted; rerunning resumes the sweep.
		log.Fatalf("Cleanup failed after deleting %d records: %v", deletedCount(result), err)
	}

	if result.DryRun {
		fmt.Printf("DRY RUN: %d audit records would be deleted (older than %d days)\n", result.Eligible, days)
		os.Exit(0)
	}
	fmt.Printf("Cleanup completed. Deleted %d audit records (older than %d days)\n", result.Deleted, days)
}

func deletedCount(result *service.CleanupResult) int64 {
	if result == nil {
		return 0
	}
	return result.Deleted
}
