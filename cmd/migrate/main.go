package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/modulbox/leadform-backend/internal/config"
	"github.com/modulbox/leadform-backend/internal/domain"
	"github.com/modulbox/leadform-backend/internal/repository"
	"github.com/modulbox/leadform-backend/internal/service"
	pkgstorage "github.com/modulbox/leadform-backend/pkg/storage"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	configPath := flag.String("config", "configs/config.local.yaml", "config file path")
	dryRun := flag.Bool("dry-run", false, "list the tables that would be migrated without executing")
	sweep := flag.Bool("sweep", false, "delete expired drafts and their staged images after migrating")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	config.LoadDotEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	models := []interface{}{&domain.Draft{}, &domain.DraftSlot{}, &domain.Lead{}, &domain.LeadImage{}}
	if *dryRun {
		for _, m := range models {
			log.Printf("[dry-run] Would migrate: %s", m.(interface{ TableName() string }).TableName())
		}
		return
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	start := time.Now()
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("[migrate] FAILED: %v", err)
	}
	log.Printf("[migrate] Completed in %v", time.Since(start))

	if !*sweep {
		return
	}

	staging, err := pkgstorage.NewLocalStorage(cfg.Storage.StagingPath, "")
	if err != nil {
		log.Fatalf("Failed to open staging storage: %v", err)
	}
	drafts := service.NewDraftService(repository.NewDraftRepository(db), staging,
		budget.NewCompressor(nil), service.NewDraftQueue(), cfg.Intake.DraftTTL)

	n, err := drafts.SweepExpired(context.Background())
	if err != nil {
		log.Fatalf("[sweep] FAILED after %d drafts: %v", n, err)
	}
	log.Printf("[sweep] Deleted %d expired drafts", n)
}
