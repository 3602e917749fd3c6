package main

import (
	"log"
	"time"

	v1 "droq_registry/api/v1"
	"droq_registry/internal/cache"
	"droq_registry/internal/config"
	"droq_registry/internal/db"
	"droq_registry/internal/descriptor"
	"droq_registry/internal/query"
	"droq_registry/internal/reconcile"
	"droq_registry/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("✓ Configuration loaded")

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	entry := logrus.NewEntry(logger)

	// 2. Open the registry database
	gdb, err := db.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 3. Optional Redis read cache
	var rc *cache.Cache
	if cfg.Redis.Addr != "" {
		rc, err = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.CacheTTLSec)*time.Second)
		if err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
		defer rc.Close()
		log.Println("✓ Redis connected successfully")
	}

	st := store.New(gdb)
	reconciler := reconcile.New(&reconcile.Config{
		Source: descriptor.NewDirSource(cfg.NodesDir, entry),
		Store:  st,
		Cache:  rc,
		Logger: entry,
	})

	// 4. Populate the store before accepting any read traffic
	report, err := reconciler.Run()
	if err != nil {
		log.Fatalf("Failed to reconcile node descriptors: %v", err)
	}
	log.Printf("✓ Reconciliation complete: %d applied, %d skipped, %d conflicts, %d failed",
		len(report.Applied), len(report.Skipped), len(report.Conflicts), len(report.Failed))

	// 5. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	v1.SetupRouter(r, query.New(st, rc, entry), reconciler)

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)

	// Start server
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
