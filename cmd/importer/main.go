package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/importer"
	"storefront/internal/logging"
	"storefront/internal/repository/category"
	"storefront/internal/repository/product"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to storefront catalog JSON export")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New("importer", cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString, 2)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	var products importer.ProductWriter = product.NewPostgres(pool, logger)
	if cfg.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		products = product.NewInvalidatingWriter(products, product.NewRedisCache(rdb), logger)
	}

	imp := importer.NewJSONImporter(f, category.NewPostgres(pool), products)

	start := time.Now()
	summary, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d products: %v", summary.Products, err)
	}

	fmt.Printf("Imported %d categories and %d products in %s\n", summary.Categories, summary.Products, time.Since(start).Truncate(time.Millisecond))
}
