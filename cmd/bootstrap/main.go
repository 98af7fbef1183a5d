package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"jalrakshak-ai-api/internal/config"
	"jalrakshak-ai-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting schema bootstrap...")

	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. 初始化数据库
	client, cleanup, err := wire.InitializeDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer cleanup()

	// 3. 同步表结构
	fmt.Printf("Migrating schema (driver: %s)...\n", client.Driver())
	if err := client.AutoMigrate(ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	fmt.Println("Bootstrap completed successfully.")
}
