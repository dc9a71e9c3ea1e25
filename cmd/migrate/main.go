package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"mailadmin/backend/internal/config"
	sqlstore "mailadmin/backend/internal/storage/sql"
)

// main 执行数据库迁移。-check 只验证连接不迁移。
//
// 表结构由存储层自动迁移维护，这个工具给部署脚本一个
// 显式的迁移入口（CI 健康门、首次部署）。
func main() {
	check := flag.Bool("check", false, "只验证数据库连接")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.Type == "" {
		fmt.Fprintln(os.Stderr, "error: MAILADMIN_DATABASE_TYPE must be set")
		os.Exit(1)
	}

	if *check {
		db, err := sql.Open(cfg.Database.Type, cfg.Database.DSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			fmt.Fprintf(os.Stderr, "error: database unreachable: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("database connection OK")
		return
	}

	store, err := sqlstore.NewStore(
		cfg.Database.Type,
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: migration failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	fmt.Println("migration completed")
}
