// Command grantrole records a role assignment for an existing account in
// MySQL:
//
//	grantrole -email ops@example.com -role admin
//
// The in-memory store lives inside the server process; there, set
// ADMIN_EMAIL and ADMIN_PASSWORD for the server instead.
package main

import (
	"context"
	"flag"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/config"
	"github.com/iliyamo/turf-slot-booking/internal/database"
	"github.com/iliyamo/turf-slot-booking/internal/logging"
	"github.com/iliyamo/turf-slot-booking/internal/model"
	"github.com/iliyamo/turf-slot-booking/internal/repository"
	"github.com/iliyamo/turf-slot-booking/internal/service"
)

func main() {
	email := flag.String("email", "", "account email")
	role := flag.String("role", model.RoleAdmin, "role to grant: player, owner or admin")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	if cfg.StoreDriver != "mysql" {
		log.Fatal("grantrole works on MySQL only; with STORE_DRIVER=memory set ADMIN_EMAIL and ADMIN_PASSWORD for the server",
			zap.String("driver", cfg.StoreDriver))
	}

	db, err := database.Open(cfg.Database())
	if err != nil {
		log.Fatal("open mysql", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	u, granted, err := service.GrantRoleByEmail(ctx, repository.NewUserRepo(db), *email, *role)
	if err != nil {
		log.Fatal("grant role", zap.String("email", *email), zap.String("role", *role), zap.Error(err))
	}
	if !granted {
		log.Info("role already granted", zap.String("user_id", u.ID), zap.String("role", *role))
		return
	}
	log.Info("role granted", zap.String("user_id", u.ID), zap.String("email", u.Email), zap.String("role", *role))
}
