package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"ms-booking/internal/auth"
	"ms-booking/internal/config"
	"ms-booking/internal/database"
	"ms-booking/internal/database/migrations"
	eventdb "ms-booking/internal/events/db"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	userdb "ms-booking/internal/users/db"
	"ms-booking/internal/utils"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

const usage = `usage: migrate [flags] <command>

commands:
  up            apply all pending migrations
  down          roll back every migration
  to <version>  migrate up or down to version
  version       print the current schema version
  seed          create an admin user and a sample event
`

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dsn := flag.String("dsn", cfg.Database.DSN, "database DSN")
	dir := flag.String("dir", cfg.Database.MigrationsDir, "migrations directory")
	adminUser := flag.String("admin-user", "admin", "seed: admin username")
	adminPass := flag.String("admin-pass", "", "seed: admin password (required)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	log := logger.NewWriterLogger(os.Stdout)
	ctx := context.Background()

	cfg.Database.DSN = *dsn
	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.Options{Dir: *dir}, log)

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = runner.Up()
	case "down":
		err = runner.Down()
	case "to":
		var version uint64
		version, err = strconv.ParseUint(flag.Arg(1), 10, 32)
		if err == nil {
			err = runner.To(uint(version))
		}
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = runner.Version()
		if err == nil {
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		}
	case "seed":
		err = seed(ctx, bunDB, database.IsSQLite(*dsn), *adminUser, *adminPass)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", fmt.Sprintf("%s done", flag.Arg(0)))
}

func seed(ctx context.Context, bunDB *bun.DB, sqlite bool, username, password string) error {
	if password == "" {
		return fmt.Errorf("seed requires -admin-pass")
	}
	if sqlite {
		if err := database.CreateSchema(ctx, bunDB); err != nil {
			return err
		}
	}

	users := &userdb.DB{Bun: bunDB}
	exists, err := users.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		admin := &models.User{
			ID:           utils.GenerateID(),
			Username:     username,
			PasswordHash: hash,
			IsAdmin:      true,
			CreatedAt:    time.Now().UTC(),
		}
		if err := users.CreateUser(ctx, admin); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
	}

	now := time.Now().UTC()
	event := &models.Event{
		ID:               utils.GenerateID(),
		Title:            "Summer Fest",
		Description:      "Annual summer music festival.",
		Date:             now.AddDate(0, 1, 0),
		Venue:            "City Park",
		TotalTickets:     100,
		AvailableTickets: 100,
		Price:            25,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return (&eventdb.DB{Bun: bunDB}).CreateEvent(ctx, event)
}
