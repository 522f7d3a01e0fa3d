package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/shinyyama/motors-backend/internal/config"
	"github.com/shinyyama/motors-backend/internal/db"
	"github.com/shinyyama/motors-backend/internal/model"
	"github.com/shinyyama/motors-backend/internal/repository"
)

type seedListing struct {
	Brand  string
	Model  string
	Year   int
	Price  float64
	Miles  int
	City   string
	Status model.Status
}

func main() {
	zlog.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := run(); err != nil {
		zlog.Fatal().Err(err).Msg("seed failed")
	}
}

func run() error {
	ctx := zlog.Logger.WithContext(context.Background())
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	seeded, err := repository.NewPackageRepository(gdb).SeedIfEmpty(ctx, model.DefaultPackages())
	if err != nil {
		return fmt.Errorf("seed packages: %w", err)
	}
	zlog.Info().Bool("seeded", seeded).Msg("promotion packages")

	listings := repository.NewListingRepository(gdb)
	owner := strings.TrimSpace(os.Getenv("SEED_OWNER_EMAIL"))
	if owner == "" {
		owner = "seller@example.com"
	}
	existing, err := listings.ListByOwner(ctx, "seed-"+owner)
	if err != nil {
		return fmt.Errorf("count sample listings: %w", err)
	}
	if len(existing) > 0 && !strings.EqualFold(os.Getenv("FORCE_SEED"), "true") {
		zlog.Info().Int("existing", len(existing)).Msg("sample listings already exist; skipping (set FORCE_SEED=true to override)")
		return nil
	}

	for idx, s := range buildSeedListings() {
		l := &model.Listing{
			UserID:    "seed-" + owner,
			UserEmail: owner,
			Brand:     s.Brand,
			Model:     s.Model,
			Year:      s.Year,
			Price:     s.Price,
			Mileage:   s.Miles,
			Condition: "used",
			City:      s.City,
			Images:    []string{picsumURL(s.Brand, idx+1)},
			Features:  []string{},
			Status:    string(s.Status),
		}
		if err := listings.Create(ctx, l); err != nil {
			return fmt.Errorf("insert listing %s %s: %w", s.Brand, s.Model, err)
		}
	}
	zlog.Info().Int("count", len(buildSeedListings())).Str("owner", owner).Msg("seeded sample listings")
	return nil
}

func buildSeedListings() []seedListing {
	return []seedListing{
		{Brand: "Toyota", Model: "Camry", Year: 2020, Price: 21000, Miles: 64000, City: "الرياض", Status: model.StatusApproved},
		{Brand: "Hyundai", Model: "Elantra", Year: 2021, Price: 16500, Miles: 38000, City: "جدة", Status: model.StatusApproved},
		{Brand: "Nissan", Model: "Patrol", Year: 2018, Price: 42000, Miles: 120000, City: "الدمام", Status: model.StatusPending},
		{Brand: "Kia", Model: "Sportage", Year: 2022, Price: 24500, Miles: 15000, City: "مكة", Status: model.StatusPending},
		{Brand: "Ford", Model: "Taurus", Year: 2017, Price: 9800, Miles: 150000, City: "الرياض", Status: model.StatusRejected},
	}
}

func picsumURL(slug string, idx int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d/800/600", strings.ToLower(slug), idx)
}
