package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-basket/internal/auth"
	"github.com/noah-isme/backend-basket/internal/obs"
	"github.com/noah-isme/backend-basket/internal/ruleset"
	"github.com/noah-isme/backend-basket/internal/store"
)

type seedProduct struct {
	Code  string
	Name  string
	Price string
}

var products = []seedProduct{
	{"R01", "Red Widget", "32.95"},
	{"G01", "Green Widget", "24.95"},
	{"B01", "Blue Widget", "7.95"},
}

var deliveryRules = []ruleset.Definition{
	{Kind: ruleset.KindBelow, Limit: decimal.RequireFromString("50"), Cost: decimal.RequireFromString("4.95")},
	{Kind: ruleset.KindBelow, Limit: decimal.RequireFromString("90"), Cost: decimal.RequireFromString("2.95")},
}

var offers = []ruleset.Definition{
	{Kind: ruleset.KindSecondHalfPrice, Code: "R01"},
}

func main() {
	migrate := flag.Bool("migrate", true, "apply migrations before seeding")
	tokenFor := flag.String("admin-token", "", "print an admin token for this subject and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, relying on environment variables")
	}
	logger := obs.NewLogger("console", "info").With().Str("component", "seeder").Logger()

	if subject := strings.TrimSpace(*tokenFor); subject != "" {
		verifier, err := auth.NewVerifier(auth.VerifierConfig{
			Secret:   os.Getenv("ADMIN_JWT_SECRET"),
			Issuer:   strings.TrimSpace(os.Getenv("ADMIN_JWT_ISSUER")),
			Audience: strings.TrimSpace(os.Getenv("ADMIN_JWT_AUDIENCE")),
			TokenTTL: 12 * time.Hour,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise token verifier")
		}
		token, expiresAt, err := verifier.Issue(subject)
		if err != nil {
			logger.Fatal().Err(err).Msg("issue admin token")
		}
		logger.Info().Time("expires_at", expiresAt).Msg("admin token issued")
		fmt.Println(token)
		return
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	if *migrate {
		if err := store.Migrate(dbURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer func() { _ = conn.Close(context.Background()) }()

	if err := seed(ctx, conn); err != nil {
		logger.Fatal().Err(err).Msg("seed catalog")
	}
	logger.Info().Int("products", len(products)).Int("rules", len(deliveryRules)).Int("offers", len(offers)).Msg("seeding completed")
}

func seed(ctx context.Context, conn *pgx.Conn) error {
	if _, err := ruleset.BuildRules(deliveryRules); err != nil {
		return err
	}
	if _, err := ruleset.BuildOffers(offers); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		st := store.New(tx)
		for _, p := range products {
			if _, err := st.UpsertProduct(ctx, p.Code, p.Name, decimal.RequireFromString(p.Price)); err != nil {
				return fmt.Errorf("product %s: %w", p.Code, err)
			}
		}
		if err := st.ReplaceDeliveryRules(ctx, deliveryRules); err != nil {
			return err
		}
		return st.ReplaceOffers(ctx, offers)
	})
}
