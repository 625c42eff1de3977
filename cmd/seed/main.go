package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"freelance-marketplace/internal/config"
	"freelance-marketplace/internal/domain"
	"freelance-marketplace/internal/domain/model"
	pg "freelance-marketplace/internal/infra/db/postgres"
	"freelance-marketplace/internal/infra/web"
)

// Seeds demo accounts for local testing of the payment flow and prints a
// bearer token for each so curl requests can be assembled by hand.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	subscribers := pg.NewSubscriberRepo(pool)
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	seed := []struct {
		ID    string
		Email string
		Name  string
		Role  model.UserRole
	}{
		{"00000000-0000-0000-0000-000000000001", "freelancer@example.com", "Demo Freelancer", model.RoleFreelancer},
		{"00000000-0000-0000-0000-000000000002", "client@example.com", "Demo Client", model.RoleClient},
		{"00000000-0000-0000-0000-000000000003", "admin@example.com", "Demo Admin", model.RoleAdmin},
	}

	for _, s := range seed {
		if _, err := subscribers.FindByID(ctx, nil, s.ID); err == nil {
			fmt.Printf("%s already present. No changes.\n", s.Email)
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			log.Fatalf("lookup %q: %v", s.Email, err)
		} else {
			sub, err := model.NewSubscriber(s.ID, s.Email, s.Name, s.Role)
			if err != nil {
				log.Fatalf("build %q: %v", s.Email, err)
			}
			if err := subscribers.Save(ctx, nil, sub); err != nil {
				log.Fatalf("save %q: %v", s.Email, err)
			}
			fmt.Printf("seeded: %s (%s)\n", s.Email, s.Role)
		}

		token, err := auth.Mint(s.ID, s.Role)
		if err != nil {
			log.Fatalf("mint token for %q: %v", s.Email, err)
		}
		fmt.Printf("  token: %s\n", token)
	}

	fmt.Println("✅ Seeding complete.")
}
