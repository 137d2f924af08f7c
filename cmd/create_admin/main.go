package main

import (
	"context"
	"log"
	"os"

	"opschecklist/internal/db"
	"opschecklist/internal/domain"
	"opschecklist/internal/repository"
	"opschecklist/internal/service"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	// expects DATABASE_URL env var
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}
	name := os.Getenv("ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	repo := repository.NewUserRepository(pool)
	ctx := context.Background()

	// try to find existing user
	existing, _, err := repo.GetByEmail(ctx, email)
	var u *domain.User
	if err == nil {
		u = existing
		log.Printf("user already exists id=%d\n", u.ID)
	} else {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password failed: %v", err)
		}

		u = &domain.User{
			Email:    email,
			FullName: name,
			Role:     domain.RoleAdmin,
		}

		if err := repo.Create(ctx, u, string(hash)); err != nil {
			log.Fatalf("create user failed: %v", err)
		}

		log.Printf("admin created id=%d\n", u.ID)
	}

	// initialize JWT and print token
	service.InitJWT()
	token, err := service.GenerateJWT(u.ID, u.Role)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}
