package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"opschecklist/internal/db"
	"opschecklist/internal/domain"
	"opschecklist/internal/repository"
	"opschecklist/internal/service"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	ur := repository.NewUserRepository(pool)
	ctx := context.Background()

	admin, err := ur.ListAdmins(ctx)
	if err != nil || len(admin) == 0 {
		log.Fatalf("need at least one admin user: %v", err)
	}

	service.InitJWT()
	token, err := service.GenerateJWT(admin[0].ID, domain.RoleAdmin)
	if err != nil {
		log.Fatalf("gen token: %v", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s&collection=checklists", port, token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// wait for ready
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		log.Fatalf("read ready: %v", err)
	}
	var obj map[string]any
	_ = json.Unmarshal(msg, &obj)
	if t, ok := obj["type"].(string); !ok || t != "ready" {
		log.Fatalf("expected ready, got: %s", string(msg))
	}

	// write a row directly so the triggers fire
	cr := repository.NewChecklistRepository(pool)
	dr := repository.NewDepartmentRepository(pool)
	dept := &domain.Department{Name: fmt.Sprintf("smoke-%d", time.Now().Unix())}
	if err := dr.Create(ctx, dept); err != nil {
		log.Fatalf("create department: %v", err)
	}
	cl := &domain.Checklist{Title: "smoke checklist", DepartmentID: dept.ID, CreatedBy: admin[0].ID}
	if err := cr.Create(ctx, cl); err != nil {
		log.Fatalf("create checklist: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err = conn.ReadMessage()
	if err != nil {
		log.Fatalf("read change: %v", err)
	}
	log.Printf("got: %s", string(msg))

	if err := cr.Delete(ctx, cl.ID); err != nil {
		log.Printf("cleanup checklist: %v", err)
	}
	if err := dr.Delete(ctx, dept.ID); err != nil {
		log.Printf("cleanup department: %v", err)
	}

	log.Println("smoke test finished")
}
