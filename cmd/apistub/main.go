package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/fieldforce/punchkit-go/internal/config"
	appHTTP "github.com/fieldforce/punchkit-go/internal/handler/http"
	"github.com/fieldforce/punchkit-go/internal/pkg/jwt"
	"github.com/fieldforce/punchkit-go/internal/stub"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	store, err := stub.NewStore(cfg.Stub.DBPath)
	if err != nil {
		log.Fatal("Failed to open stub database: ", err)
	}
	defer store.Close()

	if err := store.Seed(context.Background()); err != nil {
		log.Fatal("Failed to seed stub database: ", err)
	}

	jwtService := jwt.NewJWTService(cfg.Stub.JWTSecret, "24h")

	router := appHTTP.NewRouter(jwtService,
		appHTTP.NewAuthHandler(store, jwtService),
		appHTTP.NewFirmHandler(store),
		appHTTP.NewPunchHandler(store),
		appHTTP.NewUserHandler(store),
	)

	addr := fmt.Sprintf(":%d", cfg.Stub.Port)
	fmt.Println("Stub API listening on", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal("Server failed: ", err)
	}
}
