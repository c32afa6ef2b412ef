// Command issue-token выпускает bearer-токен портала для локальной разработки.
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/issue-token -email coach@example.com
//	CONFIG_PATH=config/local.yaml go run ./cmd/issue-token -email ana@mail.io -client c1
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/magabrotheeeer/coach-portal/internal/config"
	"github.com/magabrotheeeer/coach-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/coach-portal/internal/lib/sl"
)

func main() {
	email := flag.String("email", "", "адрес пользователя")
	clientID := flag.String("client", "", "id клиента; пусто для тренера")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *email == "" {
		logger.Error("email is required")
		os.Exit(2)
	}

	cfg := config.MustLoad()
	token, err := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL).GenerateToken(*email, *clientID)
	if err != nil {
		logger.Error("failed to generate token", sl.Err(err))
		os.Exit(1)
	}
	fmt.Println(token)
}
