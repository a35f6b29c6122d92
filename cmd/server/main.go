package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"eshop/internal/api"
	"eshop/internal/auth"
	"eshop/internal/config"
	"eshop/internal/mail"
	"eshop/internal/model"
	"eshop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}

	hasher := auth.NewHasher(cfg.BcryptCost)

	if repo != nil {
		if err := model.SeedAdminUser(context.Background(), repo, hasher, cfg); err != nil {
			logrus.WithError(err).Warn("failed to seed admin account")
		}
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTExpirationMinutes)*time.Minute)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise token manager")
		return
	}

	mailer := mail.NewMailer(cfg)
	users := service.NewUserService(repo, hasher, tokens, mailer)

	gin.SetMode(gin.ReleaseMode)
	httpHandler := api.NewHTTPHandler(cfg, repo, tokens, users)
	router := httpHandler.Router()

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logger.WithField("host", serverHost).Info("server starting")
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("server failed")
	}
}
