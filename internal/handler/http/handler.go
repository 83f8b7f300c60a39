package http

import (
	"github.com/go-playground/validator/v10"

	"github.com/gramseva/idverify/internal/config"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/service"
)

type Handler struct {
	services *service.Services
	validate *validator.Validate
	cfg      config.Server

	logger *logger.Logger
}

func NewHandler(services *service.Services, cfg config.Server, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		validate: validator.New(),
		cfg:      cfg,
		logger:   logger,
	}
}
