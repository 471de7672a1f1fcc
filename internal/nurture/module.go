// Package nurture provides the lead nurture sequencing bounded context.
// This file defines the module that encapsulates setup and route registration.
package nurture

import (
	"outreach_backend/internal/events"
	"outreach_backend/internal/nurture/handler"
	"outreach_backend/internal/nurture/repository"
	"outreach_backend/internal/nurture/service"
	"outreach_backend/platform/config"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the nurture bounded context module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the nurture module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg *config.Config, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "nurture"
}

// Service returns the run engine for non-HTTP callers (scheduler, CLI).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the shared data access layer.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts the nurture routes on the authenticated API group.
func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/nurture")
	group.POST("/run", httpkit.RequireRole("admin"), m.handler.Run)
}
