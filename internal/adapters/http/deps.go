package http

import (
	"github.com/nats-io/nats.go"

	"github.com/mapleads/api/internal/adapters/postgres"
	"github.com/mapleads/api/internal/adapters/valkey"
	"github.com/mapleads/api/internal/core/ports"
	"github.com/mapleads/api/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Search     *usecases.SearchService
	Businesses *usecases.BusinessService
	History    *usecases.HistoryService
	Auth       ports.AuthorizationPolicy
	NATS       *nats.Conn
	DB         *postgres.DB
	Cache      *valkey.Cache
}
