package http

import (
	natsadapter "github.com/samirrijal/zonebuf/internal/adapters/nats"
	"github.com/samirrijal/zonebuf/internal/adapters/postgres"
	"github.com/samirrijal/zonebuf/internal/adapters/valkey"
	"github.com/samirrijal/zonebuf/internal/core/ports"
	"github.com/samirrijal/zonebuf/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers. Only the pipeline stages are
// required; the rest are nil when not configured.
type Dependencies struct {
	Reducer    *usecases.ChainReducer
	Selector   *usecases.BoundarySelector
	Policy     usecases.LabelPolicy
	Builder    *usecases.BufferBuilder
	NameFields []string

	Chains     *usecases.ChainCache
	Publisher  ports.Publisher      // receives every zone built through the API
	Boundaries ports.BoundarySource // stored boundaries
	Events     CompletionFeed       // completed zones for /v1/zones/ws

	DB    *postgres.DB
	NATS  *natsadapter.Publisher
	Cache *valkey.Cache
}
