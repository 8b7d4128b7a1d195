package bootstrap

import (
	"regis_chat_backend/config"
	"regis_chat_backend/handlers"
)

// Handlers leaves WSHandler and AdminHandler nil when their backing
// infrastructure or token is missing; routes are registered accordingly.
type Handlers struct {
	ChatHandler   *handlers.ChatHandler
	DocHandler    *handlers.DocHandler
	HealthHandler *handlers.HealthHandler
	WSHandler     *handlers.WSHandler
	AdminHandler  *handlers.AdminHandler
}

func NewHandlers(cfg *config.Config, services *Services, infra *Infrastructure, repos *Repositories) *Handlers {
	res := &Handlers{}
	res.ChatHandler = handlers.NewChatHandler(services.ChatService, services.Registry)
	res.DocHandler = handlers.NewDocHandler(services.DocService)
	res.HealthHandler = handlers.NewHealthHandler(readinessChecks(infra))
	if infra.EventPublisher != nil {
		res.WSHandler = handlers.NewWSHandler(infra.EventPublisher)
	}
	if cfg.AdminToken != "" {
		res.AdminHandler = handlers.NewAdminHandler(cfg.AdminToken, infra.Queue, eventPublisher(infra), repos.ChatLogRepository)
	}
	return res
}

// typed nils must not end up in the map
func readinessChecks(infra *Infrastructure) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{}
	if infra.Vectors != nil {
		checks["qdrant"] = infra.Vectors
	}
	if infra.DB != nil {
		checks["postgres"] = infra.DB
	}
	if infra.Redis != nil {
		checks["redis"] = infra.Redis
	}
	return checks
}
