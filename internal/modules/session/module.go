package session

import (
	"github.com/redis/go-redis/v9"
	fileapp "github.com/saransh1220/qrdrop/internal/modules/filestorage/application"
	"github.com/saransh1220/qrdrop/internal/modules/session/application"
	"github.com/saransh1220/qrdrop/internal/modules/session/domain"
	"github.com/saransh1220/qrdrop/internal/modules/session/infrastructure/archive"
	"github.com/saransh1220/qrdrop/internal/modules/session/infrastructure/cache"
	"github.com/saransh1220/qrdrop/internal/modules/session/infrastructure/thumbnail"
	sessionHttp "github.com/saransh1220/qrdrop/internal/modules/session/interfaces/http"
	"github.com/saransh1220/qrdrop/internal/shared/infrastructure/config"
)

// Module represents the Session module
type Module struct {
	registry domain.SessionRegistry
	service  *application.SessionService
	handler  *sessionHttp.SessionHandler
}

// NewModule wires the session service on top of a registry, the content store and the realtime hub.
// redisClient may be nil, in which case file listings are not cached.
func NewModule(
	registry domain.SessionRegistry,
	fileService *fileapp.FileService,
	events application.EventPublisher,
	viewers sessionHttp.ViewerCounter,
	redisClient *redis.Client,
	cfg config.Config,
) *Module {
	opts := application.Options{MaxFiles: cfg.Upload.MaxFiles}
	if redisClient != nil {
		opts.Cache = cache.NewFileListCache(redisClient, cfg.Cache.TTL)
	}

	service := application.NewSessionService(
		registry,
		fileService,
		events,
		archive.NewBuilder(fileService),
		thumbnail.NewGenerator(fileService),
		opts,
	)
	handler := sessionHttp.NewSessionHandler(service, viewers, sessionHttp.Config{
		Port:          cfg.Server.Port,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		MemoryLimit:   cfg.Upload.MemoryLimit,
	})

	return &Module{
		registry: registry,
		service:  service,
		handler:  handler,
	}
}

func (m *Module) Registry() domain.SessionRegistry {
	return m.registry
}

func (m *Module) Service() *application.SessionService {
	return m.service
}

// HTTPHandler returns the HTTP handler
func (m *Module) HTTPHandler() *sessionHttp.SessionHandler {
	return m.handler
}
