package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Tomlord1122/todo-api/internal/config"
	"github.com/Tomlord1122/todo-api/internal/database"
	"github.com/Tomlord1122/todo-api/internal/service"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

type Server struct {
	cfg          *config.Config
	todoService  service.TodoService
	db           database.Service
	logger       *log.Logger
	createSchema *jsonschema.Schema
	updateSchema *jsonschema.Schema
}

// NewServer wires the handlers and middleware into an *http.Server listening
// on the configured port.
func NewServer(cfg *config.Config, todoService service.TodoService, dbService database.Service, logger *log.Logger) *http.Server {
	appServer := &Server{
		cfg:          cfg,
		todoService:  todoService,
		db:           dbService,
		logger:       logger,
		createSchema: compileTodoSchema(true),
		updateSchema: compileTodoSchema(false),
	}

	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  cfg.Server.IdleTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
	}
}
