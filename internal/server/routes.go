package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Tomlord1122/todo-api/internal/logging"
	"github.com/Tomlord1122/todo-api/internal/service"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(s.logger))
	r.Use(s.recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           s.cfg.CORS.MaxAge,
	}))
	r.Use(s.rateLimiters()...)

	// Set before mounting so sub-routers inherit them.
	r.NotFound(s.notFoundHandler)
	r.MethodNotAllowed(s.methodNotAllowedHandler)

	r.Get("/", s.indexHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.healthHandler)

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", s.listTodosHandler)
			r.With(s.writeGuards()...).Post("/", s.createTodoHandler)

			r.Route("/{id:[0-9]+}", func(r chi.Router) {
				r.Get("/", s.getTodoHandler)
				r.With(s.writeGuards()...).Put("/", s.updateTodoHandler)
				r.Delete("/", s.deleteTodoHandler)
			})
		})
	})

	return r
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]any{
		"message": "Todo API",
		"version": Version,
		"endpoints": map[string]string{
			"health": "/api/health",
			"todos":  "/api/todos",
		},
	})
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithError(w, http.StatusNotFound, "Resource not found")
}

func (s *Server) methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Server.HealthTimeout)
	defer cancel()

	if err := s.probeDatabase(ctx); err != nil {
		s.requestLogger(r).Warn("health check failed", "err", err)
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		})
		return
	}

	stats := s.db.Stats()
	s.requestLogger(r).Debug("health check ok", "open", stats.OpenConnections, "in_use", stats.InUse, "idle", stats.Idle)
	s.respondWithJSON(w, http.StatusOK, healthResponse{Status: "healthy", Database: "connected"})
}

// probeDatabase reports a panicking probe as an ordinary failure so the
// health endpoint always answers with its own payload.
func (s *Server) probeDatabase(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("health probe panicked: %v", rec)
		}
	}()
	return s.db.Health(ctx)
}

func (s *Server) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	todos, err := s.todoService.GetAllTodos(r.Context())
	if err != nil {
		s.requestLogger(r).Error("list todos", "err", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve todos")
		return
	}

	count := len(todos)
	s.respondWithJSON(w, http.StatusOK, envelope{Success: true, Count: &count, Data: todos})
}

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTodoRequest
	if err := decodeJSON(w, r, s.createSchema, &req); err != nil {
		if errors.Is(err, errEmptyBody) {
			s.respondWithError(w, http.StatusBadRequest, "Title is required")
			return
		}
		s.respondWithRequestError(w, err)
		return
	}

	todo, err := s.todoService.CreateTodo(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrTitleRequired) {
			s.respondWithError(w, http.StatusBadRequest, "Title is required")
			return
		}
		s.requestLogger(r).Error("create todo", "err", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to create todo")
		return
	}

	s.respondWithJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    todo,
		Message: "Todo created successfully",
	})
}

func (s *Server) getTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(r)
	if !ok {
		s.notFoundHandler(w, r)
		return
	}

	todo, err := s.todoService.GetTodoByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTodoNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Todo not found")
			return
		}
		s.requestLogger(r).Error("get todo", "id", id, "err", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to retrieve todo")
		return
	}

	s.respondWithJSON(w, http.StatusOK, envelope{Success: true, Data: todo})
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(r)
	if !ok {
		s.notFoundHandler(w, r)
		return
	}

	var req service.UpdateTodoRequest
	if err := decodeJSON(w, r, s.updateSchema, &req); err != nil {
		s.respondWithRequestError(w, err)
		return
	}

	todo, err := s.todoService.UpdateTodo(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTodoNotFound):
			s.respondWithError(w, http.StatusNotFound, "Todo not found")
		case errors.Is(err, service.ErrTitleEmpty):
			s.respondWithError(w, http.StatusBadRequest, "Title cannot be empty")
		default:
			s.requestLogger(r).Error("update todo", "id", id, "err", err)
			s.respondWithError(w, http.StatusInternalServerError, "Failed to update todo")
		}
		return
	}

	s.respondWithJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    todo,
		Message: "Todo updated successfully",
	})
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(r)
	if !ok {
		s.notFoundHandler(w, r)
		return
	}

	if err := s.todoService.DeleteTodo(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrTodoNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Todo not found")
			return
		}
		s.requestLogger(r).Error("delete todo", "id", id, "err", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to delete todo")
		return
	}

	s.respondWithJSON(w, http.StatusOK, envelope{Success: true, Message: "Todo deleted successfully"})
}

// todoID parses the {id} URL parameter. The route pattern already restricts
// it to digits; anything beyond a signed 64-bit primary key is treated as
// unmatched, since Postgres cannot bind it as a bigint.
func todoID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 63)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func (s *Server) respondWithRequestError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		s.respondWithError(w, reqErr.status, reqErr.msg)
		return
	}
	s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
}
