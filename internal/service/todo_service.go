package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/repository"
)

var (
	// ErrTitleRequired rejects a create request without a usable title.
	ErrTitleRequired = errors.New("title is required")
	// ErrTitleEmpty rejects an update that would blank the title.
	ErrTitleEmpty = errors.New("title cannot be empty")
	// ErrTodoNotFound is returned when the referenced todo does not exist.
	ErrTodoNotFound = errors.New("todo not found")
)

// CreateTodoRequest holds the data needed to create a new todo.
// Title is required; the pointer fields are optional and default to an
// empty description and an open todo.
type CreateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// UpdateTodoRequest holds the data for updating an existing todo.
// A nil field was omitted by the caller and is left unchanged.
type UpdateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// TodoResponse is the wire representation of a Todo.
type TodoResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// NewTodoResponse serializes todo with ISO-8601 UTC timestamps.
func NewTodoResponse(todo *domain.Todo) TodoResponse {
	return TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		CreatedAt:   todo.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   todo.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// TodoService defines the operations for managing todos.
type TodoService interface {
	CreateTodo(ctx context.Context, req CreateTodoRequest) (*TodoResponse, error)
	GetTodoByID(ctx context.Context, id uint) (*TodoResponse, error)
	// GetAllTodos returns every todo, newest first.
	GetAllTodos(ctx context.Context) ([]TodoResponse, error)
	UpdateTodo(ctx context.Context, id uint, req UpdateTodoRequest) (*TodoResponse, error)
	DeleteTodo(ctx context.Context, id uint) error
}

type todoService struct {
	repo repository.TodoRepository
}

// NewTodoService creates a TodoService backed by repo.
func NewTodoService(repo repository.TodoRepository) TodoService {
	return &todoService{repo: repo}
}

func (s *todoService) CreateTodo(ctx context.Context, req CreateTodoRequest) (*TodoResponse, error) {
	if req.Title == nil {
		return nil, ErrTitleRequired
	}
	title := strings.TrimSpace(*req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	todo := &domain.Todo{Title: title}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}

	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}

	resp := NewTodoResponse(todo)
	return &resp, nil
}

func (s *todoService) GetTodoByID(ctx context.Context, id uint) (*TodoResponse, error) {
	todo, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := NewTodoResponse(todo)
	return &resp, nil
}

func (s *todoService) GetAllTodos(ctx context.Context) ([]TodoResponse, error) {
	todos, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	responses := make([]TodoResponse, 0, len(todos))
	for i := range todos {
		responses = append(responses, NewTodoResponse(&todos[i]))
	}
	return responses, nil
}

func (s *todoService) UpdateTodo(ctx context.Context, id uint, req UpdateTodoRequest) (*TodoResponse, error) {
	todo, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]any, 3)
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		changes["title"] = title
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.Completed != nil {
		changes["completed"] = *req.Completed
	}

	if err := s.repo.Update(ctx, todo, changes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted between the lookup and the write.
			return nil, fmt.Errorf("todo %d: %w", id, ErrTodoNotFound)
		}
		return nil, fmt.Errorf("update todo %d: %w", id, err)
	}

	resp := NewTodoResponse(todo)
	return &resp, nil
}

func (s *todoService) DeleteTodo(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("todo %d: %w", id, ErrTodoNotFound)
		}
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	return nil
}

func (s *todoService) find(ctx context.Context, id uint) (*domain.Todo, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("todo %d: %w", id, ErrTodoNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find todo %d: %w", id, err)
	}
	return todo, nil
}
