package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

// ErrNotFound is returned when no row matches the requested id.
var ErrNotFound = errors.New("record not found")

// TodoRepository defines the interface for todo data operations.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) error
	FindByID(ctx context.Context, id uint) (*domain.Todo, error)
	// List returns every todo, newest first.
	List(ctx context.Context) ([]domain.Todo, error)
	// Update writes only the given columns and refreshes updated_at, then
	// reloads todo from the row.
	Update(ctx context.Context, todo *domain.Todo, changes map[string]any) error
	Delete(ctx context.Context, id uint) error
}

// gormTodoRepository implements TodoRepository using GORM.
type gormTodoRepository struct {
	db *gorm.DB
}

// NewGormTodoRepository creates a new GORM todo repository
func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

// Create inserts todo. GORM fills in the ID and timestamps.
func (r *gormTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(todo).Error
	})
}

func (r *gormTodoRepository) FindByID(ctx context.Context, id uint) (*domain.Todo, error) {
	var todo domain.Todo
	err := r.db.WithContext(ctx).First(&todo, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *gormTodoRepository) List(ctx context.Context) ([]domain.Todo, error) {
	todos := make([]domain.Todo, 0)
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&todos).Error
	if err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *gormTodoRepository) Update(ctx context.Context, todo *domain.Todo, changes map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assignments := make(map[string]any, len(changes)+1)
		for column, value := range changes {
			assignments[column] = value
		}
		assignments["updated_at"] = tx.NowFunc()

		result := tx.Model(&domain.Todo{}).Where("id = ?", todo.ID).Updates(assignments)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.First(todo, todo.ID).Error
	})
}

// Delete permanently removes the row; there is no soft delete.
func (r *gormTodoRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&domain.Todo{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
