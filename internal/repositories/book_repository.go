package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/librarium/backend/internal/models"
	"go.uber.org/zap"
)

// bookRepository implements data access for the books and categories tables
type bookRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *sql.DB, logger *zap.Logger) *bookRepository {
	return &bookRepository{
		db:     db,
		logger: logger,
	}
}

// List retrieves all active books with their category names
func (r *bookRepository) List(ctx context.Context) ([]*models.Book, error) {
	query := `
		SELECT b.id, b.title, b.isbn, b.author, b.publisher, b.publication_year,
		       b.category_id, c.name, b.total_copies, b.available_copies, b.created_at, b.updated_at
		FROM books b
		JOIN categories c ON c.id = b.category_id
		WHERE b.is_deleted = 0
		ORDER BY b.title
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list books", zap.Error(err))
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []*models.Book
	for rows.Next() {
		book := &models.Book{}
		if err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.ISBN,
			&book.Author,
			&book.Publisher,
			&book.PublicationYear,
			&book.CategoryID,
			&book.CategoryName,
			&book.TotalCopies,
			&book.AvailableCopies,
			&book.CreatedAt,
			&book.UpdatedAt,
		); err != nil {
			r.logger.Error("failed to scan book row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("failed to iterate book rows", zap.Error(err))
		return nil, fmt.Errorf("failed to iterate book rows: %w", err)
	}

	return books, nil
}

// GetByID retrieves an active book by ID with its category name
func (r *bookRepository) GetByID(ctx context.Context, bookID int) (*models.Book, error) {
	query := `
		SELECT b.title, b.isbn, b.author, b.publisher, b.publication_year,
		       b.category_id, c.name, b.total_copies, b.available_copies, b.created_at, b.updated_at
		FROM books b
		JOIN categories c ON c.id = b.category_id
		WHERE b.id = ? AND b.is_deleted = 0
		LIMIT 1
	`

	book := &models.Book{ID: bookID}
	err := r.db.QueryRowContext(ctx, query, bookID).Scan(
		&book.Title,
		&book.ISBN,
		&book.Author,
		&book.Publisher,
		&book.PublicationYear,
		&book.CategoryID,
		&book.CategoryName,
		&book.TotalCopies,
		&book.AvailableCopies,
		&book.CreatedAt,
		&book.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get book by id", zap.Error(err), zap.Int("bookId", bookID))
		return nil, fmt.Errorf("failed to get book by id: %w", err)
	}

	return book, nil
}

// ListCategories retrieves all active categories
func (r *bookRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT id, name, description FROM categories WHERE is_deleted = 0 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list categories", zap.Error(err))
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(&category.ID, &category.Name, &category.Description); err != nil {
			r.logger.Error("failed to scan category row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("failed to iterate category rows", zap.Error(err))
		return nil, fmt.Errorf("failed to iterate category rows: %w", err)
	}

	return categories, nil
}
