package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/bookshop/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

var ErrBookNotFound = errors.New("book not found")

// Repository serves the catalog feed from a sqlite books table.
// Only listed books are part of the feed.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

const selectBooks = `
	SELECT id, categories, name, author, series, sequence, genre, in_stock, price, pages
	FROM books
`

// Fetch returns the listed books in insertion order.
func (r *Repository) Fetch(ctx context.Context) ([]domain.BookRaw, error) {
	rows, err := r.db.QueryContext(ctx, selectBooks+` WHERE listed = 1 ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	books := []domain.BookRaw{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return books, nil
}

// GetBook finds a book whether it is listed or not.
func (r *Repository) GetBook(ctx context.Context, id string) (domain.BookRaw, error) {
	row := r.db.QueryRowContext(ctx, selectBooks+` WHERE id = ?`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BookRaw{}, ErrBookNotFound
	}
	return b, err
}

// SetListed adds a book to the feed or takes it out.
func (r *Repository) SetListed(ctx context.Context, id string, listed bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE books SET listed = ? WHERE id = ?`, listed, id)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(s scanner) (domain.BookRaw, error) {
	var (
		b          domain.BookRaw
		categories string
	)
	err := s.Scan(
		&b.ID,
		&categories,
		&b.Name,
		&b.Author,
		&b.Series,
		&b.Sequence,
		&b.Genre,
		&b.InStock,
		&b.Price,
		&b.Pages,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return b, err
	}
	if err != nil {
		return b, fmt.Errorf("failed to scan book: %w", err)
	}

	if categories != "" {
		b.Cat = strings.Split(categories, ",")
	}
	return b, nil
}
