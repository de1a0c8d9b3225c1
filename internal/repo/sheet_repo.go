package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/spreadsheet"
)

// uniqueViolation — SQLSTATE нарушения уникальности.
const uniqueViolation = "23505"

// schema — таблица sheets. Документ хранится в JSONB в том же формате,
// что и файл таблицы.
const schema = `
	CREATE TABLE IF NOT EXISTS sheets (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		document   JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// SheetRepo — репозиторий таблиц.
type SheetRepo struct {
	pool *pgxpool.Pool
}

// NewSheetRepo создаёт SheetRepo.
func NewSheetRepo(pool *pgxpool.Pool) *SheetRepo {
	return &SheetRepo{pool: pool}
}

// EnsureSchema создаёт таблицу sheets, если её нет.
func (r *SheetRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure sheets schema: %w", err)
	}
	return nil
}

// Create сохраняет новую таблицу.
func (r *SheetRepo) Create(ctx context.Context, sheet *domain.Sheet) error {
	doc, err := json.Marshal(sheet.Document)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO sheets (id, name, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, sheet.ID, sheet.Name, doc, sheet.CreatedAt, sheet.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert sheet: %w", err)
	}
	return nil
}

// GetByID возвращает таблицу по ID.
func (r *SheetRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sheet, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, document, created_at, updated_at
		FROM sheets
		WHERE id = $1
	`, id)

	sheet, err := scanSheet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sheet by id: %w", err)
	}
	return sheet, nil
}

// List возвращает все таблицы, новые первыми.
func (r *SheetRepo) List(ctx context.Context) ([]domain.Sheet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, document, created_at, updated_at
		FROM sheets
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	defer rows.Close()

	var sheets []domain.Sheet
	for rows.Next() {
		sheet, err := scanSheet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sheet: %w", err)
		}
		sheets = append(sheets, *sheet)
	}
	return sheets, rows.Err()
}

// UpdateDocument заменяет документ таблицы и обновляет sheet.UpdatedAt.
func (r *SheetRepo) UpdateDocument(ctx context.Context, sheet *domain.Sheet) error {
	doc, err := json.Marshal(sheet.Document)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		UPDATE sheets
		SET document = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, sheet.ID, doc).Scan(&sheet.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update sheet document: %w", err)
	}
	return nil
}

// Delete удаляет таблицу.
func (r *SheetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM sheets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sheet: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanSheet читает строку sheets. Документ проверяется тем же
// разбором, что и файл таблицы.
func scanSheet(row pgx.Row) (*domain.Sheet, error) {
	var sheet domain.Sheet
	var doc []byte
	if err := row.Scan(&sheet.ID, &sheet.Name, &doc, &sheet.CreatedAt, &sheet.UpdatedAt); err != nil {
		return nil, err
	}

	parsed, err := spreadsheet.DecodeDocument(doc)
	if err != nil {
		return nil, err
	}
	sheet.Document = parsed
	return &sheet, nil
}
