package mysql

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"laser-offers/internal/storage"
)

func (s *Storage) GetCategories(ctx context.Context) ([]storage.OperationCategory, error) {
	const op = "storage.mysql.GetCategories"

	rows, err := s.db.QueryContext(ctx, `SELECT id, code, name FROM offer_operation_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var categories []storage.OperationCategory
	for rows.Next() {
		var c storage.OperationCategory
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		categories = append(categories, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return categories, nil
}

// GetOperationsByCategory returns the active operations of one category.
func (s *Storage) GetOperationsByCategory(ctx context.Context, categoryID string) ([]storage.Operation, error) {
	const op = "storage.mysql.GetOperationsByCategory"

	query := `
		SELECT id, category_id, code, name, seconds_per_unit, is_active
		FROM offer_operations
		WHERE category_id = ? AND is_active = TRUE
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var operations []storage.Operation
	for rows.Next() {
		var o storage.Operation
		if err := rows.Scan(&o.ID, &o.CategoryID, &o.Code, &o.Name, &o.SecondsPerUnit, &o.IsActive); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		operations = append(operations, o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return operations, nil
}

func (s *Storage) CreateOperation(ctx context.Context, o storage.Operation) (string, error) {
	const op = "storage.mysql.CreateOperation"

	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	stmt := `INSERT INTO offer_operations (id, category_id, code, name, seconds_per_unit, is_active) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt, o.ID, o.CategoryID, o.Code, o.Name, o.SecondsPerUnit, o.IsActive)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, classify(err))
	}

	return o.ID, nil
}

func (s *Storage) UpdateOperation(ctx context.Context, id string, o storage.Operation) error {
	const op = "storage.mysql.UpdateOperation"

	stmt := `UPDATE offer_operations SET category_id=?, code=?, name=?, seconds_per_unit=?, is_active=? WHERE id=?`

	res, err := s.db.ExecContext(ctx, stmt, o.CategoryID, o.Code, o.Name, o.SecondsPerUnit, o.IsActive, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: operation %s: %w", op, id, storage.ErrNotFound)
	}

	return nil
}
