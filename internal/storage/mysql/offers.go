package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"laser-offers/internal/storage"
)

// SaveOffer inserts the offer with its submitted lines in one transaction and
// returns the new id.
func (s *Storage) SaveOffer(ctx context.Context, offer storage.Offer) (string, error) {
	const op = "storage.mysql.SaveOffer"

	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	stmt := `INSERT INTO offers (id, offer_number, customer, description, piece_count, declared_weight_per_batch,
            expected_revenue, rate_rounding_base, rate_adjustment, materials_cost, logistics_cost, other_cost)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, stmt, offer.ID, offer.OfferNumber, offer.Customer, offer.Description,
		offer.PieceCount, offer.DeclaredWeightPerBatch, offer.ExpectedRevenue, offer.RateRoundingBase,
		offer.RateAdjustment, offer.MaterialsCost, offer.LogisticsCost, offer.OtherCost)
	if err != nil {
		return "", fmt.Errorf("%s: insert offer: %w", op, classify(err))
	}

	if err := insertLines(ctx, tx, offer.ID, offer.Lines); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: commit: %w", op, err)
	}

	return offer.ID, nil
}

// UpdateOffer overwrites the scalar inputs and replaces every line.
func (s *Storage) UpdateOffer(ctx context.Context, id string, offer storage.Offer) error {
	const op = "storage.mysql.UpdateOffer"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	stmt := `UPDATE offers SET offer_number=?, customer=?, description=?, piece_count=?, declared_weight_per_batch=?,
            expected_revenue=?, rate_rounding_base=?, rate_adjustment=?, materials_cost=?, logistics_cost=?,
            other_cost=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`

	res, err := tx.ExecContext(ctx, stmt, offer.OfferNumber, offer.Customer, offer.Description,
		offer.PieceCount, offer.DeclaredWeightPerBatch, offer.ExpectedRevenue, offer.RateRoundingBase,
		offer.RateAdjustment, offer.MaterialsCost, offer.LogisticsCost, offer.OtherCost, id)
	if err != nil {
		return fmt.Errorf("%s: update offer: %w", op, classify(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: offer %s: %w", op, id, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM offer_operation_lines WHERE offer_id = ?`, id); err != nil {
		return fmt.Errorf("%s: delete lines: %w", op, err)
	}

	if err := insertLines(ctx, tx, id, offer.Lines); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func insertLines(ctx context.Context, tx *sql.Tx, offerID string, lines []storage.OfferLine) error {
	if len(lines) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO offer_operation_lines (offer_id, operation_id, unit_count, sort_order)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare lines: %w", err)
	}
	defer stmt.Close()

	for i, l := range lines {
		if _, err := stmt.ExecContext(ctx, offerID, l.OperationID, l.UnitCount, i); err != nil {
			return fmt.Errorf("insert line %d: %w", i, classify(err))
		}
	}

	return nil
}

// GetOffer reads the offer and restores each line's category and standard
// time from its operation definition.
func (s *Storage) GetOffer(ctx context.Context, id string) (*storage.Offer, error) {
	const op = "storage.mysql.GetOffer"

	query := `
		SELECT id, offer_number, customer, description, piece_count, declared_weight_per_batch,
		       expected_revenue, rate_rounding_base, rate_adjustment, materials_cost, logistics_cost,
		       other_cost, created_at, updated_at
		FROM offers
		WHERE id = ?
	`

	offer := &storage.Offer{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&offer.ID,
		&offer.OfferNumber,
		&offer.Customer,
		&offer.Description,
		&offer.PieceCount,
		&offer.DeclaredWeightPerBatch,
		&offer.ExpectedRevenue,
		&offer.RateRoundingBase,
		&offer.RateAdjustment,
		&offer.MaterialsCost,
		&offer.LogisticsCost,
		&offer.OtherCost,
		&offer.CreatedAt,
		&offer.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: offer %s: %w", op, id, classify(err))
	}

	linesQuery := `
		SELECT l.operation_id, l.unit_count, COALESCE(o.category_id, ''), COALESCE(o.seconds_per_unit, 0)
		FROM offer_operation_lines l
		LEFT JOIN offer_operations o ON o.id = l.operation_id
		WHERE l.offer_id = ?
		ORDER BY l.sort_order
	`

	rows, err := s.db.QueryContext(ctx, linesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("%s: lines: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l storage.OfferLine
		if err := rows.Scan(&l.OperationID, &l.UnitCount, &l.CategoryID, &l.SecondsPerUnit); err != nil {
			return nil, fmt.Errorf("%s: scan line: %w", op, err)
		}
		offer.Lines = append(offer.Lines, l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return offer, nil
}

// ListOffers returns the offers whose number or customer contains search,
// most recently updated first.
func (s *Storage) ListOffers(ctx context.Context, search string) ([]storage.OfferListItem, error) {
	const op = "storage.mysql.ListOffers"

	query := `
		SELECT o.id, o.offer_number, o.customer, o.description, COUNT(l.operation_id), o.updated_at
		FROM offers o
		LEFT JOIN offer_operation_lines l ON l.offer_id = o.id
	`
	var args []interface{}

	if search != "" {
		query += ` WHERE o.offer_number LIKE ? OR o.customer LIKE ?`
		args = append(args, "%"+search+"%", "%"+search+"%")
	}

	query += ` GROUP BY o.id, o.offer_number, o.customer, o.description, o.updated_at ORDER BY o.updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var offers []storage.OfferListItem
	for rows.Next() {
		var item storage.OfferListItem
		if err := rows.Scan(&item.ID, &item.OfferNumber, &item.Customer, &item.Description, &item.LineCount, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		offers = append(offers, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return offers, nil
}
