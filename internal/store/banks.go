package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkralj/bloodbank/internal/model"
)

// CreateBank registers a new blood bank.
func CreateBank(ctx context.Context, db *sql.DB, name, address, contact, email string) (*model.BloodBank, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO blood_banks (name, address, contact_number, email) VALUES (?, ?, ?, ?)`,
		name, address, contact, email,
	)
	if err != nil {
		return nil, fmt.Errorf("creating blood bank: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting blood bank id: %w", err)
	}

	return GetBank(ctx, db, id)
}

// GetBank returns a blood bank by ID, including its aggregate unit count.
func GetBank(ctx context.Context, db *sql.DB, id int64) (*model.BloodBank, error) {
	b := &model.BloodBank{}
	err := db.QueryRowContext(ctx,
		`SELECT b.id, b.name, b.address, b.contact_number, b.email, b.created_at, b.deleted_at,
		        COALESCE(SUM(inv.units), 0)
		 FROM blood_banks b
		 LEFT JOIN inventory inv ON inv.bank_id = b.id
		 WHERE b.id = ?
		 GROUP BY b.id`, id,
	).Scan(&b.ID, &b.Name, &b.Address, &b.ContactNumber, &b.Email, &b.CreatedAt, &b.DeletedAt,
		&b.TotalUnits)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting blood bank: %w", err)
	}
	return b, nil
}

// ListBanks returns all non-deleted blood banks with their aggregate unit
// counts. The total is derived from inventory entries, never stored.
func ListBanks(ctx context.Context, db *sql.DB) ([]model.BloodBank, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT b.id, b.name, b.address, b.contact_number, b.email, b.created_at, b.deleted_at,
		        COALESCE(SUM(inv.units), 0)
		 FROM blood_banks b
		 LEFT JOIN inventory inv ON inv.bank_id = b.id
		 WHERE b.deleted_at IS NULL
		 GROUP BY b.id
		 ORDER BY b.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing blood banks: %w", err)
	}
	defer rows.Close()

	var banks []model.BloodBank
	for rows.Next() {
		var b model.BloodBank
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.ContactNumber, &b.Email, &b.CreatedAt,
			&b.DeletedAt, &b.TotalUnits); err != nil {
			return nil, fmt.Errorf("scanning blood bank: %w", err)
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

// UpdateBank updates a blood bank's details.
func UpdateBank(ctx context.Context, db *sql.DB, id int64, name, address, contact, email string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE blood_banks SET name = ?, address = ?, contact_number = ?, email = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		name, address, contact, email, id,
	)
	if err != nil {
		return fmt.Errorf("updating blood bank: %w", err)
	}
	return nil
}

// DeleteBank soft-deletes a blood bank. Fails if the bank still stocks any
// units, since those would become unreachable by the matcher.
func DeleteBank(ctx context.Context, db *sql.DB, id int64) error {
	var units int
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(units), 0) FROM inventory WHERE bank_id = ?`, id,
	).Scan(&units)
	if err != nil {
		return fmt.Errorf("checking bank inventory: %w", err)
	}
	if units > 0 {
		return fmt.Errorf("cannot delete blood bank: still stocks %d unit(s)", units)
	}

	_, err = db.ExecContext(ctx,
		`UPDATE blood_banks SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting blood bank: %w", err)
	}
	return nil
}

// GetBankInventory returns all inventory entries for one bank.
func GetBankInventory(ctx context.Context, db *sql.DB, bankID int64) ([]model.Inventory, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT inv.bank_id, inv.blood_group, inv.units, inv.updated_at, b.name
		 FROM inventory inv
		 JOIN blood_banks b ON b.id = inv.bank_id
		 WHERE inv.bank_id = ?
		 ORDER BY inv.blood_group`, bankID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting bank inventory: %w", err)
	}
	defer rows.Close()

	return scanInventory(rows)
}
