package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkralj/bloodbank/internal/model"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// ledger operations can run standalone or inside a caller's transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetUnits returns the stocked units of a blood group at a bank.
// A missing inventory entry reads as zero, not an error.
func GetUnits(ctx context.Context, db *sql.DB, bankID int64, group string) (int, error) {
	if !model.ValidBloodGroup(group) {
		return 0, &model.InvalidBloodGroupError{Group: group}
	}
	return getUnits(ctx, db, bankID, group)
}

func getUnits(ctx context.Context, q querier, bankID int64, group string) (int, error) {
	var units int
	err := q.QueryRowContext(ctx,
		`SELECT units FROM inventory WHERE bank_id = ? AND blood_group = ?`,
		bankID, group,
	).Scan(&units)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting units: %w", err)
	}
	return units, nil
}

// AddUnits increases the stock of a blood group at a bank, creating the
// inventory entry on first donation of that group.
func AddUnits(ctx context.Context, db *sql.DB, bankID int64, group string, units int) error {
	if !model.ValidBloodGroup(group) {
		return &model.InvalidBloodGroupError{Group: group}
	}
	if units <= 0 {
		return &model.InvalidUnitsError{Units: units, Min: 1}
	}
	return addUnits(ctx, db, bankID, group, units)
}

func addUnits(ctx context.Context, q querier, bankID int64, group string, units int) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO inventory (bank_id, blood_group, units) VALUES (?, ?, ?)
		 ON CONFLICT (bank_id, blood_group)
		 DO UPDATE SET units = units + ?, updated_at = CURRENT_TIMESTAMP`,
		bankID, group, units, units,
	)
	if err != nil {
		return fmt.Errorf("adding units: %w", err)
	}
	return nil
}

// RemoveUnits decreases the stock of a blood group at a bank. The decrement
// is a single conditional update, so a shortfall leaves the entry untouched
// and returns InsufficientUnitsError with the actual available count.
// Entries are kept at zero rather than deleted.
func RemoveUnits(ctx context.Context, db *sql.DB, bankID int64, group string, units int) error {
	if !model.ValidBloodGroup(group) {
		return &model.InvalidBloodGroupError{Group: group}
	}
	if units <= 0 {
		return &model.InvalidUnitsError{Units: units, Min: 1}
	}
	return removeUnits(ctx, db, bankID, group, units)
}

func removeUnits(ctx context.Context, q querier, bankID int64, group string, units int) error {
	res, err := q.ExecContext(ctx,
		`UPDATE inventory
		 SET units = units - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE bank_id = ? AND blood_group = ? AND units >= ?`,
		units, bankID, group, units,
	)
	if err != nil {
		return fmt.Errorf("removing units: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking removal: %w", err)
	}
	if affected == 0 {
		available, err := getUnits(ctx, q, bankID, group)
		if err != nil {
			return err
		}
		return &model.InsufficientUnitsError{Requested: units, Available: available}
	}
	return nil
}

// FindBanksWithUnits returns the inventory entries of all banks holding at
// least the given units of a blood group, ordered by ascending bank id so
// the matcher's "first bank" tie-break is deterministic.
func FindBanksWithUnits(ctx context.Context, db *sql.DB, group string, units int) ([]model.Inventory, error) {
	if !model.ValidBloodGroup(group) {
		return nil, &model.InvalidBloodGroupError{Group: group}
	}
	return findBanksWithUnits(ctx, db, group, units)
}

func findBanksWithUnits(ctx context.Context, q querier, group string, units int) ([]model.Inventory, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT inv.bank_id, inv.blood_group, inv.units, inv.updated_at, b.name
		 FROM inventory inv
		 JOIN blood_banks b ON b.id = inv.bank_id
		 WHERE inv.blood_group = ? AND inv.units >= ? AND b.deleted_at IS NULL
		 ORDER BY inv.bank_id`,
		group, units,
	)
	if err != nil {
		return nil, fmt.Errorf("finding banks with units: %w", err)
	}
	defer rows.Close()

	return scanInventory(rows)
}

// ListInventory returns the full inventory overview across all banks.
func ListInventory(ctx context.Context, db *sql.DB) ([]model.Inventory, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT inv.bank_id, inv.blood_group, inv.units, inv.updated_at, b.name
		 FROM inventory inv
		 JOIN blood_banks b ON b.id = inv.bank_id
		 WHERE b.deleted_at IS NULL
		 ORDER BY b.name, inv.blood_group`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	return scanInventory(rows)
}

func scanInventory(rows *sql.Rows) ([]model.Inventory, error) {
	var entries []model.Inventory
	for rows.Next() {
		var inv model.Inventory
		if err := rows.Scan(&inv.BankID, &inv.BloodGroup, &inv.Units, &inv.UpdatedAt, &inv.BankName); err != nil {
			return nil, fmt.Errorf("scanning inventory: %w", err)
		}
		entries = append(entries, inv)
	}
	return entries, rows.Err()
}
