package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkralj/bloodbank/internal/model"
)

// RecordDonation validates a donation and applies it in a single transaction:
// the donation row is appended, the bank's inventory is incremented, and the
// donor's last-donation timestamp is advanced. Either all three happen or
// none do.
func RecordDonation(ctx context.Context, db *sql.DB, donorID, bankID int64, group string, units int) (*model.Donation, error) {
	if units <= 0 {
		return nil, &model.InvalidUnitsError{Units: units, Min: 1}
	}
	if !model.ValidBloodGroup(group) {
		return nil, &model.InvalidBloodGroupError{Group: group}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Check eligibility against the donor row inside the transaction so a
	// concurrent donation by the same donor cannot slip past the window.
	var last sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT last_donation FROM donors WHERE id = ? AND deleted_at IS NULL`,
		donorID,
	).Scan(&last)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("donor not found")
	}
	if err != nil {
		return nil, fmt.Errorf("checking donor: %w", err)
	}

	donor := &model.Donor{ID: donorID}
	if last.Valid {
		donor.LastDonation = &last.Time
	}

	now := time.Now().UTC()
	if !donor.CanDonate(now) {
		return nil, &model.NotEligibleError{DaysRemaining: donor.DaysUntilEligible(now)}
	}

	var bankExists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM blood_banks WHERE id = ? AND deleted_at IS NULL`, bankID,
	).Scan(&bankExists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("blood bank not found")
	}
	if err != nil {
		return nil, fmt.Errorf("checking blood bank: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO donations (donor_id, bank_id, blood_group, units, donated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		donorID, bankID, group, units, now,
	)
	if err != nil {
		return nil, fmt.Errorf("recording donation: %w", err)
	}

	if err := addUnits(ctx, tx, bankID, group, units); err != nil {
		return nil, err
	}

	// The donor's last-donation date is the donation's own timestamp.
	_, err = tx.ExecContext(ctx,
		`UPDATE donors SET last_donation = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		now, donorID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating donor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing donation: %w", err)
	}

	donationID, _ := result.LastInsertId()
	return GetDonation(ctx, db, donationID)
}

// GetDonation returns a donation by ID.
func GetDonation(ctx context.Context, db *sql.DB, id int64) (*model.Donation, error) {
	dn := &model.Donation{}
	err := db.QueryRowContext(ctx,
		`SELECT dn.id, dn.donor_id, dn.bank_id, dn.blood_group, dn.units, dn.donated_at,
		        d.name, b.name
		 FROM donations dn
		 JOIN donors d ON d.id = dn.donor_id
		 JOIN blood_banks b ON b.id = dn.bank_id
		 WHERE dn.id = ?`, id,
	).Scan(&dn.ID, &dn.DonorID, &dn.BankID, &dn.BloodGroup, &dn.Units, &dn.DonatedAt,
		&dn.DonorName, &dn.BankName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting donation: %w", err)
	}
	return dn, nil
}

// ListDonations returns donations newest first, optionally filtered by donor.
func ListDonations(ctx context.Context, db *sql.DB, donorID int64) ([]model.Donation, error) {
	query := `SELECT dn.id, dn.donor_id, dn.bank_id, dn.blood_group, dn.units, dn.donated_at,
	                 d.name, b.name
	          FROM donations dn
	          JOIN donors d ON d.id = dn.donor_id
	          JOIN blood_banks b ON b.id = dn.bank_id`
	var args []any

	if donorID > 0 {
		query += ` WHERE dn.donor_id = ?`
		args = append(args, donorID)
	}
	query += ` ORDER BY dn.donated_at DESC, dn.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing donations: %w", err)
	}
	defer rows.Close()

	var donations []model.Donation
	for rows.Next() {
		var dn model.Donation
		if err := rows.Scan(&dn.ID, &dn.DonorID, &dn.BankID, &dn.BloodGroup, &dn.Units, &dn.DonatedAt,
			&dn.DonorName, &dn.BankName); err != nil {
			return nil, fmt.Errorf("scanning donation: %w", err)
		}
		donations = append(donations, dn)
	}
	return donations, rows.Err()
}
