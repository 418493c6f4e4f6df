package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/dkralj/bloodbank/internal/db"
	"github.com/dkralj/bloodbank/internal/model"
)

func testBank(t *testing.T, database *sql.DB, name string) *model.BloodBank {
	t.Helper()
	bank, err := CreateBank(context.Background(), database, name, "1 Main St", "+38640111222", name+"@example.org")
	if err != nil {
		t.Fatalf("CreateBank: %v", err)
	}
	return bank
}

func TestGetUnitsMissingEntryIsZero(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bank := testBank(t, database, "Central")

	units, err := GetUnits(ctx, database, bank.ID, "A+")
	if err != nil {
		t.Fatalf("GetUnits: %v", err)
	}
	if units != 0 {
		t.Errorf("expected 0 units for missing entry, got %d", units)
	}
}

func TestAddUnitsCreatesAndAccumulates(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bank := testBank(t, database, "Central")

	if err := AddUnits(ctx, database, bank.ID, "O-", 5); err != nil {
		t.Fatalf("AddUnits: %v", err)
	}
	if err := AddUnits(ctx, database, bank.ID, "O-", 3); err != nil {
		t.Fatalf("AddUnits: %v", err)
	}

	units, _ := GetUnits(ctx, database, bank.ID, "O-")
	if units != 8 {
		t.Errorf("expected 8 units, got %d", units)
	}

	// Other groups at the same bank are unaffected.
	units, _ = GetUnits(ctx, database, bank.ID, "A+")
	if units != 0 {
		t.Errorf("expected 0 units of A+, got %d", units)
	}
}

func TestAddUnitsRejectsNonPositive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bank := testBank(t, database, "Central")

	for _, n := range []int{0, -1} {
		err := AddUnits(ctx, database, bank.ID, "A+", n)
		var unitsErr *model.InvalidUnitsError
		if !errors.As(err, &unitsErr) {
			t.Errorf("AddUnits(%d): expected InvalidUnitsError, got %v", n, err)
		}
	}
}

func TestRemoveUnits(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bank := testBank(t, database, "Central")
	AddUnits(ctx, database, bank.ID, "B+", 10)

	if err := RemoveUnits(ctx, database, bank.ID, "B+", 4); err != nil {
		t.Fatalf("RemoveUnits: %v", err)
	}

	units, _ := GetUnits(ctx, database, bank.ID, "B+")
	if units != 6 {
		t.Errorf("expected 6 units, got %d", units)
	}
}

func TestRemoveUnitsInsufficientLeavesStockUnchanged(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bank := testBank(t, database, "Central")
	AddUnits(ctx, database, bank.ID, "B+", 3)

	err := RemoveUnits(ctx, database, bank.ID, "B+", 5)
	var insufficient *model.InsufficientUnitsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientUnitsError, got %v", err)
	}
	if insufficient.Requested != 5 || insufficient.Available != 3 {
		t.Errorf("expected requested=5 available=3, got %+v", insufficient)
	}

	units, _ := GetUnits(ctx, database, bank.ID, "B+")
	if units != 3 {
		t.Errorf("failed decrement must not change stock: got %d", units)
	}
}

func TestRemoveUnitsMissingEntry(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bank := testBank(t, database, "Central")

	err := RemoveUnits(ctx, database, bank.ID, "AB-", 1)
	var insufficient *model.InsufficientUnitsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientUnitsError, got %v", err)
	}
	if insufficient.Available != 0 {
		t.Errorf("expected available=0, got %d", insufficient.Available)
	}
}

func TestRemoveUnitsToZeroKeepsEntry(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bank := testBank(t, database, "Central")
	AddUnits(ctx, database, bank.ID, "O+", 5)

	if err := RemoveUnits(ctx, database, bank.ID, "O+", 5); err != nil {
		t.Fatalf("RemoveUnits: %v", err)
	}

	// The entry stays at zero rather than being deleted.
	inv, err := GetBankInventory(ctx, database, bank.ID)
	if err != nil {
		t.Fatalf("GetBankInventory: %v", err)
	}
	if len(inv) != 1 || inv[0].Units != 0 {
		t.Errorf("expected one zero-unit entry, got %v", inv)
	}
}

func TestInvalidBloodGroupRejectedBeforeStore(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bank := testBank(t, database, "Central")

	var groupErr *model.InvalidBloodGroupError
	if _, err := GetUnits(ctx, database, bank.ID, "X+"); !errors.As(err, &groupErr) {
		t.Errorf("GetUnits: expected InvalidBloodGroupError, got %v", err)
	}
	if err := AddUnits(ctx, database, bank.ID, "X+", 1); !errors.As(err, &groupErr) {
		t.Errorf("AddUnits: expected InvalidBloodGroupError, got %v", err)
	}
	if err := RemoveUnits(ctx, database, bank.ID, "X+", 1); !errors.As(err, &groupErr) {
		t.Errorf("RemoveUnits: expected InvalidBloodGroupError, got %v", err)
	}
	if _, err := FindBanksWithUnits(ctx, database, "X+", 1); !errors.As(err, &groupErr) {
		t.Errorf("FindBanksWithUnits: expected InvalidBloodGroupError, got %v", err)
	}
}

func TestFindBanksWithUnitsOrderedByBankID(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first := testBank(t, database, "Zeta")
	second := testBank(t, database, "Alpha")
	third := testBank(t, database, "Mid")

	AddUnits(ctx, database, first.ID, "A+", 10)
	AddUnits(ctx, database, second.ID, "A+", 10)
	AddUnits(ctx, database, third.ID, "A+", 2)

	banks, err := FindBanksWithUnits(ctx, database, "A+", 5)
	if err != nil {
		t.Fatalf("FindBanksWithUnits: %v", err)
	}
	if len(banks) != 2 {
		t.Fatalf("expected 2 qualifying banks, got %d", len(banks))
	}
	// Ordered by bank id, not name or stock.
	if banks[0].BankID != first.ID || banks[1].BankID != second.ID {
		t.Errorf("expected banks [%d %d], got [%d %d]", first.ID, second.ID, banks[0].BankID, banks[1].BankID)
	}
}

func TestFindBanksWithUnitsExcludesDeletedBanks(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bank := testBank(t, database, "Closing")
	AddUnits(ctx, database, bank.ID, "A+", 10)
	RemoveUnits(ctx, database, bank.ID, "A+", 10)

	if err := DeleteBank(ctx, database, bank.ID); err != nil {
		t.Fatalf("DeleteBank: %v", err)
	}

	banks, err := FindBanksWithUnits(ctx, database, "A+", 1)
	if err != nil {
		t.Fatalf("FindBanksWithUnits: %v", err)
	}
	if len(banks) != 0 {
		t.Errorf("expected no banks, got %d", len(banks))
	}
}

func TestConcurrentAddUnits(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bank := testBank(t, database, "Central")
	AddUnits(ctx, database, bank.ID, "O+", 100)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := AddUnits(ctx, database, bank.ID, "O+", 1); err != nil {
				t.Errorf("concurrent AddUnits: %v", err)
			}
		}()
	}
	wg.Wait()

	units, _ := GetUnits(ctx, database, bank.ID, "O+")
	if units != 108 {
		t.Errorf("expected 108 units after concurrent increments, got %d", units)
	}
}
