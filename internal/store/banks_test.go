package store

import (
	"context"
	"testing"

	"github.com/dkralj/bloodbank/internal/db"
)

func TestListBanksDerivedTotals(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	central := testBank(t, database, "Central")
	regional := testBank(t, database, "Regional")

	AddUnits(ctx, database, central.ID, "A+", 5)
	AddUnits(ctx, database, central.ID, "O-", 3)
	AddUnits(ctx, database, regional.ID, "B+", 2)

	banks, err := ListBanks(ctx, database)
	if err != nil {
		t.Fatalf("ListBanks: %v", err)
	}
	if len(banks) != 2 {
		t.Fatalf("expected 2 banks, got %d", len(banks))
	}

	totals := map[string]int{}
	for _, b := range banks {
		totals[b.Name] = b.TotalUnits
	}
	if totals["Central"] != 8 || totals["Regional"] != 2 {
		t.Errorf("unexpected totals: %v", totals)
	}
}

func TestDeleteBankWithStockRefused(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bank := testBank(t, database, "Central")
	AddUnits(ctx, database, bank.ID, "A+", 1)

	if err := DeleteBank(ctx, database, bank.ID); err == nil {
		t.Error("expected error deleting bank with stock")
	}

	RemoveUnits(ctx, database, bank.ID, "A+", 1)
	if err := DeleteBank(ctx, database, bank.ID); err != nil {
		t.Errorf("DeleteBank after draining stock: %v", err)
	}

	banks, _ := ListBanks(ctx, database)
	if len(banks) != 0 {
		t.Errorf("expected no listed banks, got %d", len(banks))
	}
}

func TestGetBankInventory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bank := testBank(t, database, "Central")
	AddUnits(ctx, database, bank.ID, "O+", 4)
	AddUnits(ctx, database, bank.ID, "A-", 2)

	inv, err := GetBankInventory(ctx, database, bank.ID)
	if err != nil {
		t.Fatalf("GetBankInventory: %v", err)
	}
	if len(inv) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(inv))
	}
	// Ordered by blood group.
	if inv[0].BloodGroup != "A-" || inv[1].BloodGroup != "O+" {
		t.Errorf("unexpected order: %v", inv)
	}
}
