package provenance_test

import (
	"context"
	"errors"
	"testing"

	provenance "github.com/xraph/provenance"
	"github.com/xraph/provenance/accounting"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/inspection"
	"github.com/xraph/provenance/types"
)

func TestInspectProduct(t *testing.T) {
	ctx := context.Background()
	c := newChain(t)
	inspector := registerActor(t, c.eng, "inspector", identity.RoleInspector)

	rec, err := c.eng.InspectProduct(ctx, inspector, provenance.InspectionSpec{
		Product:    c.product.Addr(),
		Name:       "QA Station 4",
		Outcome:    inspection.OutcomePass,
		Notes:      "within tolerance",
		FeePerUnit: 100_000_000,
	})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if rec.Outcome != inspection.OutcomePass {
		t.Errorf("outcome = %q, want PASS", rec.Outcome)
	}
	if rec.Paid {
		t.Error("inspection marked paid on creation")
	}

	product, _ := c.eng.GetProduct(ctx, c.product.Addr())
	if !product.QualityChecked {
		t.Error("PASS outcome did not set quality checked")
	}
	if !product.Inspection.Equal(rec.Addr()) {
		t.Error("product not linked to its inspection record")
	}

	t.Run("SecondInspection", func(t *testing.T) {
		_, err := c.eng.InspectProduct(ctx, inspector, provenance.InspectionSpec{
			Product: c.product.Addr(),
			Name:    "QA Station 5",
			Outcome: inspection.OutcomeFail,
		})
		if !errors.Is(err, provenance.ErrAlreadyExists) {
			t.Errorf("err = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("NonInspector", func(t *testing.T) {
		_, err := c.eng.InspectProduct(ctx, c.sellerOwner, provenance.InspectionSpec{
			Product: c.product.Addr(),
			Name:    "Fake QA",
			Outcome: inspection.OutcomePass,
		})
		if !errors.Is(err, provenance.ErrInvalidRole) {
			t.Errorf("err = %v, want ErrInvalidRole", err)
		}
	})

	t.Run("BadOutcome", func(t *testing.T) {
		_, err := c.eng.InspectProduct(ctx, inspector, provenance.InspectionSpec{
			Product: c.product.Addr(),
			Name:    "QA Station 6",
			Outcome: inspection.Outcome("MAYBE"),
		})
		if !errors.Is(err, provenance.ErrInvalidInput) {
			t.Errorf("err = %v, want validation error", err)
		}
	})
}

func TestInspectProductFail(t *testing.T) {
	ctx := context.Background()
	c := newChain(t)
	inspector := registerActor(t, c.eng, "inspector", identity.RoleInspector)

	if _, err := c.eng.InspectProduct(ctx, inspector, provenance.InspectionSpec{
		Product: c.product.Addr(),
		Name:    "QA Station 4",
		Outcome: inspection.OutcomeFail,
		Notes:   "cracked housing",
	}); err != nil {
		t.Fatalf("inspect: %v", err)
	}

	product, _ := c.eng.GetProduct(ctx, c.product.Addr())
	if product.QualityChecked {
		t.Error("FAIL outcome set quality checked")
	}

	if _, err := c.eng.PayInspector(ctx, c.factoryOwner, c.product.Addr()); !errors.Is(err, provenance.ErrNotQualityPassed) {
		t.Errorf("pay after FAIL err = %v, want ErrNotQualityPassed", err)
	}
}

func TestPayInspector(t *testing.T) {
	ctx := context.Background()
	c := newChain(t)
	inspector := registerActor(t, c.eng, "inspector", identity.RoleInspector)

	const feePerUnit = types.Amount(100_000_000)
	rec, err := c.eng.InspectProduct(ctx, inspector, provenance.InspectionSpec{
		Product:    c.product.Addr(),
		Name:       "QA Station 4",
		Outcome:    inspection.OutcomePass,
		FeePerUnit: feePerUnit,
	})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}

	// A fresh factory has no balance to settle with.
	if _, err := c.eng.PayInspector(ctx, c.factoryOwner, c.product.Addr()); !errors.Is(err, provenance.ErrInsufficientBalance) {
		t.Fatalf("pay with empty balance err = %v, want ErrInsufficientBalance", err)
	}

	// Fund the factory through a warehouse purchase, then settle.
	if _, err := c.eng.BuyAsWarehouse(ctx, c.warehouseOwner, c.warehouse.Addr(), c.product.Addr(), 5); err != nil {
		t.Fatalf("buy: %v", err)
	}
	factoryBefore, _ := c.eng.GetFactory(ctx, c.factory.Addr())
	stBefore, _ := c.eng.GetPlatformState(ctx)

	tx, err := c.eng.PayInspector(ctx, c.factoryOwner, c.product.Addr())
	if err != nil {
		t.Fatalf("pay inspector: %v", err)
	}

	// Fee is per-unit rate times the remaining factory stock (5 units).
	const fee = 5 * feePerUnit
	const skim = types.Amount(10_000_000) // 2% of fee
	if tx.Kind != accounting.KindInspectionFee {
		t.Errorf("kind = %q, want %q", tx.Kind, accounting.KindInspectionFee)
	}
	if tx.Amount != fee || tx.Fee != skim {
		t.Errorf("tx = %s/%s, want %s/%s", tx.Amount, tx.Fee, fee, skim)
	}

	factory, _ := c.eng.GetFactory(ctx, c.factory.Addr())
	if want := factoryBefore.Balance - fee; factory.Balance != want {
		t.Errorf("factory balance = %s, want %s", factory.Balance, want)
	}
	got, err := c.eng.GetInspection(ctx, rec.Addr())
	if err != nil {
		t.Fatalf("get inspection: %v", err)
	}
	if !got.Paid {
		t.Error("record not marked paid")
	}
	if got.FeeCharged != fee {
		t.Errorf("fee charged = %s, want %s", got.FeeCharged, fee)
	}
	if got.Balance != fee-skim {
		t.Errorf("inspector balance = %s, want %s", got.Balance, fee-skim)
	}
	st, _ := c.eng.GetPlatformState(ctx)
	if want := stBefore.Accrued + skim; st.Accrued != want {
		t.Errorf("accrued = %s, want %s", st.Accrued, want)
	}
	product, _ := c.eng.GetProduct(ctx, c.product.Addr())
	if !product.InspectionFeePaid {
		t.Error("product not marked inspection fee paid")
	}

	t.Run("DoublePay", func(t *testing.T) {
		_, err := c.eng.PayInspector(ctx, c.factoryOwner, c.product.Addr())
		if !errors.Is(err, provenance.ErrAlreadyPaid) {
			t.Errorf("err = %v, want ErrAlreadyPaid", err)
		}
	})

	t.Run("NonFactoryOwner", func(t *testing.T) {
		other := registerActor(t, c.eng, "factory-2", identity.RoleFactory)
		_, err := c.eng.PayInspector(ctx, other, c.product.Addr())
		if err == nil {
			t.Error("foreign factory settled another factory's inspection")
		}
	})
}
