package address_test

import (
	"encoding/json"
	"testing"

	"github.com/xraph/provenance/address"
)

func TestDeriveDeterministic(t *testing.T) {
	parent := address.FromSeed([]byte("factory-owner"))

	a := address.Derive(address.NamespaceProduct, parent, 1)
	b := address.Derive(address.NamespaceProduct, parent, 1)

	if !a.Equal(b) {
		t.Fatalf("same tuple derived different addresses: %s vs %s", a, b)
	}
	if a.IsZero() {
		t.Fatal("derived address is zero")
	}
}

func TestDeriveDistinctInputs(t *testing.T) {
	parent := address.FromSeed([]byte("owner"))
	other := address.FromSeed([]byte("other-owner"))

	base := address.Derive(address.NamespaceProduct, parent, 1)

	tests := []struct {
		name string
		addr address.Address
	}{
		{"different index", address.Derive(address.NamespaceProduct, parent, 2)},
		{"different namespace", address.Derive(address.NamespaceOrder, parent, 1)},
		{"different parent", address.Derive(address.NamespaceProduct, other, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.addr.Equal(base) {
				t.Errorf("expected distinct address, got collision with %s", base)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	a := address.Derive(address.NamespaceUser, address.Zero, 7)

	parsed, err := address.Parse(a.String())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !parsed.Equal(a) {
		t.Errorf("round-trip mismatch: %s != %s", parsed, a)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"short", "abcd"},
		{"bad hex", "zz" + address.Zero.String()[2:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := address.Parse(tt.in); err == nil {
				t.Errorf("expected error for %q", tt.in)
			}
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	a := address.FromSeed([]byte("wallet"))

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var back address.Address
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !back.Equal(a) {
		t.Errorf("round-trip mismatch: %s != %s", back, a)
	}
}

func TestSQLValueScan(t *testing.T) {
	a := address.FromSeed([]byte("wallet"))

	v, err := a.Value()
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}

	var back address.Address
	if err := back.Scan(v); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !back.Equal(a) {
		t.Errorf("round-trip mismatch: %s != %s", back, a)
	}
}
