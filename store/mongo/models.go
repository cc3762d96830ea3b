package mongo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/provenance"
	"github.com/xraph/provenance/accounting"
	"github.com/xraph/provenance/address"
	"github.com/xraph/provenance/identity"
	"github.com/xraph/provenance/inspection"
	"github.com/xraph/provenance/inventory"
	"github.com/xraph/provenance/platform"
	"github.com/xraph/provenance/store"
)

// recordModel is the generic document backing every non-transaction
// record. The full record is serialized to JSON in the payload field;
// kind, parent and owner are denormalized query fields.
type recordModel struct {
	grove.BaseModel `grove:"table:provenance_records"`

	Address   string    `grove:"address,pk" bson:"_id"`
	Kind      string    `grove:"kind"       bson:"kind"`
	Revision  int64     `grove:"revision"   bson:"revision"`
	Parent    string    `grove:"parent"     bson:"parent"`
	Owner     string    `grove:"owner"      bson:"owner"`
	Payload   string    `grove:"payload"    bson:"payload"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

// transactionModel is one document of the append-only transaction log.
type transactionModel struct {
	grove.BaseModel `grove:"table:provenance_transactions"`

	Address   string    `grove:"address,pk" bson:"_id"`
	SeqID     int64     `grove:"seq_id"     bson:"seq_id"`
	UserAddr  string    `grove:"user_addr"  bson:"user_addr"`
	FromAddr  string    `grove:"from_addr"  bson:"from_addr"`
	ToAddr    string    `grove:"to_addr"    bson:"to_addr"`
	Kind      string    `grove:"kind"       bson:"kind"`
	Payload   string    `grove:"payload"    bson:"payload"`
	Timestamp time.Time `grove:"timestamp"  bson:"timestamp"`
	CreatedAt time.Time `grove:"created_at" bson:"created_at"`
}

// recordKind maps a stored record to its kind field value.
func recordKind(rec store.Record) (string, error) {
	switch rec.(type) {
	case *platform.State:
		return string(address.NamespacePlatform), nil
	case *identity.User:
		return string(address.NamespaceUser), nil
	case *inventory.Factory:
		return string(address.NamespaceFactory), nil
	case *inventory.Product:
		return string(address.NamespaceProduct), nil
	case *inventory.Warehouse:
		return string(address.NamespaceWarehouse), nil
	case *inventory.Seller:
		return string(address.NamespaceSeller), nil
	case *inventory.Order:
		return string(address.NamespaceOrder), nil
	case *inventory.Logistics:
		return string(address.NamespaceLogistics), nil
	case *inventory.SellerStock:
		return string(address.NamespaceSellerStock), nil
	case *inventory.CustomerProduct:
		return string(address.NamespaceCustomerProduct), nil
	case *inspection.Inspection:
		return string(address.NamespaceInspection), nil
	}
	return "", fmt.Errorf("provenance/mongo: unknown record type %T", rec)
}

// recordScope returns the parent and owner query fields for a record.
func recordScope(rec store.Record) (parent, owner address.Address) {
	switch r := rec.(type) {
	case *identity.User:
		return address.Zero, r.Owner
	case *inventory.Factory:
		return r.User, r.Owner
	case *inventory.Product:
		return r.Factory, address.Zero
	case *inventory.Warehouse:
		return r.User, r.Owner
	case *inventory.Seller:
		return r.User, r.Owner
	case *inventory.Order:
		return r.Seller, address.Zero
	case *inventory.Logistics:
		return r.User, r.Owner
	case *inventory.SellerStock:
		return r.Seller, address.Zero
	case *inventory.CustomerProduct:
		return r.User, r.Owner
	case *inspection.Inspection:
		return r.User, r.Owner
	}
	return address.Zero, address.Zero
}

func toRecordModel(rec store.Record) (*recordModel, error) {
	kind, err := recordKind(rec)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("provenance/mongo: encode %s record: %w", kind, err)
	}
	parent, owner := recordScope(rec)

	return &recordModel{
		Address:   rec.Addr().String(),
		Kind:      kind,
		Revision:  int64(rec.Rev()),
		Parent:    parent.String(),
		Owner:     owner.String(),
		Payload:   string(payload),
		CreatedAt: now(),
		UpdatedAt: now(),
	}, nil
}

// decodeRecord unmarshals a document payload into a concrete record
// type, refusing documents of a different kind.
func decodeRecord[T any](m *recordModel, kind address.Namespace) (*T, error) {
	if m.Kind != string(kind) {
		return nil, provenance.ErrNotFound
	}
	rec := new(T)
	if err := json.Unmarshal([]byte(m.Payload), rec); err != nil {
		return nil, fmt.Errorf("provenance/mongo: decode %s record: %w", m.Kind, err)
	}
	return rec, nil
}

func toTransactionModel(tx *accounting.Transaction) (*transactionModel, error) {
	payload, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("provenance/mongo: encode transaction: %w", err)
	}
	return &transactionModel{
		Address:   tx.Addr().String(),
		SeqID:     int64(tx.SeqID),
		UserAddr:  tx.User.String(),
		FromAddr:  tx.From.String(),
		ToAddr:    tx.To.String(),
		Kind:      string(tx.Kind),
		Payload:   string(payload),
		Timestamp: tx.Timestamp,
		CreatedAt: now(),
	}, nil
}

func fromTransactionModel(m *transactionModel) (*accounting.Transaction, error) {
	tx := new(accounting.Transaction)
	if err := json.Unmarshal([]byte(m.Payload), tx); err != nil {
		return nil, fmt.Errorf("provenance/mongo: decode transaction: %w", err)
	}
	return tx, nil
}
