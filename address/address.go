// Package address defines the deterministic addressing scheme for all
// Provenance entities.
//
// Every record in the ledger lives at an Address derived from a namespace
// tag, a parent address, and a monotonic index. Derivation is a pure
// function: the same (namespace, parent, index) tuple always yields the
// same address, and distinct indexes under the same parent never collide.
// Supplying a not-yet-used index is the caller's job — the engine consumes
// the post-increment value of the owner's counter inside the same atomic
// batch that creates the child.
package address

import (
	"bytes"
	"crypto/sha256"
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Size is the byte length of an Address.
const Size = 32

// Address is a deterministic 32-byte key identifying one ledger record.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type Address [Size]byte

// Zero is the zero-value Address. It is never a valid record key and is
// used as the parent of singleton derivations.
var Zero Address

// Namespace tags the entity kind baked into a derived address.
type Namespace string

// Namespace constants for all Provenance entity kinds.
const (
	NamespacePlatform        Namespace = "platform_state"   // Platform singleton
	NamespaceUser            Namespace = "user"             // Actor identity
	NamespaceFactory         Namespace = "factory"          // Factory
	NamespaceProduct         Namespace = "product"          // Product
	NamespaceWarehouse       Namespace = "warehouse"        // Warehouse
	NamespaceSeller          Namespace = "seller"           // Seller
	NamespaceOrder           Namespace = "order"            // Seller order
	NamespaceLogistics       Namespace = "logistics"        // Logistics shipment
	NamespaceSellerStock     Namespace = "seller_stock"     // Seller stock lot
	NamespaceCustomerProduct Namespace = "customer_product" // Customer holding
	NamespaceInspection      Namespace = "inspection"       // Inspection record
	NamespaceTransaction     Namespace = "transaction"      // Ledger transaction
)

// Derive computes the address of the index-th child of parent in the given
// namespace. The seed tuple is length-prefixed so no two distinct tuples
// can produce the same preimage.
func Derive(ns Namespace, parent Address, index uint64) Address {
	h := sha256.New()

	var prefix [2]byte
	binary.LittleEndian.PutUint16(prefix[:], uint16(len(ns)))
	h.Write(prefix[:])
	h.Write([]byte(ns))
	h.Write(parent[:])

	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], index)
	h.Write(idx[:])

	var out Address
	copy(out[:], h.Sum(nil))
	return out
}

// FromSeed hashes arbitrary seed bytes into an Address. Used for actor
// wallet identities supplied by the environment's attestation layer.
func FromSeed(seed []byte) Address {
	return Address(sha256.Sum256(seed))
}

// FromBytes copies a 32-byte slice into an Address.
func FromBytes(b []byte) (Address, error) {
	if len(b) != Size {
		return Zero, fmt.Errorf("address: need %d bytes, got %d", Size, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// Parse decodes the hex string representation of an Address.
func Parse(s string) (Address, error) {
	if len(s) != Size*2 {
		return Zero, fmt.Errorf("address: parse %q: want %d hex chars, got %d", s, Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("address: parse %q: %w", s, err)
	}
	return FromBytes(b)
}

// MustParse is like Parse but panics on error. Use for hardcoded values.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("address: must parse %q: %v", s, err))
	}
	return a
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool { return a == Zero }

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, a[:])
	return out
}

// String returns the lowercase hex representation.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// Short returns the first 8 hex chars, for log output.
func (a Address) Short() string { return a.String()[:8] }

// Equal reports whether two addresses are the same key.
func (a Address) Equal(other Address) bool { return a == other }

// Compare orders addresses bytewise. Useful for stable iteration.
func (a Address) Compare(other Address) int {
	return bytes.Compare(a[:], other[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer for database storage as hex text.
func (a Address) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Address) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case nil:
		*a = Zero
		return nil
	default:
		return fmt.Errorf("address: cannot scan %T", src)
	}
}
