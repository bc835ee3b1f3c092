package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Vehicle is one vehicle of the tenant's fleet.
type Vehicle struct {
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	Plate      string    `json:"plate"` // stored normalized: no spaces or hyphens, uppercase
	FuelType   string    `json:"fuel_type,omitempty"`
	Make       string    `json:"make,omitempty"`
	Model      string    `json:"model,omitempty"`
	ID         int       `json:"id"`
	IsActive   bool      `json:"is_active"`
}

// FuelCard is a fuel card issued to the tenant, optionally bound to a
// vehicle or an employee.
type FuelCard struct {
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CardNumber string    `json:"card_number"`
	Supplier   string    `json:"supplier,omitempty"`
	VehicleID  *int      `json:"vehicle_id,omitempty"`
	EmployeeID *int      `json:"employee_id,omitempty"`
	ID         int       `json:"id"`
	IsActive   bool      `json:"is_active"`
}

// Employee is a driver or card holder.
type Employee struct {
	CreatedAt time.Time `json:"created_at"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	ID        int       `json:"id"`
	IsActive  bool      `json:"is_active"`
}

// Invoice is one imported invoice document.
type Invoice struct {
	ImportedAt    time.Time  `json:"imported_at"`
	InvoiceDate   *time.Time `json:"invoice_date,omitempty"`
	RunID         string     `json:"run_id"`
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	SupplierVAT   string     `json:"supplier_vat,omitempty"`
	FileName      string     `json:"file_name"`
	Hash          string     `json:"hash"`
	TemplateID    int        `json:"template_id"`
	ID            int        `json:"id"`
	TotalLines    int        `json:"total_lines"`
	FilteredLines int        `json:"filtered_lines"`
}

// InvoiceHash derives the deduplication hash for a raw invoice document.
// Re-importing identical content must be detected regardless of file name.
func InvoiceHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%x", sum)
}
