package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flottaio/carburante/internal/common"
	"github.com/flottaio/carburante/internal/model"
	"github.com/flottaio/carburante/internal/normalize"
)

// cardCandidateIDOffset keeps card-derived candidate IDs disjoint from
// vehicle-derived ones, so tie-breaking by ID stays unambiguous.
const cardCandidateIDOffset = 1 << 20

// CreateVehicle persists a vehicle. The plate is stored normalized so
// lookups and matching compare like with like.
func (s *SQLiteStorage) CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateVehicle(vehicle); err != nil {
		return err
	}

	vehicle.Plate = normalize.Plate(vehicle.Plate)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO vehicles (plate, fuel_type, make, model, is_active)
		VALUES (?, ?, ?, ?, ?)
	`, vehicle.Plate, vehicle.FuelType, vehicle.Make, vehicle.Model, vehicle.IsActive)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("plate %s: %w", vehicle.Plate, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get vehicle ID: %w", err)
	}
	vehicle.ID = int(id)
	vehicle.CreatedAt = time.Now()

	return nil
}

// GetVehicleByPlate retrieves a vehicle by its plate, normalizing first.
func (s *SQLiteStorage) GetVehicleByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(plate, "plate"); err != nil {
		return nil, err
	}

	var vehicle model.Vehicle
	var lastSeen sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, plate, fuel_type, make, model, is_active, created_at, last_seen_at
		FROM vehicles
		WHERE plate = ?
	`, normalize.Plate(plate)).Scan(
		&vehicle.ID, &vehicle.Plate, &vehicle.FuelType, &vehicle.Make,
		&vehicle.Model, &vehicle.IsActive, &vehicle.CreatedAt, &lastSeen,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %s: %w", plate, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	if lastSeen.Valid {
		vehicle.LastSeenAt = lastSeen.Time
	}

	return &vehicle, nil
}

// ListVehicles retrieves all active vehicles.
func (s *SQLiteStorage) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plate, fuel_type, make, model, is_active, created_at, last_seen_at
		FROM vehicles
		WHERE is_active = 1
		ORDER BY plate
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var vehicles []model.Vehicle
	for rows.Next() {
		var vehicle model.Vehicle
		var lastSeen sql.NullTime
		if err := rows.Scan(
			&vehicle.ID, &vehicle.Plate, &vehicle.FuelType, &vehicle.Make,
			&vehicle.Model, &vehicle.IsActive, &vehicle.CreatedAt, &lastSeen,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		if lastSeen.Valid {
			vehicle.LastSeenAt = lastSeen.Time
		}
		vehicles = append(vehicles, vehicle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vehicles: %w", err)
	}

	return vehicles, nil
}

// TouchVehicle records that a vehicle was just matched, feeding the
// recency tie-break on later imports.
func (s *SQLiteStorage) TouchVehicle(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE vehicles SET last_seen_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to touch vehicle: %w", err)
	}
	return nil
}

// CreateFuelCard persists a fuel card with its number normalized.
func (s *SQLiteStorage) CreateFuelCard(ctx context.Context, card *model.FuelCard) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCard(card); err != nil {
		return err
	}

	card.CardNumber = normalize.CardNumber(card.CardNumber)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO fuel_cards (card_number, supplier, vehicle_id, employee_id, is_active)
		VALUES (?, ?, ?, ?, ?)
	`, card.CardNumber, card.Supplier, card.VehicleID, card.EmployeeID, card.IsActive)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("card %s: %w", card.CardNumber, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create fuel card: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get fuel card ID: %w", err)
	}
	card.ID = int(id)
	card.CreatedAt = time.Now()

	return nil
}

// ListFuelCards retrieves all active fuel cards.
func (s *SQLiteStorage) ListFuelCards(ctx context.Context) ([]model.FuelCard, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_number, supplier, vehicle_id, employee_id, is_active, created_at, last_seen_at
		FROM fuel_cards
		WHERE is_active = 1
		ORDER BY card_number
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fuel cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []model.FuelCard
	for rows.Next() {
		var card model.FuelCard
		var vehicleID, employeeID sql.NullInt64
		var lastSeen sql.NullTime
		if err := rows.Scan(
			&card.ID, &card.CardNumber, &card.Supplier, &vehicleID,
			&employeeID, &card.IsActive, &card.CreatedAt, &lastSeen,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fuel card: %w", err)
		}
		if vehicleID.Valid {
			id := int(vehicleID.Int64)
			card.VehicleID = &id
		}
		if employeeID.Valid {
			id := int(employeeID.Int64)
			card.EmployeeID = &id
		}
		if lastSeen.Valid {
			card.LastSeenAt = lastSeen.Time
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fuel cards: %w", err)
	}

	return cards, nil
}

// CreateEmployee persists an employee.
func (s *SQLiteStorage) CreateEmployee(ctx context.Context, employee *model.Employee) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if employee == nil {
		return fmt.Errorf("%w: employee", ErrNilParameter)
	}
	if err := validateString(employee.LastName, "last name"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (first_name, last_name, is_active)
		VALUES (?, ?, ?)
	`, employee.FirstName, employee.LastName, employee.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get employee ID: %w", err)
	}
	employee.ID = int(id)
	employee.CreatedAt = time.Now()

	return nil
}

// ListEmployees retrieves all active employees, ordered by name.
func (s *SQLiteStorage) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, is_active, created_at
		FROM employees
		WHERE is_active = 1
		ORDER BY last_name, first_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var employees []model.Employee
	for rows.Next() {
		var employee model.Employee
		if err := rows.Scan(
			&employee.ID, &employee.FirstName, &employee.LastName,
			&employee.IsActive, &employee.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}

	return employees, nil
}

// GetCandidates assembles the matching engine's candidate set from the
// fleet registry: one candidate per active vehicle, carrying its plate and
// fuel type, and one per card bound to a vehicle, carrying the card number
// as well. Event dimensions (date, quantity, amount) stay nil for registry
// candidates and are excluded from composites by the scorer.
func (s *SQLiteStorage) GetCandidates(ctx context.Context) ([]model.ReferenceRecord, error) {
	vehicles, err := s.ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	cards, err := s.ListFuelCards(ctx)
	if err != nil {
		return nil, err
	}

	vehicleByID := make(map[int]*model.Vehicle, len(vehicles))
	for i := range vehicles {
		vehicleByID[vehicles[i].ID] = &vehicles[i]
	}

	candidates := make([]model.ReferenceRecord, 0, len(vehicles)+len(cards))
	for _, vehicle := range vehicles {
		candidate := model.ReferenceRecord{
			ID:         vehicle.ID,
			VehicleID:  vehicle.ID,
			Plate:      vehicle.Plate,
			LastSeenAt: vehicle.LastSeenAt,
			CreatedAt:  vehicle.CreatedAt,
		}
		if vehicle.FuelType != "" {
			fuelType := vehicle.FuelType
			candidate.FuelType = &fuelType
		}
		candidates = append(candidates, candidate)
	}

	for _, card := range cards {
		if card.VehicleID == nil {
			continue
		}
		vehicle, ok := vehicleByID[*card.VehicleID]
		if !ok {
			continue
		}
		candidate := model.ReferenceRecord{
			ID:         cardCandidateIDOffset + card.ID,
			VehicleID:  vehicle.ID,
			Plate:      vehicle.Plate,
			CardNumber: card.CardNumber,
			LastSeenAt: card.LastSeenAt,
			CreatedAt:  card.CreatedAt,
		}
		if vehicle.FuelType != "" {
			fuelType := vehicle.FuelType
			candidate.FuelType = &fuelType
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}
