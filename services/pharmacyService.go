package services

import (
	"RetinaCare/clinicerrors"
	"RetinaCare/models"
	"RetinaCare/repositories"
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// stockRetries bounds the compare-and-swap loop. Benign contention is
// absorbed by retrying against fresh state; past the bound the caller gets
// ConcurrentModification and decides for itself.
const stockRetries = 3

// PharmacyService is the pharmacy ledger: the only component that moves
// stock_quantity, plus the catalog operations around it.
type PharmacyService struct {
	guard     *AccessGuard
	medicines repositories.MedicineRepository
}

func NewPharmacyService(guard *AccessGuard, medicines repositories.MedicineRepository) *PharmacyService {
	return &PharmacyService{guard: guard, medicines: medicines}
}

// AddMedicine creates a catalog entry with its opening stock.
func (s *PharmacyService) AddMedicine(ctx context.Context, actor Actor, name, unit string, price float64, initialStock int) (*models.Medicine, error) {
	if err := s.guard.Authorize(actor.Role, OpManageCatalog); err != nil {
		return nil, err
	}

	err := validation.Errors{
		"name":  validation.Validate(name, validation.Required, validation.Length(1, 255)),
		"unit":  validation.Validate(unit, validation.Required),
		"price": validation.Validate(price, validation.Min(0.0)),
	}.Filter()
	if err != nil {
		return nil, clinicerrors.Validation("invalid medicine input: %v", err)
	}
	if initialStock < 0 {
		return nil, clinicerrors.Validation("initial stock must not be negative")
	}

	existing, err := s.medicines.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, clinicerrors.Validation("medicine %q already exists", name)
	}

	medicine := &models.Medicine{
		ID:            uuid.New().String(),
		Name:          name,
		Unit:          unit,
		Price:         price,
		StockQuantity: initialStock,
	}
	if err := s.medicines.Create(ctx, medicine); err != nil {
		return nil, err
	}
	return medicine, nil
}

// UpdateMedicine edits catalog fields. Stock is out of reach here; past
// prescription items keep their snapshot prices regardless.
func (s *PharmacyService) UpdateMedicine(ctx context.Context, actor Actor, medicineID, name, unit string, price float64) (*models.Medicine, error) {
	if err := s.guard.Authorize(actor.Role, OpManageCatalog); err != nil {
		return nil, err
	}

	err := validation.Errors{
		"name":  validation.Validate(name, validation.Required, validation.Length(1, 255)),
		"unit":  validation.Validate(unit, validation.Required),
		"price": validation.Validate(price, validation.Min(0.0)),
	}.Filter()
	if err != nil {
		return nil, clinicerrors.Validation("invalid medicine input: %v", err)
	}

	medicine, err := s.medicines.GetByID(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	if medicine == nil {
		return nil, clinicerrors.NotFound("medicine %s not found", medicineID)
	}

	medicine.Name = name
	medicine.Unit = unit
	medicine.Price = price
	if err := s.medicines.UpdateCatalog(ctx, medicine); err != nil {
		return nil, err
	}
	return medicine, nil
}

// ListMedicines returns the catalog with current stock.
func (s *PharmacyService) ListMedicines(ctx context.Context, actor Actor) ([]models.Medicine, error) {
	if err := s.guard.Authorize(actor.Role, OpListMedicines); err != nil {
		return nil, err
	}
	return s.medicines.GetAll(ctx)
}

// GetMedicine returns one catalog entry.
func (s *PharmacyService) GetMedicine(ctx context.Context, actor Actor, medicineID string) (*models.Medicine, error) {
	if err := s.guard.Authorize(actor.Role, OpListMedicines); err != nil {
		return nil, err
	}
	medicine, err := s.medicines.GetByID(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	if medicine == nil {
		return nil, clinicerrors.NotFound("medicine %s not found", medicineID)
	}
	return medicine, nil
}

// ReserveAndDeduct atomically checks and decrements stock for one medicine.
// The read and the conditional decrement form a compare-and-swap: if another
// caller moved the stock in between, the loop re-reads and tries again
// against the new value, so the sum of successful deductions can never
// exceed the stock that was actually there and no interleaving produces a
// negative quantity. Fully succeeds or fully fails; no partial dispensation.
// Returns the medicine as read on the winning attempt, stock already
// decremented, so callers snapshot the same row version the stock left.
func (s *PharmacyService) ReserveAndDeduct(ctx context.Context, medicineID string, quantity int) (*models.Medicine, error) {
	if quantity <= 0 {
		return nil, clinicerrors.Validation("quantity must be positive, got %d", quantity)
	}

	for attempt := 0; attempt < stockRetries; attempt++ {
		medicine, err := s.medicines.GetByID(ctx, medicineID)
		if err != nil {
			return nil, err
		}
		if medicine == nil {
			return nil, clinicerrors.NotFound("medicine %s not found", medicineID)
		}
		if quantity > medicine.StockQuantity {
			return nil, clinicerrors.InsufficientStock("medicine %q: requested %d, have %d", medicine.Name, quantity, medicine.StockQuantity)
		}

		won, err := s.medicines.AdjustStockIfMatch(ctx, medicineID, medicine.StockQuantity, -quantity)
		if err != nil {
			return nil, err
		}
		if won {
			medicine.StockQuantity -= quantity
			return medicine, nil
		}
	}

	return nil, clinicerrors.ConcurrentModification("medicine %s is under heavy contention, retry", medicineID)
}

// Restock adds delivered stock to a medicine through the same
// compare-and-swap step the deduction path uses.
func (s *PharmacyService) Restock(ctx context.Context, actor Actor, medicineID string, quantity int) (int, error) {
	if err := s.guard.Authorize(actor.Role, OpManageCatalog); err != nil {
		return 0, err
	}
	if quantity <= 0 {
		return 0, clinicerrors.Validation("restock quantity must be positive, got %d", quantity)
	}

	for attempt := 0; attempt < stockRetries; attempt++ {
		medicine, err := s.medicines.GetByID(ctx, medicineID)
		if err != nil {
			return 0, err
		}
		if medicine == nil {
			return 0, clinicerrors.NotFound("medicine %s not found", medicineID)
		}

		won, err := s.medicines.AdjustStockIfMatch(ctx, medicineID, medicine.StockQuantity, quantity)
		if err != nil {
			return 0, err
		}
		if won {
			return medicine.StockQuantity + quantity, nil
		}
	}

	return 0, clinicerrors.ConcurrentModification("medicine %s is under heavy contention, retry", medicineID)
}
