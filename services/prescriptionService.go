package services

import (
	"RetinaCare/clinicerrors"
	"RetinaCare/models"
	"RetinaCare/repositories"
	"context"
	"log"
)

// PrescriptionService attaches medicine line items to an open medical
// record, dispensing stock through the pharmacy ledger per item.
type PrescriptionService struct {
	guard    *AccessGuard
	records  repositories.MedicalRecordRepository
	items    repositories.PrescriptionRepository
	pharmacy *PharmacyService
}

func NewPrescriptionService(guard *AccessGuard, records repositories.MedicalRecordRepository, items repositories.PrescriptionRepository, pharmacy *PharmacyService) *PrescriptionService {
	return &PrescriptionService{guard: guard, records: records, items: items, pharmacy: pharmacy}
}

// AddItem dispenses one medicine onto an open record. The price snapshotted
// onto the item comes from the same catalog read the winning stock deduction
// used, so later price edits never change what was billed. The insert is
// conditional on the record still being open: if a payment confirmation
// closes the record mid-flight, the item is refused and the dispensed stock
// goes back. Each call is independently atomic: a multi-item cart is a
// sequence of AddItem calls, and one item's failure neither rolls back nor
// blocks the others.
func (s *PrescriptionService) AddItem(ctx context.Context, actor Actor, recordID, medicineID string, quantity int) (*models.PrescriptionItem, error) {
	if err := s.guard.Authorize(actor.Role, OpAddPrescriptionItem); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, clinicerrors.Validation("quantity must be positive, got %d", quantity)
	}

	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, clinicerrors.NotFound("medical record %s not found", recordID)
	}
	if record.Status != models.RecordOpen {
		return nil, clinicerrors.InvalidStateTransition("medical record %s is %s; prescriptions require an open record", recordID, record.Status)
	}

	medicine, err := s.pharmacy.ReserveAndDeduct(ctx, medicineID, quantity)
	if err != nil {
		return nil, err
	}

	item := &models.PrescriptionItem{
		MedicalRecordID:   recordID,
		MedicineID:        medicineID,
		Quantity:          quantity,
		UnitPriceSnapshot: medicine.Price,
	}
	appended, err := s.items.AppendIfOpen(ctx, item)
	if err != nil {
		// Stock was already deducted; hand it back rather than leak it.
		if _, restockErr := s.creditStock(ctx, medicineID, quantity); restockErr != nil {
			log.Printf("Failed to return %d units of medicine %s after append failure: %v", quantity, medicineID, restockErr)
		}
		return nil, err
	}
	if !appended {
		// The record closed between the open check and the insert; nothing
		// was prescribed, so the dispensed stock goes back.
		if _, restockErr := s.creditStock(ctx, medicineID, quantity); restockErr != nil {
			log.Printf("Failed to return %d units of medicine %s after record %s closed: %v", quantity, medicineID, recordID, restockErr)
		}
		return nil, clinicerrors.InvalidStateTransition("medical record %s was completed during prescribing", recordID)
	}

	return item, nil
}

// ListItems returns the line items attached to a record.
func (s *PrescriptionService) ListItems(ctx context.Context, actor Actor, recordID string) ([]models.PrescriptionItem, error) {
	if err := s.guard.Authorize(actor.Role, OpViewRecord); err != nil {
		return nil, err
	}
	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, clinicerrors.NotFound("medical record %s not found", recordID)
	}
	if actor.Role == models.RolePatient && record.PatientID != actor.UserID {
		return nil, clinicerrors.PermissionDenied("patients may only view their own records")
	}
	return s.items.ListByRecord(ctx, recordID)
}

// creditStock undoes a deduction whose item could not be recorded. Same CAS
// loop as the ledger, without role gating: this is compensation, not intake.
func (s *PrescriptionService) creditStock(ctx context.Context, medicineID string, quantity int) (int, error) {
	for attempt := 0; attempt < stockRetries; attempt++ {
		medicine, err := s.pharmacy.medicines.GetByID(ctx, medicineID)
		if err != nil {
			return 0, err
		}
		if medicine == nil {
			return 0, clinicerrors.NotFound("medicine %s not found", medicineID)
		}
		won, err := s.pharmacy.medicines.AdjustStockIfMatch(ctx, medicineID, medicine.StockQuantity, quantity)
		if err != nil {
			return 0, err
		}
		if won {
			return medicine.StockQuantity + quantity, nil
		}
	}
	return 0, clinicerrors.ConcurrentModification("medicine %s is under heavy contention", medicineID)
}
