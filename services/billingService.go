package services

import (
	"RetinaCare/clinicerrors"
	"RetinaCare/models"
	"RetinaCare/repositories"
	"context"
	"time"
)

// BillingService computes invoices from an exam fee plus dispensed items and
// records payment. Figures are recomputed from snapshots on every read until
// payment freezes them.
type BillingService struct {
	guard    *AccessGuard
	records  repositories.MedicalRecordRepository
	items    repositories.PrescriptionRepository
	invoices repositories.InvoiceRepository
}

func NewBillingService(guard *AccessGuard, records repositories.MedicalRecordRepository, items repositories.PrescriptionRepository, invoices repositories.InvoiceRepository) *BillingService {
	return &BillingService{guard: guard, records: records, items: items, invoices: invoices}
}

// ComputeInvoice returns the invoice for a record: the frozen row when
// payment has been confirmed, otherwise a fresh computation over the
// record's exam fee and item snapshots. Zero items yields
// medicine_fee = 0 and total = exam_fee. Patients only see their own.
func (s *BillingService) ComputeInvoice(ctx context.Context, actor Actor, recordID string) (*models.Invoice, error) {
	if err := s.guard.Authorize(actor.Role, OpViewInvoice); err != nil {
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
		return nil, clinicerrors.PermissionDenied("patients may only view their own invoices")
	}

	frozen, err := s.invoices.GetByRecordID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if frozen != nil {
		return frozen, nil
	}

	items, err := s.items.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return invoiceFor(record, items), nil
}

// ConfirmPayment freezes the current invoice computation and closes the
// record, in one transaction. The items are summed inside that transaction
// by CompleteAndFreeze, so the frozen figures cover every line that made it
// onto the record. A record that is no longer open fails with
// InvalidStateTransition; losing the optimistic race against a concurrent
// confirmation surfaces as ConcurrentModification.
func (s *BillingService) ConfirmPayment(ctx context.Context, actor Actor, recordID string) (*models.Invoice, error) {
	if err := s.guard.Authorize(actor.Role, OpConfirmPayment); err != nil {
		return nil, err
	}

	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, clinicerrors.NotFound("medical record %s not found", recordID)
	}
	if record.Status != models.RecordOpen {
		return nil, clinicerrors.InvalidStateTransition("medical record %s is already %s", recordID, record.Status)
	}

	now := time.Now()
	invoice, won, err := s.records.CompleteAndFreeze(ctx, recordID, func(items []models.PrescriptionItem) *models.Invoice {
		frozen := invoiceFor(record, items)
		frozen.PaidAt = &now
		frozen.ConfirmedBy = actor.UserID
		return frozen
	})
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, clinicerrors.ConcurrentModification("medical record %s was completed concurrently", recordID)
	}

	return invoice, nil
}

// invoiceFor derives the figures: total = exam_fee + sum of
// quantity x unit_price_snapshot, independent of current catalog prices.
func invoiceFor(record *models.MedicalRecord, items []models.PrescriptionItem) *models.Invoice {
	medicineFee := 0.0
	for _, item := range items {
		medicineFee += float64(item.Quantity) * item.UnitPriceSnapshot
	}

	return &models.Invoice{
		RecordID:    record.ID,
		ExamFee:     record.ExamFee,
		MedicineFee: medicineFee,
		Total:       record.ExamFee + medicineFee,
	}
}
