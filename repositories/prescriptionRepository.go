package repositories

import (
	"RetinaCare/models"
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PrescriptionRepository stores dispensed line items. Rows are append-only;
// there is deliberately no update or delete, and an item can only land on a
// record that is still open.
type PrescriptionRepository interface {
	AppendIfOpen(ctx context.Context, item *models.PrescriptionItem) (bool, error)
	ListByRecord(ctx context.Context, recordID string) ([]models.PrescriptionItem, error)
}

type prescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) PrescriptionRepository {
	return &prescriptionRepository{db: db}
}

// AppendIfOpen inserts the item only while its medical record is still open.
// The insert selects from the record row with FOR UPDATE, so it serializes
// against the payment transaction's conditional close: once that transaction
// holds the row lock, no further item can slip in behind the frozen invoice.
// A false return means the record already left the open state.
func (r *prescriptionRepository) AppendIfOpen(ctx context.Context, item *models.PrescriptionItem) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Raw(`
		INSERT INTO prescription_item (medical_record_id, medicine_id, quantity, unit_price_snapshot, created_at)
		SELECT mr.id, ?, ?, ?, ?
		FROM medical_record mr
		WHERE mr.id = ? AND mr.status = ?
		FOR UPDATE
		RETURNING id`,
		item.MedicineID, item.Quantity, item.UnitPriceSnapshot, now,
		item.MedicalRecordID, models.RecordOpen,
	).Scan(&item.ID)
	if result.Error != nil {
		return false, fmt.Errorf("failed to append prescription item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	item.CreatedAt = now
	return true, nil
}

func (r *prescriptionRepository) ListByRecord(ctx context.Context, recordID string) ([]models.PrescriptionItem, error) {
	var items []models.PrescriptionItem
	err := r.db.WithContext(ctx).
		Where("medical_record_id = ?", recordID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list prescription items: %w", err)
	}
	return items, nil
}
