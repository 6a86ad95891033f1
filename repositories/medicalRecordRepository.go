package repositories

import (
	"RetinaCare/cache"
	"RetinaCare/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

const (
	RecordCacheExpiry  = 24 * time.Hour
	allRecordsCacheKey = "medical_records_cache"
)

// MedicalRecordRepository stores exam records. The open->completed
// transition happens only inside CompleteAndFreeze, in the same database
// transaction that writes the frozen invoice.
type MedicalRecordRepository interface {
	Create(ctx context.Context, record *models.MedicalRecord) error
	GetByID(ctx context.Context, id string) (*models.MedicalRecord, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.MedicalRecord, error)
	ListAll(ctx context.Context) ([]models.MedicalRecord, error)
	CompleteAndFreeze(ctx context.Context, recordID string, freeze func(items []models.PrescriptionItem) *models.Invoice) (*models.Invoice, bool, error)
}

type medicalRecordRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewMedicalRecordRepository(db *gorm.DB, cache *cache.Cache) MedicalRecordRepository {
	return &medicalRecordRepository{db: db, cache: cache}
}

func (r *medicalRecordRepository) Create(ctx context.Context, record *models.MedicalRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create medical record: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

func (r *medicalRecordRepository) GetByID(ctx context.Context, id string) (*models.MedicalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var record models.MedicalRecord
	err := r.db.First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	return &record, nil
}

func (r *medicalRecordRepository) ListByPatient(ctx context.Context, patientID string) ([]models.MedicalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var records []models.MedicalRecord
	err := r.db.Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records by patient: %w", err)
	}
	return records, nil
}

func (r *medicalRecordRepository) ListAll(ctx context.Context) ([]models.MedicalRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cachedRecords, err := r.cache.Get(ctx, allRecordsCacheKey)
	if err == nil && cachedRecords != "" {
		var records []models.MedicalRecord
		if err := json.Unmarshal([]byte(cachedRecords), &records); err == nil {
			return records, nil
		}
	} else if err != nil {
		log.Printf("Failed to get medical records from cache: %v", err)
	}

	var records []models.MedicalRecord
	err = r.db.Order("created_at DESC").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list medical records: %w", err)
	}

	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal medical records: %w", err)
	}
	if err := r.cache.Set(ctx, allRecordsCacheKey, recordsJSON, RecordCacheExpiry); err != nil {
		log.Printf("Failed to set medical records in cache: %v", err)
	}

	return records, nil
}

// CompleteAndFreeze transitions the record open->completed and writes the
// frozen invoice row in one transaction. The conditional update means only
// one of N concurrent payment confirmations can commit, and it locks the
// record row; the line items are read afterwards inside the same
// transaction, so the freeze callback bills every item that made it onto
// the record and a late prescription can only land before the lock or be
// refused after the close. The invoice insert rides on the winner's
// transaction, so a frozen invoice exists exactly when the record is
// completed.
func (r *medicalRecordRepository) CompleteAndFreeze(ctx context.Context, recordID string, freeze func(items []models.PrescriptionItem) *models.Invoice) (*models.Invoice, bool, error) {
	var invoice *models.Invoice
	won := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MedicalRecord{}).
			Where("id = ? AND status = ?", recordID, models.RecordOpen).
			Update("status", models.RecordCompleted)
		if result.Error != nil {
			return fmt.Errorf("failed to complete medical record: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		var items []models.PrescriptionItem
		if err := tx.Where("medical_record_id = ?", recordID).
			Order("id ASC").
			Find(&items).Error; err != nil {
			return fmt.Errorf("failed to read prescription items: %w", err)
		}

		invoice = freeze(items)
		if err := tx.Create(invoice).Error; err != nil {
			return fmt.Errorf("failed to freeze invoice: %w", err)
		}
		won = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if won {
		r.invalidate(ctx)
	}
	return invoice, won, nil
}

func (r *medicalRecordRepository) invalidate(ctx context.Context) {
	if err := r.cache.Delete(ctx, allRecordsCacheKey); err != nil {
		log.Printf("Failed to delete medical records cache: %v", err)
	}
}
