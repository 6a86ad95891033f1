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
	AnalysisCacheExpiry     = 24 * time.Hour
	pendingAnalysesCacheKey = "pending_analyses_cache"
)

// AnalysisRecordRepository stores AI analysis records. The status column
// moves only through Transition, which is conditional on the source status
// so a record can never leave a terminal state.
type AnalysisRecordRepository interface {
	Create(ctx context.Context, record *models.AnalysisRecord) error
	GetByID(ctx context.Context, id string) (*models.AnalysisRecord, error)
	ListPending(ctx context.Context) ([]models.AnalysisRecord, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.AnalysisRecord, error)
	Transition(ctx context.Context, id string, from, to models.AnalysisStatus, notes, doctorID string) (bool, error)
}

type analysisRecordRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewAnalysisRecordRepository(db *gorm.DB, cache *cache.Cache) AnalysisRecordRepository {
	return &analysisRecordRepository{db: db, cache: cache}
}

func (r *analysisRecordRepository) Create(ctx context.Context, record *models.AnalysisRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create analysis record: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

func (r *analysisRecordRepository) GetByID(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var record models.AnalysisRecord
	err := r.db.First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis record: %w", err)
	}
	return &record, nil
}

func (r *analysisRecordRepository) ListPending(ctx context.Context) ([]models.AnalysisRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cachedRecords, err := r.cache.Get(ctx, pendingAnalysesCacheKey)
	if err == nil && cachedRecords != "" {
		var records []models.AnalysisRecord
		if err := json.Unmarshal([]byte(cachedRecords), &records); err == nil {
			return records, nil
		}
	} else if err != nil {
		log.Printf("Failed to get pending analyses from cache: %v", err)
	}

	var records []models.AnalysisRecord
	err = r.db.Where("status = ?", models.AnalysisPending).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending analyses: %w", err)
	}

	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pending analyses: %w", err)
	}
	if err := r.cache.Set(ctx, pendingAnalysesCacheKey, recordsJSON, AnalysisCacheExpiry); err != nil {
		log.Printf("Failed to set pending analyses in cache: %v", err)
	}

	return records, nil
}

func (r *analysisRecordRepository) ListByPatient(ctx context.Context, patientID string) ([]models.AnalysisRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var records []models.AnalysisRecord
	err := r.db.Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses by patient: %w", err)
	}
	return records, nil
}

// Transition atomically moves a record from one status to another. The WHERE
// clause carries the source status, so of N concurrent callers at most one
// sees a true return; the rest lost the race or the record already left the
// source state.
func (r *analysisRecordRepository) Transition(ctx context.Context, id string, from, to models.AnalysisStatus, notes, doctorID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.AnalysisRecord{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":       to,
			"doctor_notes": notes,
			"validated_by": doctorID,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to transition analysis record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	r.invalidate(ctx)
	return true, nil
}

func (r *analysisRecordRepository) invalidate(ctx context.Context) {
	if err := r.cache.Delete(ctx, pendingAnalysesCacheKey); err != nil {
		log.Printf("Failed to delete pending analyses cache: %v", err)
	}
}
