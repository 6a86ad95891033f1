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
	MedicineCacheExpiry = 24 * time.Hour
	medicinesCacheKey   = "medicines_cache"
)

// MedicineRepository stores the medicine catalog. Stock mutations only ever
// happen through AdjustStockIfMatch, the conditional step the pharmacy
// ledger's compare-and-swap loop is built on.
type MedicineRepository interface {
	Create(ctx context.Context, medicine *models.Medicine) error
	UpdateCatalog(ctx context.Context, medicine *models.Medicine) error
	GetByID(ctx context.Context, id string) (*models.Medicine, error)
	GetByName(ctx context.Context, name string) (*models.Medicine, error)
	GetAll(ctx context.Context) ([]models.Medicine, error)
	AdjustStockIfMatch(ctx context.Context, id string, expectedStock, delta int) (bool, error)
}

type medicineRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewMedicineRepository(db *gorm.DB, cache *cache.Cache) MedicineRepository {
	return &medicineRepository{db: db, cache: cache}
}

func (r *medicineRepository) Create(ctx context.Context, medicine *models.Medicine) error {
	if err := r.db.WithContext(ctx).Create(medicine).Error; err != nil {
		return fmt.Errorf("failed to create medicine: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// UpdateCatalog updates name, unit and price only. Stock never moves here,
// so catalog edits can never race the ledger.
func (r *medicineRepository) UpdateCatalog(ctx context.Context, medicine *models.Medicine) error {
	err := r.db.WithContext(ctx).Model(&models.Medicine{}).
		Where("id = ?", medicine.ID).
		Select("name", "unit", "price").
		Updates(map[string]interface{}{
			"name":  medicine.Name,
			"unit":  medicine.Unit,
			"price": medicine.Price,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update medicine: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

// GetByID reads straight from the database. The ledger's retry loop and the
// prescription price snapshot both depend on this being fresh, so the row is
// deliberately not served from cache.
func (r *medicineRepository) GetByID(ctx context.Context, id string) (*models.Medicine, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var medicine models.Medicine
	err := r.db.First(&medicine, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}
	return &medicine, nil
}

func (r *medicineRepository) GetByName(ctx context.Context, name string) (*models.Medicine, error) {
	var medicine models.Medicine
	err := r.db.WithContext(ctx).First(&medicine, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get medicine by name: %w", err)
	}
	return &medicine, nil
}

func (r *medicineRepository) GetAll(ctx context.Context) ([]models.Medicine, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cachedMedicines, err := r.cache.Get(ctx, medicinesCacheKey)
	if err == nil && cachedMedicines != "" {
		var medicines []models.Medicine
		if err := json.Unmarshal([]byte(cachedMedicines), &medicines); err == nil {
			return medicines, nil
		}
	} else if err != nil {
		log.Printf("Failed to get medicines from cache: %v", err)
	}

	var medicines []models.Medicine
	err = r.db.Order("name ASC").Find(&medicines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all medicines: %w", err)
	}

	medicinesJSON, err := json.Marshal(medicines)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal medicines: %w", err)
	}
	if err := r.cache.Set(ctx, medicinesCacheKey, medicinesJSON, MedicineCacheExpiry); err != nil {
		log.Printf("Failed to set medicines in cache: %v", err)
	}

	return medicines, nil
}

// AdjustStockIfMatch applies a stock delta only when the row still holds
// expectedStock. The database enforces the compare atomically; a false
// return means another caller moved the stock first.
func (r *medicineRepository) AdjustStockIfMatch(ctx context.Context, id string, expectedStock, delta int) (bool, error) {
	newStock := expectedStock + delta
	if newStock < 0 {
		return false, fmt.Errorf("stock adjustment would go negative: %d%+d", expectedStock, delta)
	}

	result := r.db.WithContext(ctx).Model(&models.Medicine{}).
		Where("id = ? AND stock_quantity = ?", id, expectedStock).
		Update("stock_quantity", newStock)
	if result.Error != nil {
		return false, fmt.Errorf("failed to adjust stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	r.invalidate(ctx)
	return true, nil
}

func (r *medicineRepository) invalidate(ctx context.Context) {
	if err := r.cache.Delete(ctx, medicinesCacheKey); err != nil {
		log.Printf("Failed to delete medicines cache: %v", err)
	}
}
