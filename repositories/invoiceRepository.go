package repositories

import (
	"RetinaCare/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// InvoiceRepository reads frozen invoices. Writing happens only through
// MedicalRecordRepository.CompleteAndFreeze.
type InvoiceRepository interface {
	GetByRecordID(ctx context.Context, recordID string) (*models.Invoice, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) GetByRecordID(ctx context.Context, recordID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).First(&invoice, "record_id = ?", recordID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &invoice, nil
}
