package models

import (
	"time"
)

// DefaultExamFee is applied when an exam is created without an explicit fee.
const DefaultExamFee = 50000.0

// AnalysisStatus is the closed lifecycle of an AI analysis record:
// pending -> validated | rejected, both terminal.
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisValidated AnalysisStatus = "validated"
	AnalysisRejected  AnalysisStatus = "rejected"
)

// Terminal reports whether no further transition may leave s.
func (s AnalysisStatus) Terminal() bool {
	return s == AnalysisValidated || s == AnalysisRejected
}

// RecordStatus is the closed lifecycle of a medical record:
// open -> completed, single-shot.
type RecordStatus string

const (
	RecordOpen      RecordStatus = "open"
	RecordCompleted RecordStatus = "completed"
)

// AnalysisRecord is an AI-scored retinal image awaiting or resolved by
// clinical review. It is created once by the upload collaborator and mutated
// exactly once, by a doctor's validation decision.
type AnalysisRecord struct {
	ID             string         `gorm:"primaryKey;column:id" json:"id"`
	PatientID      string         `gorm:"column:patient_id;not null;index" json:"patient_id"`
	RiskScore      float64        `gorm:"column:risk_score;not null;check:risk_score >= 0 AND risk_score <= 100" json:"risk_score"`
	AnnotatedImage string         `gorm:"column:annotated_image" json:"annotated_image"`
	Status         AnalysisStatus `gorm:"size:20;column:status;check:status IN ('pending', 'validated', 'rejected');not null;index" json:"status"`
	DoctorNotes    string         `gorm:"type:text;column:doctor_notes" json:"doctor_notes"`
	ValidatedBy    string         `gorm:"column:validated_by" json:"validated_by"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Patient        User           `gorm:"foreignKey:PatientID;references:ID" json:"-"`
}

func (AnalysisRecord) TableName() string {
	return "analysis_record"
}

// MedicalRecord is a doctor's exam outcome for a patient and the anchor for
// prescriptions and billing.
type MedicalRecord struct {
	ID        string             `gorm:"primaryKey;column:id" json:"id"`
	PatientID string             `gorm:"column:patient_id;not null;index" json:"patient_id"`
	DoctorID  string             `gorm:"column:doctor_id;not null;index" json:"doctor_id"`
	Diagnosis string             `gorm:"type:text;column:diagnosis;not null" json:"diagnosis"`
	Notes     string             `gorm:"type:text;column:notes" json:"notes"`
	Status    RecordStatus       `gorm:"size:20;column:status;check:status IN ('open', 'completed');not null;index" json:"status"`
	ExamFee   float64            `gorm:"column:exam_fee;not null" json:"exam_fee"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Items     []PrescriptionItem `gorm:"foreignKey:MedicalRecordID;references:ID" json:"items,omitempty"`
	Patient   User               `gorm:"foreignKey:PatientID;references:ID" json:"-"`
	Doctor    User               `gorm:"foreignKey:DoctorID;references:ID" json:"-"`
}

func (MedicalRecord) TableName() string {
	return "medical_record"
}

// PrescriptionItem is one dispensed medicine line. Rows are append-only;
// UnitPriceSnapshot is the catalog price at dispensation time and never
// changes afterwards, so past invoices survive catalog price edits.
type PrescriptionItem struct {
	ID                uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	MedicalRecordID   string    `gorm:"column:medical_record_id;not null;index" json:"medical_record_id"`
	MedicineID        string    `gorm:"column:medicine_id;not null;index" json:"medicine_id"`
	Quantity          int       `gorm:"column:quantity;not null;check:quantity > 0" json:"quantity"`
	UnitPriceSnapshot float64   `gorm:"column:unit_price_snapshot;not null" json:"unit_price_snapshot"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Medicine          Medicine  `gorm:"foreignKey:MedicineID;references:ID" json:"-"`
}

func (PrescriptionItem) TableName() string {
	return "prescription_item"
}

// Medicine is a catalog entry. StockQuantity is owned exclusively by the
// pharmacy ledger; every change goes through its compare-and-swap step.
type Medicine struct {
	ID            string    `gorm:"primaryKey;column:id" json:"id"`
	Name          string    `gorm:"column:name;unique;not null;index" json:"name"`
	Unit          string    `gorm:"column:unit;not null" json:"unit"`
	Price         float64   `gorm:"column:price;not null;check:price >= 0" json:"price"`
	StockQuantity int       `gorm:"column:stock_quantity;not null;check:stock_quantity >= 0" json:"stock_quantity"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Medicine) TableName() string {
	return "medicine"
}

// Invoice holds billing figures for a medical record. While the record is
// open the invoice is computed on demand and never stored; a row is written
// only when payment is confirmed, freezing the figures.
type Invoice struct {
	RecordID    string     `gorm:"primaryKey;column:record_id" json:"record_id"`
	ExamFee     float64    `gorm:"column:exam_fee;not null" json:"exam_fee"`
	MedicineFee float64    `gorm:"column:medicine_fee;not null" json:"medicine_fee"`
	Total       float64    `gorm:"column:total;not null" json:"total"`
	PaidAt      *time.Time `gorm:"column:paid_at" json:"paid_at"`
	ConfirmedBy string     `gorm:"column:confirmed_by" json:"confirmed_by"`
}

func (Invoice) TableName() string {
	return "invoice"
}

// Frozen reports whether the invoice figures are fixed.
func (i *Invoice) Frozen() bool {
	return i.PaidAt != nil
}
