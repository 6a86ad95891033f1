package services

import (
	"RetinaCare/clinicerrors"
	"RetinaCare/models"
	"RetinaCare/repositories"
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// ExamService creates and reads medical records. A record opens when a
// doctor finishes an exam; it closes only through payment confirmation in
// the billing engine.
type ExamService struct {
	guard   *AccessGuard
	records repositories.MedicalRecordRepository
	users   repositories.UserRepository
}

func NewExamService(guard *AccessGuard, records repositories.MedicalRecordRepository, users repositories.UserRepository) *ExamService {
	return &ExamService{guard: guard, records: records, users: users}
}

// CreateExam opens a medical record for a patient with the acting doctor's
// diagnosis. A zero exam fee falls back to the clinic's default fee.
func (s *ExamService) CreateExam(ctx context.Context, actor Actor, patientID, diagnosis, notes string, examFee float64) (*models.MedicalRecord, error) {
	if err := s.guard.Authorize(actor.Role, OpCreateExam); err != nil {
		return nil, err
	}

	err := validation.Errors{
		"patient_id": validation.Validate(patientID, validation.Required),
		"diagnosis":  validation.Validate(diagnosis, validation.Required),
	}.Filter()
	if err != nil {
		return nil, clinicerrors.Validation("invalid exam input: %v", err)
	}
	if examFee < 0 {
		return nil, clinicerrors.Validation("exam fee must not be negative")
	}
	if examFee == 0 {
		examFee = models.DefaultExamFee
	}

	patient, err := s.users.GetUserByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if patient == nil || patient.Role != models.RolePatient {
		return nil, clinicerrors.NotFound("patient %s not found", patientID)
	}

	record := &models.MedicalRecord{
		ID:        uuid.New().String(),
		PatientID: patientID,
		DoctorID:  actor.UserID,
		Diagnosis: diagnosis,
		Notes:     notes,
		Status:    models.RecordOpen,
		ExamFee:   examFee,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetRecord returns one medical record. Patients only see their own.
func (s *ExamService) GetRecord(ctx context.Context, actor Actor, recordID string) (*models.MedicalRecord, error) {
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
	return record, nil
}

// ListPatientRecords returns a patient's exam history, newest first.
// Patients only see their own.
func (s *ExamService) ListPatientRecords(ctx context.Context, actor Actor, patientID string) ([]models.MedicalRecord, error) {
	if err := s.guard.Authorize(actor.Role, OpViewRecord); err != nil {
		return nil, err
	}
	if actor.Role == models.RolePatient && patientID != actor.UserID {
		return nil, clinicerrors.PermissionDenied("patients may only view their own records")
	}
	return s.records.ListByPatient(ctx, patientID)
}

// ListAllRecords returns every medical record, newest first, for the
// cashier's worklist.
func (s *ExamService) ListAllRecords(ctx context.Context, actor Actor) ([]models.MedicalRecord, error) {
	if err := s.guard.Authorize(actor.Role, OpListRecords); err != nil {
		return nil, err
	}
	return s.records.ListAll(ctx)
}
