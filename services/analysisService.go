package services

import (
	"RetinaCare/clinicerrors"
	"RetinaCare/models"
	"RetinaCare/repositories"
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// AnalysisService owns the analysis-record lifecycle: the upload
// collaborator creates pending records, doctors move them to a terminal
// state exactly once.
type AnalysisService struct {
	guard   *AccessGuard
	records repositories.AnalysisRecordRepository
}

func NewAnalysisService(guard *AccessGuard, records repositories.AnalysisRecordRepository) *AnalysisService {
	return &AnalysisService{guard: guard, records: records}
}

// CreatePendingRecord registers the AI collaborator's output as a pending
// analysis record awaiting clinical review.
func (s *AnalysisService) CreatePendingRecord(ctx context.Context, actor Actor, patientID string, riskScore float64, annotatedImage string) (*models.AnalysisRecord, error) {
	if err := s.guard.Authorize(actor.Role, OpCreateAnalysis); err != nil {
		return nil, err
	}

	err := validation.Errors{
		"patient_id": validation.Validate(patientID, validation.Required),
		"risk_score": validation.Validate(riskScore, validation.Min(0.0), validation.Max(100.0)),
	}.Filter()
	if err != nil {
		return nil, clinicerrors.Validation("invalid analysis input: %v", err)
	}

	record := &models.AnalysisRecord{
		ID:             uuid.New().String(),
		PatientID:      patientID,
		RiskScore:      riskScore,
		AnnotatedImage: annotatedImage,
		Status:         models.AnalysisPending,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListPendingRecords returns the review queue, oldest first.
func (s *AnalysisService) ListPendingRecords(ctx context.Context, actor Actor) ([]models.AnalysisRecord, error) {
	if err := s.guard.Authorize(actor.Role, OpListPendingAnalyses); err != nil {
		return nil, err
	}
	return s.records.ListPending(ctx)
}

// GetRecord returns one analysis record. Patients only see their own.
func (s *AnalysisService) GetRecord(ctx context.Context, actor Actor, recordID string) (*models.AnalysisRecord, error) {
	if err := s.guard.Authorize(actor.Role, OpViewAnalysis); err != nil {
		return nil, err
	}
	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, clinicerrors.NotFound("analysis record %s not found", recordID)
	}
	if actor.Role == models.RolePatient && record.PatientID != actor.UserID {
		return nil, clinicerrors.PermissionDenied("patients may only view their own analyses")
	}
	return record, nil
}

// ListPatientRecords returns a patient's analysis history. Patients only
// see their own.
func (s *AnalysisService) ListPatientRecords(ctx context.Context, actor Actor, patientID string) ([]models.AnalysisRecord, error) {
	if err := s.guard.Authorize(actor.Role, OpViewAnalysis); err != nil {
		return nil, err
	}
	if actor.Role == models.RolePatient && patientID != actor.UserID {
		return nil, clinicerrors.PermissionDenied("patients may only view their own analyses")
	}
	return s.records.ListByPatient(ctx, patientID)
}

// Validate resolves a pending record to validated or rejected. The
// transition is single-shot: a non-pending record fails with
// InvalidStateTransition rather than being silently ignored, and a lost
// race against a concurrent validator surfaces as ConcurrentModification.
// Risk score and image are never touched.
func (s *AnalysisService) Validate(ctx context.Context, actor Actor, recordID string, approved bool, notes string) (*models.AnalysisRecord, error) {
	if err := s.guard.Authorize(actor.Role, OpValidateAnalysis); err != nil {
		return nil, err
	}

	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, clinicerrors.NotFound("analysis record %s not found", recordID)
	}
	if record.Status != models.AnalysisPending {
		return nil, clinicerrors.InvalidStateTransition("analysis record %s is already %s", recordID, record.Status)
	}

	to := models.AnalysisRejected
	if approved {
		to = models.AnalysisValidated
	}

	won, err := s.records.Transition(ctx, recordID, models.AnalysisPending, to, notes, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, clinicerrors.ConcurrentModification("analysis record %s was validated concurrently", recordID)
	}

	updated, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}
