package services

import (
	"RetinaCare/clinicerrors"
	"RetinaCare/models"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	systemActor  = Actor{UserID: "upload-service", Role: models.RoleSystem}
	doctorActor  = Actor{UserID: "doctor-1", Role: models.RoleDoctor}
	patientActor = Actor{UserID: "patient-1", Role: models.RolePatient}
	managerActor = Actor{UserID: "manager-1", Role: models.RoleClinicManager}
	adminActor   = Actor{UserID: "admin-1", Role: models.RoleAdmin}
)

func newAnalysisService() (*AnalysisService, *fakeAnalysisRepo) {
	repo := newFakeAnalysisRepo()
	return NewAnalysisService(NewAccessGuard(), repo), repo
}

func TestCreatePendingRecord(t *testing.T) {
	service, _ := newAnalysisService()

	record, err := service.CreatePendingRecord(context.Background(), systemActor, "patient-1", 72.5, "annotated.png")
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, models.AnalysisPending, record.Status)
	assert.Equal(t, 72.5, record.RiskScore)
	assert.Equal(t, "patient-1", record.PatientID)
}

func TestCreatePendingRecordRejectsBadInput(t *testing.T) {
	service, _ := newAnalysisService()
	ctx := context.Background()

	_, err := service.CreatePendingRecord(ctx, systemActor, "", 50, "img.png")
	assert.True(t, errors.Is(err, clinicerrors.ErrValidation))

	_, err = service.CreatePendingRecord(ctx, systemActor, "patient-1", 120, "img.png")
	assert.True(t, errors.Is(err, clinicerrors.ErrValidation))

	_, err = service.CreatePendingRecord(ctx, systemActor, "patient-1", -1, "img.png")
	assert.True(t, errors.Is(err, clinicerrors.ErrValidation))
}

func TestCreatePendingRecordDeniedForAccountRoles(t *testing.T) {
	service, _ := newAnalysisService()

	for _, actor := range []Actor{patientActor, doctorActor, managerActor} {
		_, err := service.CreatePendingRecord(context.Background(), actor, "patient-1", 50, "img.png")
		assert.True(t, errors.Is(err, clinicerrors.ErrPermissionDenied), "role %s", actor.Role)
	}
}

func TestValidateApprove(t *testing.T) {
	service, _ := newAnalysisService()
	ctx := context.Background()

	record, err := service.CreatePendingRecord(ctx, systemActor, "patient-1", 72.5, "img.png")
	require.NoError(t, err)

	validated, err := service.Validate(ctx, doctorActor, record.ID, true, "confirmed severe NPDR")
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisValidated, validated.Status)
	assert.Equal(t, "confirmed severe NPDR", validated.DoctorNotes)
	assert.Equal(t, doctorActor.UserID, validated.ValidatedBy)
	// The AI output is immutable through validation.
	assert.Equal(t, 72.5, validated.RiskScore)
	assert.Equal(t, "img.png", validated.AnnotatedImage)
}

func TestValidateReject(t *testing.T) {
	service, _ := newAnalysisService()
	ctx := context.Background()

	record, err := service.CreatePendingRecord(ctx, systemActor, "patient-1", 30, "img.png")
	require.NoError(t, err)

	rejected, err := service.Validate(ctx, doctorActor, record.ID, false, "image quality too low")
	require.NoError(t, err)

	assert.Equal(t, models.AnalysisRejected, rejected.Status)
	assert.Equal(t, "image quality too low", rejected.DoctorNotes)
}

func TestValidateIsSingleShot(t *testing.T) {
	service, _ := newAnalysisService()
	ctx := context.Background()

	record, err := service.CreatePendingRecord(ctx, systemActor, "patient-1", 60, "img.png")
	require.NoError(t, err)

	_, err = service.Validate(ctx, doctorActor, record.ID, true, "first decision")
	require.NoError(t, err)

	_, err = service.Validate(ctx, doctorActor, record.ID, false, "second opinion")
	assert.True(t, errors.Is(err, clinicerrors.ErrInvalidStateTransition))

	// The first decision stands untouched.
	current, err := service.GetRecord(ctx, doctorActor, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AnalysisValidated, current.Status)
	assert.Equal(t, "first decision", current.DoctorNotes)
}

func TestValidateUnknownRecord(t *testing.T) {
	service, _ := newAnalysisService()

	_, err := service.Validate(context.Background(), doctorActor, "missing", true, "")
	assert.True(t, errors.Is(err, clinicerrors.ErrNotFound))
}

func TestValidateConcurrentDoctorsExactlyOneWins(t *testing.T) {
	service, _ := newAnalysisService()
	ctx := context.Background()

	record, err := service.CreatePendingRecord(ctx, systemActor, "patient-1", 80, "img.png")
	require.NoError(t, err)

	const doctors = 8
	results := make([]error, doctors)
	var wg sync.WaitGroup
	for i := 0; i < doctors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := Actor{UserID: "doctor-racer", Role: models.RoleDoctor}
			_, results[i] = service.Validate(ctx, actor, record.ID, i%2 == 0, "racing")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		lost := errors.Is(err, clinicerrors.ErrInvalidStateTransition) ||
			errors.Is(err, clinicerrors.ErrConcurrentModification)
		assert.True(t, lost, "unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins)

	current, err := service.GetRecord(ctx, doctorActor, record.ID)
	require.NoError(t, err)
	assert.True(t, current.Status.Terminal())
}

func TestPatientSeesOnlyOwnAnalyses(t *testing.T) {
	service, _ := newAnalysisService()
	ctx := context.Background()

	record, err := service.CreatePendingRecord(ctx, systemActor, "patient-2", 40, "img.png")
	require.NoError(t, err)

	_, err = service.GetRecord(ctx, patientActor, record.ID)
	assert.True(t, errors.Is(err, clinicerrors.ErrPermissionDenied))

	_, err = service.ListPatientRecords(ctx, patientActor, "patient-2")
	assert.True(t, errors.Is(err, clinicerrors.ErrPermissionDenied))

	owner := Actor{UserID: "patient-2", Role: models.RolePatient}
	got, err := service.GetRecord(ctx, owner, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
}

func TestListPendingRecordsRequiresReviewQueueAccess(t *testing.T) {
	service, _ := newAnalysisService()
	ctx := context.Background()

	_, err := service.CreatePendingRecord(ctx, systemActor, "patient-1", 55, "img.png")
	require.NoError(t, err)

	_, err = service.ListPendingRecords(ctx, patientActor)
	assert.True(t, errors.Is(err, clinicerrors.ErrPermissionDenied))

	pending, err := service.ListPendingRecords(ctx, doctorActor)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
