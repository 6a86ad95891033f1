package services

import (
	"RetinaCare/clinicerrors"
	"RetinaCare/models"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExamFixture(t *testing.T) (*ExamService, *fakeClinicStore) {
	t.Helper()
	guard := NewAccessGuard()
	records := newFakeClinicStore()
	users := newFakeUserRepo()
	err := users.CreateUser(context.Background(), &models.User{
		ID:       "patient-1",
		FullName: "Test Patient",
		Email:    "patient@example.com",
		Role:     models.RolePatient,
		IsActive: true,
	})
	require.NoError(t, err)
	return NewExamService(guard, records, users), records
}

func TestCreateExam(t *testing.T) {
	service, _ := newExamFixture(t)

	record, err := service.CreateExam(context.Background(), doctorActor, "patient-1", "severe NPDR", "follow up in 2 weeks", 60000)
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, models.RecordOpen, record.Status)
	assert.Equal(t, doctorActor.UserID, record.DoctorID)
	assert.Equal(t, 60000.0, record.ExamFee)
}

func TestCreateExamDefaultsFee(t *testing.T) {
	service, _ := newExamFixture(t)

	record, err := service.CreateExam(context.Background(), doctorActor, "patient-1", "mild NPDR", "", 0)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultExamFee, record.ExamFee)
}

func TestCreateExamRejectsNegativeFee(t *testing.T) {
	service, _ := newExamFixture(t)

	_, err := service.CreateExam(context.Background(), doctorActor, "patient-1", "mild NPDR", "", -100)
	assert.True(t, errors.Is(err, clinicerrors.ErrValidation))
}

func TestCreateExamRequiresDiagnosis(t *testing.T) {
	service, _ := newExamFixture(t)

	_, err := service.CreateExam(context.Background(), doctorActor, "patient-1", "", "", 0)
	assert.True(t, errors.Is(err, clinicerrors.ErrValidation))
}

func TestCreateExamUnknownPatient(t *testing.T) {
	service, _ := newExamFixture(t)

	_, err := service.CreateExam(context.Background(), doctorActor, "ghost", "mild NPDR", "", 0)
	assert.True(t, errors.Is(err, clinicerrors.ErrNotFound))
}

func TestCreateExamRequiresDoctorRole(t *testing.T) {
	service, _ := newExamFixture(t)

	for _, actor := range []Actor{patientActor, managerActor} {
		_, err := service.CreateExam(context.Background(), actor, "patient-1", "mild NPDR", "", 0)
		assert.True(t, errors.Is(err, clinicerrors.ErrPermissionDenied), "role %s", actor.Role)
	}
}

func TestGetRecordPatientOwnership(t *testing.T) {
	service, _ := newExamFixture(t)
	ctx := context.Background()

	record, err := service.CreateExam(ctx, doctorActor, "patient-1", "mild NPDR", "", 0)
	require.NoError(t, err)

	_, err = service.GetRecord(ctx, Actor{UserID: "patient-2", Role: models.RolePatient}, record.ID)
	assert.True(t, errors.Is(err, clinicerrors.ErrPermissionDenied))

	got, err := service.GetRecord(ctx, patientActor, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
}

func TestListAllRecordsIsStaffOnly(t *testing.T) {
	service, _ := newExamFixture(t)
	ctx := context.Background()

	_, err := service.CreateExam(ctx, doctorActor, "patient-1", "mild NPDR", "", 0)
	require.NoError(t, err)

	_, err = service.ListAllRecords(ctx, patientActor)
	assert.True(t, errors.Is(err, clinicerrors.ErrPermissionDenied))

	_, err = service.ListAllRecords(ctx, doctorActor)
	assert.True(t, errors.Is(err, clinicerrors.ErrPermissionDenied))

	records, err := service.ListAllRecords(ctx, managerActor)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
