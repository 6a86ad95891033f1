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

type billingFixture struct {
	billing      *BillingService
	prescription *PrescriptionService
	pharmacy     *PharmacyService
	store        *fakeClinicStore
	medicines    *fakeMedicineRepo
}

func newBillingFixture() *billingFixture {
	guard := NewAccessGuard()
	medicines := newFakeMedicineRepo()
	store := newFakeClinicStore()
	pharmacy := NewPharmacyService(guard, medicines)
	return &billingFixture{
		billing:      NewBillingService(guard, store, store, store),
		prescription: NewPrescriptionService(guard, store, store, pharmacy),
		pharmacy:     pharmacy,
		store:        store,
		medicines:    medicines,
	}
}

func (f *billingFixture) seedRecord(t *testing.T, id string, examFee float64) {
	t.Helper()
	err := f.store.Create(context.Background(), &models.MedicalRecord{
		ID:        id,
		PatientID: "patient-1",
		DoctorID:  doctorActor.UserID,
		Diagnosis: "severe NPDR",
		Status:    models.RecordOpen,
		ExamFee:   examFee,
	})
	require.NoError(t, err)
}

func TestComputeInvoiceSumsSnapshots(t *testing.T) {
	f := newBillingFixture()
	ctx := context.Background()
	f.seedRecord(t, "r1", models.DefaultExamFee)
	seedMedicine(t, f.medicines, "m1", 2000, 10)

	_, err := f.prescription.AddItem(ctx, doctorActor, "r1", "m1", 3)
	require.NoError(t, err)

	invoice, err := f.billing.ComputeInvoice(ctx, managerActor, "r1")
	require.NoError(t, err)

	assert.Equal(t, 50000.0, invoice.ExamFee)
	assert.Equal(t, 6000.0, invoice.MedicineFee)
	assert.Equal(t, 56000.0, invoice.Total)
	assert.False(t, invoice.Frozen())
}

func TestComputeInvoiceZeroItems(t *testing.T) {
	f := newBillingFixture()
	f.seedRecord(t, "r1", 30000)

	invoice, err := f.billing.ComputeInvoice(context.Background(), managerActor, "r1")
	require.NoError(t, err)

	assert.Equal(t, 0.0, invoice.MedicineFee)
	assert.Equal(t, 30000.0, invoice.Total)
}

func TestComputeInvoiceUnknownRecord(t *testing.T) {
	f := newBillingFixture()

	_, err := f.billing.ComputeInvoice(context.Background(), managerActor, "missing")
	assert.True(t, errors.Is(err, clinicerrors.ErrNotFound))
}

func TestComputeInvoicePatientOwnership(t *testing.T) {
	f := newBillingFixture()
	ctx := context.Background()
	f.seedRecord(t, "r1", 30000)

	_, err := f.billing.ComputeInvoice(ctx, Actor{UserID: "patient-2", Role: models.RolePatient}, "r1")
	assert.True(t, errors.Is(err, clinicerrors.ErrPermissionDenied))

	invoice, err := f.billing.ComputeInvoice(ctx, patientActor, "r1")
	require.NoError(t, err)
	assert.Equal(t, 30000.0, invoice.Total)
}

// Updating the catalog price after dispensation must not move the invoice:
// the dispensed line keeps its snapshot.
func TestInvoiceUnaffectedByLaterPriceEdit(t *testing.T) {
	f := newBillingFixture()
	ctx := context.Background()
	f.seedRecord(t, "r1", models.DefaultExamFee)
	seedMedicine(t, f.medicines, "m1", 2000, 10)

	_, err := f.prescription.AddItem(ctx, doctorActor, "r1", "m1", 3)
	require.NoError(t, err)

	_, err = f.pharmacy.UpdateMedicine(ctx, managerActor, "m1", "medicine-m1", "tablet", 5000)
	require.NoError(t, err)

	invoice, err := f.billing.ComputeInvoice(ctx, managerActor, "r1")
	require.NoError(t, err)
	assert.Equal(t, 6000.0, invoice.MedicineFee)
	assert.Equal(t, 56000.0, invoice.Total)
}

func TestConfirmPaymentFreezesInvoiceAndClosesRecord(t *testing.T) {
	f := newBillingFixture()
	ctx := context.Background()
	f.seedRecord(t, "r1", models.DefaultExamFee)
	seedMedicine(t, f.medicines, "m1", 2000, 10)

	_, err := f.prescription.AddItem(ctx, doctorActor, "r1", "m1", 3)
	require.NoError(t, err)

	invoice, err := f.billing.ConfirmPayment(ctx, managerActor, "r1")
	require.NoError(t, err)

	assert.True(t, invoice.Frozen())
	assert.Equal(t, managerActor.UserID, invoice.ConfirmedBy)
	assert.Equal(t, 56000.0, invoice.Total)

	record, err := f.store.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RecordCompleted, record.Status)

	// The record is closed: no further dispensation.
	_, err = f.prescription.AddItem(ctx, doctorActor, "r1", "m1", 1)
	assert.True(t, errors.Is(err, clinicerrors.ErrInvalidStateTransition))

	// Reads now return the frozen row verbatim.
	frozen, err := f.billing.ComputeInvoice(ctx, managerActor, "r1")
	require.NoError(t, err)
	assert.True(t, frozen.Frozen())
	assert.Equal(t, invoice.Total, frozen.Total)
}

func TestConfirmPaymentTwiceFails(t *testing.T) {
	f := newBillingFixture()
	ctx := context.Background()
	f.seedRecord(t, "r1", models.DefaultExamFee)

	_, err := f.billing.ConfirmPayment(ctx, managerActor, "r1")
	require.NoError(t, err)

	_, err = f.billing.ConfirmPayment(ctx, managerActor, "r1")
	assert.True(t, errors.Is(err, clinicerrors.ErrInvalidStateTransition))
}

func TestConfirmPaymentRequiresCashierRole(t *testing.T) {
	f := newBillingFixture()
	f.seedRecord(t, "r1", models.DefaultExamFee)

	for _, actor := range []Actor{patientActor, doctorActor} {
		_, err := f.billing.ConfirmPayment(context.Background(), actor, "r1")
		assert.True(t, errors.Is(err, clinicerrors.ErrPermissionDenied), "role %s", actor.Role)
	}
}

func TestConfirmPaymentConcurrentExactlyOneWins(t *testing.T) {
	f := newBillingFixture()
	ctx := context.Background()
	f.seedRecord(t, "r1", models.DefaultExamFee)

	const cashiers = 8
	results := make([]error, cashiers)
	var wg sync.WaitGroup
	for i := 0; i < cashiers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.billing.ConfirmPayment(ctx, managerActor, "r1")
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

	invoice, err := f.store.GetByRecordID(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, invoice)
	assert.True(t, invoice.Frozen())
}
