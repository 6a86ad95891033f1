package services

import (
	"RetinaCare/models"
	"RetinaCare/repositories"
	"context"
	"errors"
	"sort"
	"sync"
)

// In-memory repository fakes backed by mutexes, so the services' retry loops
// and conditional transitions run against genuinely racy state in tests.

type fakeMedicineRepo struct {
	mu        sync.Mutex
	medicines map[string]models.Medicine

	// beforeAdjust, when set, runs at the top of AdjustStockIfMatch so a
	// test can interleave a catalog edit or a competing stock move between
	// a caller's read and its compare-and-swap.
	beforeAdjust func()
}

var _ repositories.MedicineRepository = (*fakeMedicineRepo)(nil)

func newFakeMedicineRepo() *fakeMedicineRepo {
	return &fakeMedicineRepo{medicines: make(map[string]models.Medicine)}
}

func (f *fakeMedicineRepo) Create(_ context.Context, medicine *models.Medicine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.medicines[medicine.ID] = *medicine
	return nil
}

func (f *fakeMedicineRepo) UpdateCatalog(_ context.Context, medicine *models.Medicine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.medicines[medicine.ID]
	if !ok {
		return errors.New("medicine not found")
	}
	stored.Name = medicine.Name
	stored.Unit = medicine.Unit
	stored.Price = medicine.Price
	f.medicines[medicine.ID] = stored
	return nil
}

func (f *fakeMedicineRepo) GetByID(_ context.Context, id string) (*models.Medicine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	medicine, ok := f.medicines[id]
	if !ok {
		return nil, nil
	}
	copied := medicine
	return &copied, nil
}

func (f *fakeMedicineRepo) GetByName(_ context.Context, name string) (*models.Medicine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, medicine := range f.medicines {
		if medicine.Name == name {
			copied := medicine
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeMedicineRepo) GetAll(_ context.Context) ([]models.Medicine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	medicines := make([]models.Medicine, 0, len(f.medicines))
	for _, medicine := range f.medicines {
		medicines = append(medicines, medicine)
	}
	sort.Slice(medicines, func(i, j int) bool { return medicines[i].Name < medicines[j].Name })
	return medicines, nil
}

func (f *fakeMedicineRepo) AdjustStockIfMatch(_ context.Context, id string, expectedStock, delta int) (bool, error) {
	if f.beforeAdjust != nil {
		f.beforeAdjust()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	medicine, ok := f.medicines[id]
	if !ok || medicine.StockQuantity != expectedStock {
		return false, nil
	}
	if medicine.StockQuantity+delta < 0 {
		return false, errors.New("stock adjustment would go negative")
	}
	medicine.StockQuantity += delta
	f.medicines[id] = medicine
	return true, nil
}

type fakeAnalysisRepo struct {
	mu      sync.Mutex
	records map[string]models.AnalysisRecord
}

var _ repositories.AnalysisRecordRepository = (*fakeAnalysisRepo)(nil)

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{records: make(map[string]models.AnalysisRecord)}
}

func (f *fakeAnalysisRepo) Create(_ context.Context, record *models.AnalysisRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.ID] = *record
	return nil
}

func (f *fakeAnalysisRepo) GetByID(_ context.Context, id string) (*models.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	copied := record
	return &copied, nil
}

func (f *fakeAnalysisRepo) ListPending(_ context.Context) ([]models.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []models.AnalysisRecord
	for _, record := range f.records {
		if record.Status == models.AnalysisPending {
			pending = append(pending, record)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	return pending, nil
}

func (f *fakeAnalysisRepo) ListByPatient(_ context.Context, patientID string) ([]models.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []models.AnalysisRecord
	for _, record := range f.records {
		if record.PatientID == patientID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (f *fakeAnalysisRepo) Transition(_ context.Context, id string, from, to models.AnalysisStatus, notes, doctorID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok || record.Status != from {
		return false, nil
	}
	record.Status = to
	record.DoctorNotes = notes
	record.ValidatedBy = doctorID
	f.records[id] = record
	return true, nil
}

// fakeClinicStore backs the medical record, invoice, and prescription item
// repositories with one mutex, so the conditional close and the conditional
// append see the same state under the same lock the way the real store's
// transactions and row locks arrange it.
type fakeClinicStore struct {
	mu        sync.Mutex
	records   map[string]models.MedicalRecord
	invoices  map[string]models.Invoice
	items     []models.PrescriptionItem
	appendErr error

	// beforeAppend, when set, runs at the top of AppendIfOpen so a test can
	// interleave work between a caller's open check and the insert.
	beforeAppend func()
}

var (
	_ repositories.MedicalRecordRepository = (*fakeClinicStore)(nil)
	_ repositories.InvoiceRepository       = (*fakeClinicStore)(nil)
	_ repositories.PrescriptionRepository  = (*fakeClinicStore)(nil)
)

func newFakeClinicStore() *fakeClinicStore {
	return &fakeClinicStore{
		records:  make(map[string]models.MedicalRecord),
		invoices: make(map[string]models.Invoice),
	}
}

func (f *fakeClinicStore) Create(_ context.Context, record *models.MedicalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.ID] = *record
	return nil
}

func (f *fakeClinicStore) GetByID(_ context.Context, id string) (*models.MedicalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	copied := record
	return &copied, nil
}

func (f *fakeClinicStore) ListByPatient(_ context.Context, patientID string) ([]models.MedicalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var records []models.MedicalRecord
	for _, record := range f.records {
		if record.PatientID == patientID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (f *fakeClinicStore) ListAll(_ context.Context) ([]models.MedicalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	records := make([]models.MedicalRecord, 0, len(f.records))
	for _, record := range f.records {
		records = append(records, record)
	}
	return records, nil
}

func (f *fakeClinicStore) CompleteAndFreeze(_ context.Context, recordID string, freeze func(items []models.PrescriptionItem) *models.Invoice) (*models.Invoice, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[recordID]
	if !ok || record.Status != models.RecordOpen {
		return nil, false, nil
	}
	record.Status = models.RecordCompleted
	f.records[recordID] = record

	var items []models.PrescriptionItem
	for _, item := range f.items {
		if item.MedicalRecordID == recordID {
			items = append(items, item)
		}
	}
	invoice := freeze(items)
	f.invoices[recordID] = *invoice
	return invoice, true, nil
}

func (f *fakeClinicStore) GetByRecordID(_ context.Context, recordID string) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	invoice, ok := f.invoices[recordID]
	if !ok {
		return nil, nil
	}
	copied := invoice
	return &copied, nil
}

func (f *fakeClinicStore) AppendIfOpen(_ context.Context, item *models.PrescriptionItem) (bool, error) {
	if f.beforeAppend != nil {
		f.beforeAppend()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return false, f.appendErr
	}
	record, ok := f.records[item.MedicalRecordID]
	if !ok || record.Status != models.RecordOpen {
		return false, nil
	}
	item.ID = uint(len(f.items) + 1)
	f.items = append(f.items, *item)
	return true, nil
}

func (f *fakeClinicStore) ListByRecord(_ context.Context, recordID string) ([]models.PrescriptionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []models.PrescriptionItem
	for _, item := range f.items {
		if item.MedicalRecordID == recordID {
			items = append(items, item)
		}
	}
	return items, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User
}

var _ repositories.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]models.User)}
}

func (f *fakeUserRepo) EmailExists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	copied := user
	return &copied, nil
}

func (f *fakeUserRepo) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []models.User
	for _, user := range f.users {
		if user.Role == role {
			users = append(users, user)
		}
	}
	return users, nil
}

func (f *fakeUserRepo) UpdateUserPassword(_ context.Context, userID string, hashedPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	user.Password = hashedPassword
	f.users[userID] = user
	return nil
}

func (f *fakeUserRepo) DeleteUserCache(_ context.Context, _ string) error {
	return nil
}
