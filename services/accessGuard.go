package services

import (
	"RetinaCare/clinicerrors"
	"RetinaCare/models"
)

// Actor is the explicit caller context every core operation receives. The
// core never infers identity or role from ambient state; the API layer
// builds an Actor from the verified token claims and passes it down.
type Actor struct {
	UserID string
	Role   models.Role
}

// Operation names a capability the guard can grant. Operations are coarse;
// ownership refinements (a patient seeing only their own records) live in
// the services, on top of the guard's decision.
type Operation string

const (
	OpCreateAnalysis      Operation = "analysis:create"
	OpListPendingAnalyses Operation = "analysis:list_pending"
	OpViewAnalysis        Operation = "analysis:view"
	OpValidateAnalysis    Operation = "analysis:validate"

	OpCreateExam  Operation = "exam:create"
	OpViewRecord  Operation = "record:view"
	OpListRecords Operation = "record:list_all"

	OpAddPrescriptionItem Operation = "prescription:add_item"

	OpViewInvoice    Operation = "invoice:view"
	OpConfirmPayment Operation = "invoice:confirm_payment"

	OpManageCatalog Operation = "medicine:manage"
	OpListMedicines Operation = "medicine:list"
)

// capabilities is the single authority for role -> operation grants. Every
// mutating service operation consults it before touching state, so role
// checks are never re-implemented at call sites.
var capabilities = map[models.Role]map[Operation]struct{}{
	models.RolePatient: {
		OpViewAnalysis:  {},
		OpViewRecord:    {},
		OpViewInvoice:   {},
		OpListMedicines: {},
	},
	models.RoleDoctor: {
		OpListPendingAnalyses: {},
		OpViewAnalysis:        {},
		OpValidateAnalysis:    {},
		OpCreateExam:          {},
		OpViewRecord:          {},
		OpAddPrescriptionItem: {},
		OpViewInvoice:         {},
		OpListMedicines:       {},
	},
	models.RoleClinicManager: {
		OpViewAnalysis:   {},
		OpViewRecord:     {},
		OpListRecords:    {},
		OpViewInvoice:    {},
		OpConfirmPayment: {},
		OpManageCatalog:  {},
		OpListMedicines:  {},
	},
	models.RoleAdmin: {
		OpListPendingAnalyses: {},
		OpViewAnalysis:        {},
		OpViewRecord:          {},
		OpListRecords:         {},
		OpViewInvoice:         {},
		OpConfirmPayment:      {},
		OpManageCatalog:       {},
		OpListMedicines:       {},
	},
	models.RoleSystem: {
		OpCreateAnalysis: {},
	},
}

// AccessGuard maps a caller's role to the operations it may invoke.
type AccessGuard struct{}

func NewAccessGuard() *AccessGuard {
	return &AccessGuard{}
}

// Authorize returns nil when role may invoke op, a PermissionDenied error
// otherwise. Unknown roles deny everything.
func (g *AccessGuard) Authorize(role models.Role, op Operation) error {
	if ops, ok := capabilities[role]; ok {
		if _, allowed := ops[op]; allowed {
			return nil
		}
	}
	return clinicerrors.PermissionDenied("role %q may not perform %s", role, op)
}
