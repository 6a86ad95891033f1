package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"patient", "doctor", "clinic_manager", "admin", "system"} {
		r, ok := ParseRole(valid)
		assert.True(t, ok, valid)
		assert.Equal(t, Role(valid), r)
	}
	for _, invalid := range []string{"", "Doctor", "DOCTOR", "receptionist", "patient "} {
		_, ok := ParseRole(invalid)
		assert.False(t, ok, invalid)
	}
}

func TestSystemIsNotAnAccountRole(t *testing.T) {
	assert.False(t, ValidAccountRole(RoleSystem))
	assert.True(t, ValidAccountRole(RoleClinicManager))
}

func TestAnalysisStatusTerminal(t *testing.T) {
	assert.False(t, AnalysisPending.Terminal())
	assert.True(t, AnalysisValidated.Terminal())
	assert.True(t, AnalysisRejected.Terminal())
}

func TestInvoiceFrozen(t *testing.T) {
	inv := &Invoice{RecordID: "r1", Total: 56000}
	assert.False(t, inv.Frozen())
}
