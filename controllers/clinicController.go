package controllers

import (
	"RetinaCare/handlers"

	"github.com/gin-gonic/gin"
)

// SetupClinicRoutes registers the clinical workflow routes: AI analysis
// intake and validation, exam records, prescriptions, pharmacy catalog and
// billing. The caller mounts these on an authenticated group.
func SetupClinicRoutes(router gin.IRoutes, analysisHandler *handlers.AnalysisHandler, examHandler *handlers.ExamHandler, prescriptionHandler *handlers.PrescriptionHandler, pharmacyHandler *handlers.PharmacyHandler, billingHandler *handlers.BillingHandler) {
	router.POST("/analyses", analysisHandler.CreatePendingRecord)
	router.GET("/analyses/pending", analysisHandler.ListPendingRecords)
	router.GET("/analyses/:id", analysisHandler.GetRecord)
	router.POST("/analyses/:id/validate", analysisHandler.Validate)
	router.GET("/patients/:patient_id/analyses", analysisHandler.ListPatientRecords)

	router.POST("/records", examHandler.CreateExam)
	router.GET("/records", examHandler.ListAllRecords)
	router.GET("/records/:record_id", examHandler.GetRecord)
	router.GET("/patients/:patient_id/records", examHandler.ListPatientRecords)

	router.POST("/records/:record_id/prescriptions", prescriptionHandler.AddItems)
	router.GET("/records/:record_id/prescriptions", prescriptionHandler.ListItems)

	router.GET("/records/:record_id/invoice", billingHandler.GetInvoice)
	router.POST("/records/:record_id/payment", billingHandler.ConfirmPayment)

	router.POST("/medicines", pharmacyHandler.AddMedicine)
	router.GET("/medicines", pharmacyHandler.ListMedicines)
	router.GET("/medicines/:id", pharmacyHandler.GetMedicine)
	router.PUT("/medicines/:id", pharmacyHandler.UpdateMedicine)
	router.POST("/medicines/:id/restock", pharmacyHandler.Restock)
}
