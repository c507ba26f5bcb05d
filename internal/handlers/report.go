package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/safefloor/safefloor-backend/internal/logger"
	"github.com/safefloor/safefloor-backend/internal/services"
)

type ReportHandler struct {
	log           *logger.Logger
	reportService services.ReportService
}

func NewReportHandler(log *logger.Logger, reportService services.ReportService) *ReportHandler {
	return &ReportHandler{
		log:           log.With("handler", "ReportHandler"),
		reportService: reportService,
	}
}

// POST /api/reports/compliance
func (rh *ReportHandler) Compliance(c *gin.Context) {
	report, err := rh.reportService.ComplianceReport(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, report)
}
