package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/safefloor/safefloor-backend/internal/logger"
)

const reportSystemPrompt = "You are a workplace safety analyst. You summarize " +
	"factory room entry compliance statistics for floor managers. Be concise, " +
	"concrete, and flag rooms with low approval rates first."

type ComplianceReport struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Summary     *AnalyticsSummary `json:"summary"`
	Narrative   string            `json:"narrative"`
}

// ReportService turns the per-room analytics into a narrative compliance
// report for floor managers.
type ReportService interface {
	ComplianceReport(ctx context.Context) (*ComplianceReport, error)
}

type reportService struct {
	db           *gorm.DB
	log          *logger.Logger
	entryService EntryService
	aiClient     AIClient
}

// NewReportService wires the reporting path. aiClient may be nil; the report
// then carries a plain statistical narrative instead of a generated one.
func NewReportService(db *gorm.DB, log *logger.Logger, entryService EntryService, aiClient AIClient) ReportService {
	return &reportService{
		db:           db,
		log:          log.With("service", "ReportService"),
		entryService: entryService,
		aiClient:     aiClient,
	}
}

func (rs *reportService) ComplianceReport(ctx context.Context) (*ComplianceReport, error) {
	summary, err := rs.entryService.Analytics(ctx)
	if err != nil {
		return nil, err
	}

	report := &ComplianceReport{
		GeneratedAt: time.Now().UTC(),
		Summary:     summary,
	}

	prompt := buildReportPrompt(summary)
	if rs.aiClient == nil {
		report.Narrative = plainNarrative(summary)
		return report, nil
	}

	narrative, err := rs.aiClient.Complete(ctx, reportSystemPrompt, prompt)
	if err != nil {
		rs.log.Warn("Narrative generation failed, using plain summary", "error", err)
		report.Narrative = plainNarrative(summary)
		return report, nil
	}
	report.Narrative = strings.TrimSpace(narrative)
	return report, nil
}

func buildReportPrompt(summary *AnalyticsSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room entry compliance data for %d configured rooms (%d active, %d inactive):\n\n",
		summary.TotalConfigurations, summary.ActiveConfigurations, summary.InactiveConfigurations)
	for _, room := range summary.Rooms {
		status := "active"
		if !room.IsActive {
			status = "inactive"
		}
		fmt.Fprintf(&b, "- %s (%s, threshold %.1f): %d entries, %d approved, %d denied, %d pending, approval rate %.1f%%\n",
			room.RoomName, status, room.EntryThreshold,
			room.TotalEntries, room.ApprovedEntries, room.DeniedEntries, room.PendingEntries,
			room.ApprovalRate)
	}
	b.WriteString("\nWrite a short compliance report: overall state, rooms needing attention, and one recommendation per problem room.")
	return b.String()
}

func plainNarrative(summary *AnalyticsSummary) string {
	var total, approved int
	for _, room := range summary.Rooms {
		total += room.TotalEntries
		approved += room.ApprovedEntries
	}
	rate := 0.0
	if total > 0 {
		rate = 100 * float64(approved) / float64(total)
	}
	return fmt.Sprintf("%d entries recorded across %d configured rooms; %d approved (%.1f%% overall approval rate).",
		total, summary.TotalConfigurations, approved, rate)
}
