package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/safefloor/safefloor-backend/internal/types"
)

type fakeAIClient struct {
	system    string
	prompt    string
	narrative string
	err       error
	calls     int
}

func (f *fakeAIClient) Complete(ctx context.Context, system string, user string) (string, error) {
	f.calls++
	f.system = system
	f.prompt = user
	if f.err != nil {
		return "", f.err
	}
	return f.narrative, nil
}

func TestComplianceReportUsesAIClient(t *testing.T) {
	env := newEntryEnv(t)
	ai := &fakeAIClient{narrative: "All rooms nominal."}
	svc := NewReportService(env.db, testLogger(t), env.entries, ai)

	env.mustPolicy(t, productionFloorPolicy())
	user := env.mustUser(t, "Ada Osei")
	if _, err := env.entries.Create(context.Background(), CreateEntryInput{
		UserID: user.ID, RoomName: "production-floor",
		Equipment: types.EquipmentMap{"mask": true, "gloves": true, "hairnet": true},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	report, err := svc.ComplianceReport(context.Background())
	if err != nil {
		t.Fatalf("ComplianceReport: %v", err)
	}
	if report.Narrative != "All rooms nominal." {
		t.Fatalf("narrative: %q", report.Narrative)
	}
	if ai.calls != 1 {
		t.Fatalf("ai calls: want=1 got=%d", ai.calls)
	}
	if !strings.Contains(ai.prompt, "production-floor") {
		t.Fatalf("prompt missing room name: %q", ai.prompt)
	}
	if !strings.Contains(ai.prompt, "1 entries, 1 approved") {
		t.Fatalf("prompt missing entry stats: %q", ai.prompt)
	}
	if report.Summary == nil || report.Summary.TotalConfigurations != 1 {
		t.Fatalf("summary missing from report")
	}
}

func TestComplianceReportWithoutAIClient(t *testing.T) {
	env := newEntryEnv(t)
	svc := NewReportService(env.db, testLogger(t), env.entries, nil)

	env.mustPolicy(t, productionFloorPolicy())
	report, err := svc.ComplianceReport(context.Background())
	if err != nil {
		t.Fatalf("ComplianceReport: %v", err)
	}
	if !strings.Contains(report.Narrative, "0 entries recorded across 1 configured rooms") {
		t.Fatalf("plain narrative wrong: %q", report.Narrative)
	}
}

func TestComplianceReportFallsBackOnAIFailure(t *testing.T) {
	env := newEntryEnv(t)
	ai := &fakeAIClient{err: fmt.Errorf("upstream down")}
	svc := NewReportService(env.db, testLogger(t), env.entries, ai)

	env.mustPolicy(t, productionFloorPolicy())
	report, err := svc.ComplianceReport(context.Background())
	if err != nil {
		t.Fatalf("report must survive AI failure: %v", err)
	}
	if report.Narrative == "" || strings.Contains(report.Narrative, "upstream") {
		t.Fatalf("fallback narrative wrong: %q", report.Narrative)
	}
}
