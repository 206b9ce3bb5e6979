package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"skills-arena/internal/domain"
)

func newUsageFixture() (*UsageService, *mockIdentity, *mockUsageRepo) {
	identity := newMockIdentity()
	usage := newMockUsageRepo()
	svc := NewUsageService(zap.NewNop(), identity, usage)
	return svc, identity, usage
}

func TestRecordUsage_AppendsAndAccumulates(t *testing.T) {
	svc, identity, usage := newUsageFixture()
	identity.add("tok-1", domain.Agent{ID: "agent-1"})
	usage.skills["skill-1"] = true

	ctx := context.Background()
	first, err := svc.RecordUsage(ctx, "skill-1", "tok-1", UsageInput{UsageCount: 3, TotalTime: 6})
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if first.RecordID == "" {
		t.Fatalf("expected a record id")
	}
	if first.Totals.UsageCount != 3 {
		t.Fatalf("unexpected totals: %+v", first.Totals)
	}

	second, err := svc.RecordUsage(ctx, "skill-1", "tok-1", UsageInput{UsageCount: 2, TotalTime: 4})
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if second.Totals.UsageCount != 5 || second.Totals.TotalTime != 10 {
		t.Fatalf("totals did not accumulate: %+v", second.Totals)
	}
	if second.Totals.AvgResponseTime != 2 {
		t.Fatalf("expected avg 2, got %v", second.Totals.AvgResponseTime)
	}

	total, err := usage.TotalForAgent(ctx, "skill-1", "agent-1")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 5 {
		t.Fatalf("per-agent total mismatch: %d", total)
	}
}

func TestRecordUsage_Errors(t *testing.T) {
	svc, identity, usage := newUsageFixture()
	identity.add("tok-1", domain.Agent{ID: "agent-1"})
	usage.skills["skill-1"] = true

	ctx := context.Background()
	if _, err := svc.RecordUsage(ctx, "skill-1", "tok-1", UsageInput{UsageCount: -1}); !errors.Is(err, ErrInvalidUsage) {
		t.Fatalf("expected ErrInvalidUsage, got %v", err)
	}
	if _, err := svc.RecordUsage(ctx, "skill-1", "tok-nope", UsageInput{UsageCount: 1}); !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("usage hard-fails on unknown agent, got %v", err)
	}
	if _, err := svc.RecordUsage(ctx, "skill-missing", "tok-1", UsageInput{UsageCount: 1}); !errors.Is(err, ErrSkillNotFound) {
		t.Fatalf("expected ErrSkillNotFound, got %v", err)
	}
}
