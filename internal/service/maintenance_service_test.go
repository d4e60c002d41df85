package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

type fakeRepairer struct {
	orphaned    int
	repairCalls int
}

func (f *fakeRepairer) CountOrphanedItems(context.Context) (int, error) {
	return f.orphaned, nil
}

func (f *fakeRepairer) RepairDeletedQuestionRefs(context.Context) (int64, error) {
	f.repairCalls++
	n := f.orphaned
	f.orphaned = 0
	return int64(n), nil
}

func TestRepairSnapshots(t *testing.T) {
	repairer := &fakeRepairer{orphaned: 4}
	svc := NewMaintenanceService(repairer, nil, zerolog.Nop())

	res, err := svc.RepairSnapshots(context.Background())
	if err != nil {
		t.Fatalf("RepairSnapshots: %v", err)
	}
	if res.Orphaned != 4 || res.Repaired != 4 {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, err = svc.RepairSnapshots(context.Background())
	if err != nil {
		t.Fatalf("second RepairSnapshots: %v", err)
	}
	if res.Repaired != 0 || repairer.repairCalls != 1 {
		t.Fatalf("repair must be a no-op when nothing is orphaned: %+v, calls=%d", res, repairer.repairCalls)
	}
}
