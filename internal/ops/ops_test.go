package ops

import "testing"

func TestOperationLifecycle(t *testing.T) {
	s := NewStore()
	id := s.Create("convert_directory")

	op, ok := s.Get(id)
	if !ok || op.Status != StatusPending {
		t.Fatalf("unexpected op %+v", op)
	}

	s.Start(id)
	s.AddFile(id, FileOutcome{Path: "a.pdf", Success: true, OutputPath: "a.md"})
	s.AddFile(id, FileOutcome{Path: "b.pdf", Error: "broken"})
	s.AddFile(id, FileOutcome{Path: "c.bin", Skipped: true})
	s.Complete(id, "out.zip")

	op, _ = s.Get(id)
	if op.Status != StatusCompleted {
		t.Fatalf("expected completed got %s", op.Status)
	}
	if op.Total != 3 || op.Converted != 1 || op.Failed != 1 || op.Skipped != 1 {
		t.Fatalf("unexpected counters %+v", op)
	}
	if op.ArchivePath != "out.zip" {
		t.Fatalf("archive path lost: %q", op.ArchivePath)
	}
	if op.FinishedAt == nil {
		t.Fatal("expected finished timestamp")
	}
}

func TestFail(t *testing.T) {
	s := NewStore()
	id := s.Create("convert_directory")
	s.Fail(id, "input dir missing")
	op, _ := s.Get(id)
	if op.Status != StatusFailed || op.Error != "input dir missing" {
		t.Fatalf("unexpected op %+v", op)
	}
}

func TestGetUnknown(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get("nope"); ok {
		t.Fatal("expected missing operation")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewStore()
	id := s.Create("convert_directory")
	s.AddFile(id, FileOutcome{Path: "a.pdf", Success: true})
	snap, _ := s.Get(id)
	snap.Files[0].Path = "mutated"
	fresh, _ := s.Get(id)
	if fresh.Files[0].Path != "a.pdf" {
		t.Fatal("snapshot must not alias store state")
	}
}

func TestCounts(t *testing.T) {
	s := NewStore()
	s.Create("x")
	b := s.Create("x")
	s.Start(b)
	c := s.Create("x")
	s.Fail(c, "err")
	counts := s.Counts()
	if counts[StatusPending] != 1 || counts[StatusRunning] != 1 || counts[StatusFailed] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
