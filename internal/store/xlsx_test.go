package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestXLSX_AppendAndReadAll(t *testing.T) {
	s, err := OpenXLSX(filepath.Join(t.TempDir(), "records.xlsx"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	testAppendAndReadAll(t, s)
}

func TestXLSX_FailedSaveRollsBack(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(dir, "records.xlsx")
	ctx := context.Background()

	s, err := OpenXLSX(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.Append(ctx, "Submissions", Row{"user_id": "S001", "status": "INITIAL"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Replace the directory with a plain file so the save fails.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	if err := os.WriteFile(dir, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := s.Append(ctx, "Submissions", Row{"user_id": "S002", "status": "INITIAL", "group": "A"}); err == nil {
		t.Fatal("expected append to fail")
	}

	rows, err := s.ReadAll(ctx, "Submissions")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 1 || rows[0].Get("user_id") != "S001" {
		t.Fatalf("rows after failed append = %v, want only S001", rows)
	}

	if err := os.Remove(dir); err != nil {
		t.Fatalf("remove file: %v", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := s.Append(ctx, "Submissions", Row{"user_id": "S003", "status": "INITIAL"}); err != nil {
		t.Fatalf("append after recovery: %v", err)
	}

	reopened, err := OpenXLSX(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	rows, err = reopened.ReadAll(ctx, "Submissions")
	if err != nil {
		t.Fatalf("read reopened: %v", err)
	}
	if len(rows) != 2 || rows[1].Get("user_id") != "S003" {
		t.Fatalf("persisted rows = %v, want S001 and S003", rows)
	}
	if rows[0].Get("group") != "" {
		t.Fatalf("header from failed append leaked: %v", rows[0])
	}
}

func TestXLSX_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.xlsx")
	ctx := context.Background()

	s, err := OpenXLSX(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Append(ctx, "Traces", Row{"user_id": "S001", "event_type": "CHAT_TURN"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	s.Close()

	s, err = OpenXLSX(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	rows, err := s.ReadAll(ctx, "Traces")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 1 || rows[0].Get("Event_Type") != "CHAT_TURN" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestXLSX_MissingSheetReadsEmpty(t *testing.T) {
	s, err := OpenXLSX(filepath.Join(t.TempDir(), "records.xlsx"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	rows, err := s.ReadAll(context.Background(), "Assignments")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
}
