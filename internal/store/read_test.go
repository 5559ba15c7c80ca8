package store

import (
	"context"
	"testing"

	"github.com/roach88/streamparse/internal/ir"
)

func TestReadRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := createTestRun("run-1", "odd_then_even")
	run.Pass = false
	run.Status = "suffix_error"
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	got, err := s.ReadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	run.Seq = 1
	if got != run {
		t.Errorf("ReadRun() = %+v, want %+v", got, run)
	}
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background(), "")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if runs == nil {
		t.Error("ListRuns() returned nil, want empty slice")
	}
}

func TestListRuns_FiltersByScenario(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, r := range []Run{
		createTestRun("run-1", "alpha"),
		createTestRun("run-2", "beta"),
		createTestRun("run-3", "alpha"),
	} {
		if err := s.WriteRun(ctx, r); err != nil {
			t.Fatalf("WriteRun() failed: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, "alpha")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-1" || runs[1].ID != "run-3" {
		t.Errorf("ListRuns(alpha) = %+v, want run-1 and run-3", runs)
	}
}

func TestReadEvents_PreservesPayloads(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	big := ir.Int(9007199254740993) // 2^53 + 1
	events := []Event{
		{Seq: 1, Channel: "output", Kind: "match", Payload: ir.Object{"value": big}},
		{Seq: 2, Channel: "suffix", Kind: "token", Payload: ir.String("<a&b>")},
		{Seq: 3, Channel: "suffix", Kind: "token", Payload: nil},
	}
	if err := s.RecordRun(ctx, createTestRun("run-1", "scenario"), events); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	got, err := s.ReadEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadEvents() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadEvents() = %d events, want 3", len(got))
	}
	if !ir.Equal(got[0].Payload, ir.Object{"value": big}) {
		t.Errorf("payload[0] = %#v, large integer lost precision", got[0].Payload)
	}
	if !ir.Equal(got[1].Payload, ir.String("<a&b>")) {
		t.Errorf("payload[1] = %#v", got[1].Payload)
	}
	if _, ok := got[2].Payload.(ir.Null); !ok {
		t.Errorf("payload[2] = %#v, want Null", got[2].Payload)
	}
}

func TestReadChannel(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.RecordRun(ctx, createTestRun("run-1", "scenario"), createTestEvents()); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	got, err := s.ReadChannel(ctx, "run-1", "suffix")
	if err != nil {
		t.Fatalf("ReadChannel() failed: %v", err)
	}
	if len(got) != 1 || got[0].Seq != 2 || got[0].Kind != "token" {
		t.Errorf("ReadChannel(suffix) = %+v, want the single token event", got)
	}
}
