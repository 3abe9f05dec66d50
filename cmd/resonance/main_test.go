package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/resonance/config"
	"github.com/mohammad-safakhou/resonance/internal/pipeline"
	"github.com/mohammad-safakhou/resonance/internal/queue/streams"
)

func TestPrintEnvelope(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)
	progress, _ := json.Marshal(pipeline.Event{RunID: "0123456789", StageID: "pain_taxonomy_1", Status: pipeline.StatusError, Error: "boom"})
	done, _ := json.Marshal(streams.RunSummary{RunID: "0123456789", ClientName: "Acme", Items: 2, TotalCost: 0.25})

	var buf bytes.Buffer
	if err := printEnvelope(&buf, streams.Envelope{EventType: streams.EventStageProgress, OccurredAt: at, Data: progress}); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if err := printEnvelope(&buf, streams.Envelope{EventType: streams.EventRunCompleted, OccurredAt: at, Data: done}); err != nil {
		t.Fatalf("completed: %v", err)
	}
	if err := printEnvelope(&buf, streams.Envelope{EventType: "other"}); err == nil {
		t.Fatalf("expected error for unknown event type")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if want := "12:30:00 01234567 [error   ] pain_taxonomy_1: boom"; lines[0] != want {
		t.Fatalf("expected %q, got %q", want, lines[0])
	}
	if !strings.Contains(lines[1], "run for Acme complete (2 personas, 0 failed stages, $0.2500)") {
		t.Fatalf("unexpected summary line %q", lines[1])
	}
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	obs := printProgress(&buf)
	obs(pipeline.Event{StageID: "data_ingestion", Status: pipeline.StatusRunning})
	obs(pipeline.Event{StageID: "data_ingestion", Status: pipeline.StatusError, Error: "timeout"})

	want := "[running ] data_ingestion\n[error   ] data_ingestion: timeout\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestReadRequest(t *testing.T) {
	a := &app{cfg: &config.Config{Pipeline: config.PipelineConfig{}.Normalize()}}
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	if err := os.WriteFile(good, []byte(`{"client_name":"Acme","website_url":"https://acme.example","industry":"SaaS","business_model":"b2c"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	req, err := a.readRequest(good)
	if err != nil {
		t.Fatalf("readRequest: %v", err)
	}
	if req.NumICPs != 3 || req.BusinessModel != "B2C" {
		t.Fatalf("expected normalized request, got %+v", req)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"client_name":"Acme","website_url":"https://acme.example","industry":"SaaS","business_model":"B2B","num_icps":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := a.readRequest(bad); err == nil {
		t.Fatalf("expected validation error for num_icps below minimum")
	}
	if _, err := a.readRequest(""); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
