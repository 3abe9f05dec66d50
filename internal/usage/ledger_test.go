package usage

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestSummarizeEmpty(t *testing.T) {
	s := NewLedger().Summarize()
	if s.TotalRequests != 0 || s.TotalCost != 0 || s.TotalTokens != (TokenTotals{}) {
		t.Fatalf("expected zero summary, got %+v", s)
	}
	if s.ByModel == nil || len(s.ByModel) != 0 {
		t.Fatalf("expected empty by-model map, got %#v", s.ByModel)
	}
}

func TestSummarizeGroupsByModel(t *testing.T) {
	l := NewLedger()
	now := time.Now()
	records := []Record{
		{Model: "a", InputTokens: 100, OutputTokens: 50, TotalTokens: 150, EstimatedCost: 0.01, Timestamp: now},
		{Model: "b", InputTokens: 10, OutputTokens: 5, TotalTokens: 15, EstimatedCost: 0.002, Timestamp: now},
		{Model: "a", InputTokens: 200, OutputTokens: 20, TotalTokens: 220, EstimatedCost: 0.03, Timestamp: now},
	}
	for _, r := range records {
		l.Record(r)
	}

	s := l.Summarize()
	if s.TotalRequests != len(records) {
		t.Fatalf("expected %d requests, got %d", len(records), s.TotalRequests)
	}
	if math.Abs(s.TotalCost-0.042) > 1e-12 {
		t.Fatalf("expected total cost 0.042, got %v", s.TotalCost)
	}
	if s.TotalTokens != (TokenTotals{Input: 310, Output: 75, Total: 385}) {
		t.Fatalf("unexpected token totals: %+v", s.TotalTokens)
	}
	a := s.ByModel["a"]
	if a.Requests != 2 || a.InputTokens != 300 || a.OutputTokens != 70 || a.TotalTokens != 370 {
		t.Fatalf("unexpected model a usage: %+v", a)
	}
	if math.Abs(a.Cost-0.04) > 1e-12 {
		t.Fatalf("expected model a cost 0.04, got %v", a.Cost)
	}
	if b := s.ByModel["b"]; b.Requests != 1 || b.TotalTokens != 15 {
		t.Fatalf("unexpected model b usage: %+v", b)
	}
}

func TestRecordsPreservesOrderAndCopies(t *testing.T) {
	l := NewLedger()
	l.Record(Record{Model: "first"})
	l.Record(Record{Model: "second"})
	got := l.Records()
	if len(got) != 2 || got[0].Model != "first" || got[1].Model != "second" {
		t.Fatalf("unexpected records: %+v", got)
	}
	got[0].Model = "mutated"
	if l.Records()[0].Model != "first" {
		t.Fatalf("Records must return a copy")
	}
}

func TestConcurrentRecordAndSummarize(t *testing.T) {
	l := NewLedger()
	const writers, perWriter = 8, 250
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				l.Record(Record{Model: "m", InputTokens: 1, OutputTokens: 2, TotalTokens: 3, EstimatedCost: 1})
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			s := l.Summarize()
			// a torn record would break the 1:2:3 token ratio
			if s.TotalTokens.Total != 3*s.TotalRequests || s.TotalTokens.Output != 2*s.TotalRequests {
				t.Errorf("inconsistent summary: %+v", s)
				return
			}
		}
	}()
	wg.Wait()
	<-done

	s := l.Summarize()
	if s.TotalRequests != writers*perWriter {
		t.Fatalf("expected %d requests, got %d", writers*perWriter, s.TotalRequests)
	}
	if s.ByModel["m"].Requests != writers*perWriter {
		t.Fatalf("unexpected per-model count: %+v", s.ByModel["m"])
	}
}
