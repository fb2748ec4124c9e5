package scheduler

import (
	"fmt"
	"testing"
)

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}

	if h.GetSuccessRate() != 0.0 {
		t.Error("empty history must report a zero success rate")
	}

	h.AddResult(JobResult{JobName: "recompute", Success: true})
	h.AddResult(JobResult{JobName: "recompute", Success: false, Error: "1 period(s) failed to recompute"})
	h.AddResult(JobResult{JobName: "recompute", Success: true})

	if rate := h.GetSuccessRate(); rate != 2.0/3.0 {
		t.Errorf("expected success rate 2/3, got %v", rate)
	}

	failed := h.GetFailedResults()
	if len(failed) != 1 || failed[0].Error == "" {
		t.Errorf("expected one failed result with an error, got %v", failed)
	}

	latest := h.GetLatestResults(2)
	if len(latest) != 2 || !latest[1].Success {
		t.Errorf("unexpected latest results: %v", latest)
	}
	if got := h.GetLatestResults(10); len(got) != 3 {
		t.Errorf("requesting more than stored must return everything, got %d", len(got))
	}
}

func TestJobHistoryCap(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: fmt.Sprintf("run-%d", i), Success: true})
	}

	if len(h.Results) != 100 {
		t.Errorf("history must cap at 100 results, got %d", len(h.Results))
	}
	if h.Results[0].JobName != "run-50" {
		t.Errorf("oldest results must be dropped first, got %s", h.Results[0].JobName)
	}
}
