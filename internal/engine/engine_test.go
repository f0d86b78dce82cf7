package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/unbound-force/tally/internal/record"
)

func sampleBatch() []record.Raw {
	return []record.Raw{
		{Country: "china", Population: "10", SampleSize: "10", Outcome: "Passed"},
		{Country: "Hong Kong", Population: "200", SampleSize: "10", Outcome: "Passed"},
		{Country: "VIETNAM", Population: "500", SampleSize: "30", Outcome: "Passed"},
		{Country: "Singapore", Population: "1000", SampleSize: "315", Outcome: "Failed", DefectCount: "19"},
		{Country: "Malaysia", Population: "800", SampleSize: "120", Outcome: "Failed", DefectCount: "6"},
	}
}

func TestRunBothSections(t *testing.T) {
	res, err := Run(sampleBatch(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Report.Passed == nil {
		t.Fatal("expected a passed section")
	}
	if res.Report.Failed == nil {
		t.Fatal("expected a failed section")
	}
	if res.ValidRecords != 5 {
		t.Errorf("ValidRecords = %d, want 5", res.ValidRecords)
	}
	if got := res.Report.Passed.KeyObservations.TotalTests; got != 3 {
		t.Errorf("passed Total Tests = %d, want 3", got)
	}
	if got := res.Report.Failed.KeyObservations.TotalTestsConducted; got != 2 {
		t.Errorf("failed Total Tests Conducted = %d, want 2", got)
	}
}

func TestRunCountryRatioInReport(t *testing.T) {
	// A country sampling its full population shows as 100.00%.
	res, err := Run(sampleBatch(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := res.Report.Passed.Patterns.ByCountry["CHINA"]
	if got != "100.00%" {
		t.Errorf("CHINA ratio = %q, want %q", got, "100.00%")
	}
}

func TestRunCanonicalizesCountries(t *testing.T) {
	res, err := Run(sampleBatch(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for name := range res.Report.Passed.Patterns.ByCountry {
		if name != strings.ToUpper(name) {
			t.Errorf("country %q not canonicalized", name)
		}
	}
	if _, ok := res.Report.Passed.Patterns.ByCountry["HONG KONG"]; !ok {
		t.Error("HONG KONG missing from passed patterns")
	}
}

func TestRunDropsBadRecords(t *testing.T) {
	raws := append(sampleBatch(),
		record.Raw{Country: "", Population: "10", SampleSize: "5", Outcome: "Passed"},
		record.Raw{Country: "Japan", Population: "abc", SampleSize: "5", Outcome: "Passed"},
		record.Raw{Country: "Korea", Population: "0", SampleSize: "0", Outcome: "Passed"},
	)
	res, err := Run(raws, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Dropped) != 3 {
		t.Fatalf("len(Dropped) = %d, want 3", len(res.Dropped))
	}
	if res.Dropped[0].Index != 5 {
		t.Errorf("Dropped[0].Index = %d, want 5", res.Dropped[0].Index)
	}
	if res.Dropped[1].Country != "JAPAN" {
		t.Errorf("Dropped[1].Country = %q, want JAPAN", res.Dropped[1].Country)
	}
	for _, d := range res.Dropped {
		if d.Reason == "" {
			t.Errorf("drop at index %d has no reason", d.Index)
		}
	}
	if res.ValidRecords != 5 {
		t.Errorf("ValidRecords = %d, want 5", res.ValidRecords)
	}
}

func TestRunInsufficientData(t *testing.T) {
	raws := []record.Raw{
		{Country: "", Population: "10", SampleSize: "5", Outcome: "Passed"},
	}
	_, err := Run(raws, Options{})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}

	_, err = Run(nil, Options{})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("empty batch err = %v, want ErrInsufficientData", err)
	}
}

func TestRunPassRate(t *testing.T) {
	res, err := Run(sampleBatch(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if math.Abs(res.PassRatePercent-60) > 1e-9 {
		t.Errorf("PassRatePercent = %v, want 60", res.PassRatePercent)
	}
}

func TestRunSingleOutcome(t *testing.T) {
	raws := []record.Raw{
		{Country: "China", Population: "10", SampleSize: "10", Outcome: "Passed"},
	}
	res, err := Run(raws, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Report.Passed == nil {
		t.Fatal("expected a passed section")
	}
	if res.Report.Failed != nil {
		t.Error("failed section should be nil for an all-passed batch")
	}
	if res.Failed != nil {
		t.Error("failed section data should be nil for an all-passed batch")
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	// Many records over a handful of countries: shard boundaries fall
	// inside countries' record sets only if sharding is wrong.
	countries := []string{"China", "Hong Kong", "Vietnam", "Singapore", "Malaysia", "Thailand", "Japan"}
	var raws []record.Raw
	for i := 0; i < 700; i++ {
		c := countries[i%len(countries)]
		pop := 100 + i
		size := 10 + i%90
		outcome := "Passed"
		defects := ""
		if i%3 == 0 {
			outcome = "Failed"
			defects = fmt.Sprintf("%d", i%10)
		}
		raws = append(raws, record.Raw{
			Country:     c,
			Population:  fmt.Sprintf("%d", pop),
			SampleSize:  fmt.Sprintf("%d", size),
			Outcome:     outcome,
			DefectCount: defects,
		})
	}

	seq, err := Run(raws, Options{})
	if err != nil {
		t.Fatalf("sequential Run: %v", err)
	}
	for _, workers := range []int{2, 4, 8} {
		par, err := Run(raws, Options{Workers: workers})
		if err != nil {
			t.Fatalf("parallel Run (workers=%d): %v", workers, err)
		}
		seqJSON, err := json.Marshal(seq.Report)
		if err != nil {
			t.Fatal(err)
		}
		parJSON, err := json.Marshal(par.Report)
		if err != nil {
			t.Fatal(err)
		}
		if string(seqJSON) != string(parJSON) {
			t.Errorf("workers=%d: parallel report differs from sequential\nseq: %s\npar: %s",
				workers, seqJSON, parJSON)
		}
	}
}

func TestRunIdempotent(t *testing.T) {
	first, err := Run(sampleBatch(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := Run(sampleBatch(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	a, _ := json.Marshal(first.Report)
	b, _ := json.Marshal(second.Report)
	if string(a) != string(b) {
		t.Errorf("reports differ across identical runs\nfirst:  %s\nsecond: %s", a, b)
	}
}
