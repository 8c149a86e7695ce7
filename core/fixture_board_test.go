package core

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const fixtureBoard = "Vacuum_PCB_OBjects.json"

func loadFixture(t *testing.T) *TraceService {
	t.Helper()
	path := filepath.Join("testdata", fixtureBoard)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		t.Skipf("fixture board %s not present", path)
	}
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	svc := NewTraceService(DefaultEngineConfig())
	if _, err := svc.Load(context.Background(), f); err != nil {
		t.Fatalf("Load fixture: %v", err)
	}
	return svc
}

func TestFixtureBoard_KnownLengths(t *testing.T) {
	svc := loadFixture(t)
	ctx := context.Background()

	cases := []struct {
		a, b string
		want float64 // mm; negative means no path
	}{
		{"U1.11", "R66.1", 5.30688},
		{"R76.1", "U1.37", 40.3965},
		{"U1.66", "C28.2", -1},
		{"U1.61", "C43.2", 5.90118},
		{"U1.20", "C3.2", 2.09999},
	}
	for _, tc := range cases {
		got, ok := svc.TraceLength(ctx, ref(tc.a), ref(tc.b))
		if tc.want < 0 {
			if ok {
				t.Errorf("%s-%s: expected no path, got %v mm", tc.a, tc.b, got)
			}
			continue
		}
		if !ok {
			t.Errorf("%s-%s: expected a path", tc.a, tc.b)
			continue
		}
		if math.Abs(got-tc.want) > 0.1 {
			t.Errorf("%s-%s: length = %.5f mm, want %.5f", tc.a, tc.b, got, tc.want)
		}
	}
}
