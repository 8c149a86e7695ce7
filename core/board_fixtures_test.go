package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

func pt(x, y float64) model.Point { return model.Point{X: x, Y: y} }

func ref(s string) model.PadRef {
	r, err := model.ParsePadRef(s)
	if err != nil {
		panic(err)
	}
	return r
}

func pad(designator, number, net string, x, y float64) *model.Pad {
	return &model.Pad{
		Designator: designator,
		Number:     number,
		Net:        net,
		Location:   pt(x, y),
		Layer:      1,
		Width:      10,
		Height:     10,
		Shape:      model.PadRound,
	}
}

func track(net string, x1, y1, x2, y2, length float64) *model.Track {
	return &model.Track{Start: pt(x1, y1), End: pt(x2, y2), Net: net, Layer: 1, LengthMils: length, Width: 10}
}

// comps groups pads into components by designator, preserving order.
func comps(pads ...*model.Pad) []Component {
	var out []Component
	pos := map[string]int{}
	for _, p := range pads {
		i, ok := pos[p.Designator]
		if !ok {
			i = len(out)
			pos[p.Designator] = i
			out = append(out, Component{Designator: p.Designator, Layer: 1})
		}
		out[i].Pads = append(out[i].Pads, p)
	}
	return out
}

func newServiceWith(t *testing.T, data BoardData, opts ...TraceServiceOption) *TraceService {
	t.Helper()
	svc := NewTraceService(DefaultEngineConfig(), opts...)
	svc.LoadBoard(context.Background(), NewBoard(data, svc.Config()))
	return svc
}

// straightBoard: U1.1 and R1.1 joined by one 150 mil track; R1.2 sits on
// another net.
func straightBoard() BoardData {
	return BoardData{
		Components: comps(
			pad("U1", "1", "SIG", 0, 0),
			pad("R1", "1", "SIG", 150, 0),
			pad("R1", "2", "GND", 250, 0),
		),
		Tracks: []*model.Track{track("SIG", 0, 0, 150, 0, 150)},
	}
}

// detourBoard has an exact-endpoint route of 300 mil and a shorter 99 mil
// track whose start misses the pad centre by 1 mil.
func detourBoard() BoardData {
	return BoardData{
		Components: comps(
			pad("P1", "1", "N", 0, 0),
			pad("P2", "1", "N", 100, 0),
		),
		Tracks: []*model.Track{
			track("N", 0, 0, 0, 100, 100),
			track("N", 0, 100, 100, 100, 100),
			track("N", 100, 100, 100, 0, 100),
			track("N", 1, 0, 100, 0, 99),
		},
	}
}

// jumperBoard: net A runs U1.1 to J1.1, connector J1 bridges to net B, which
// runs J1.2 to R1.1.
func jumperBoard() BoardData {
	return BoardData{
		Components: comps(
			pad("U1", "1", "A", 0, 0),
			pad("J1", "1", "A", 500, 0),
			pad("J1", "2", "B", 550, 0),
			pad("R1", "1", "B", 550, 300),
		),
		Tracks: []*model.Track{
			track("A", 0, 0, 500, 0, 500),
			track("B", 550, 0, 550, 300, 300),
		},
	}
}

type recordingMetrics struct {
	mu         sync.Mutex
	queries    map[string]int
	cacheHits  int
	cacheMiss  int
	strategies map[string]int
	board      LoadSummary
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{queries: map[string]int{}, strategies: map[string]int{}}
}

func (m *recordingMetrics) ObserveQuery(op, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries[op+"/"+outcome]++
}

func (m *recordingMetrics) ObserveCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMiss++
	}
}

func (m *recordingMetrics) ObserveStrategy(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategies[s]++
}

func (m *recordingMetrics) SetBoardCounts(s LoadSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.board = s
}
