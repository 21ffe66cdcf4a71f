package gate

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func TestAwayThenBackScenario(t *testing.T) {
	g := New(800*time.Millisecond, 1000*time.Millisecond)

	startIdx := -1
	for i := 0; i < 20; i++ {
		if d := g.Observe(Sample{At: at(i * 50), Present: false}); d == StartRequested {
			if startIdx != -1 {
				t.Fatalf("second start at sample %d", i)
			}
			startIdx = i
		}
	}
	if startIdx != 16 {
		t.Fatalf("start at sample %d, want 16", startIdx)
	}
	if !g.Recording() {
		t.Fatal("gate should be recording")
	}

	stopIdx := -1
	for i := 0; i < 25; i++ {
		if d := g.Observe(Sample{At: at(1000 + i*50), Present: true}); d == StopRequested {
			if stopIdx != -1 {
				t.Fatalf("second stop at sample %d", i)
			}
			stopIdx = i
		}
	}
	if stopIdx != 20 {
		t.Fatalf("stop at sample %d, want 20", stopIdx)
	}
	if g.Recording() {
		t.Fatal("gate should be idle")
	}
}

func TestPresentSampleResetsAwayTimer(t *testing.T) {
	g := New(800*time.Millisecond, 1000*time.Millisecond)

	ms := 0
	for i := 0; i < 15; i++ {
		if d := g.Observe(Sample{At: at(ms), Present: false}); d != None {
			t.Fatalf("unexpected %v at %dms", d, ms)
		}
		ms += 50
	}
	// One glance back cancels the arm.
	g.Observe(Sample{At: at(ms), Present: true})
	if st := g.State(); st.AwaySince != nil {
		t.Fatal("away timer should be cleared by a present sample")
	}
	ms += 50

	resumed := ms
	for {
		d := g.Observe(Sample{At: at(ms), Present: false})
		if d == StartRequested {
			break
		}
		ms += 50
		if ms > resumed+5000 {
			t.Fatal("gate never started")
		}
	}
	if got := ms - resumed; got != 800 {
		t.Errorf("start after %dms of renewed absence, want 800", got)
	}
}

func TestAbsentSampleResetsBackTimer(t *testing.T) {
	g := New(0, 1000*time.Millisecond)
	if d := g.Observe(Sample{At: at(0), Present: false}); d != StartRequested {
		t.Fatalf("minAway 0 should start immediately, got %v", d)
	}

	for ms := 50; ms <= 900; ms += 50 {
		if d := g.Observe(Sample{At: at(ms), Present: true}); d != None {
			t.Fatalf("unexpected %v at %dms", d, ms)
		}
	}
	g.Observe(Sample{At: at(950), Present: false})
	if st := g.State(); st.BackSince != nil {
		t.Fatal("back timer should be cleared by an absent sample")
	}
	if d := g.Observe(Sample{At: at(1100), Present: true}); d != None {
		t.Fatalf("stop should need a fresh 1000ms run, got %v", d)
	}
	if d := g.Observe(Sample{At: at(2100), Present: true}); d != StopRequested {
		t.Fatalf("expected stop after 1000ms present, got %v", d)
	}
}

func TestHysteresisInvariants(t *testing.T) {
	minAway := 300 * time.Millisecond
	minBack := 500 * time.Millisecond

	patterns := map[string][]bool{
		"flicker":     {false, true, false, true, false, true, false, true, false, true},
		"long away":   repeat(false, 30),
		"mixed":       append(append(repeat(false, 10), true), append(repeat(false, 8), repeat(true, 12)...)...),
		"alternating": append(append(repeat(false, 7), repeat(true, 11)...), append(repeat(false, 7), repeat(true, 11)...)...),
	}

	for name, pattern := range patterns {
		t.Run(name, func(t *testing.T) {
			g := New(minAway, minBack)
			var runStart time.Time
			var runValue bool
			for i, present := range pattern {
				now := at(i * 50)
				if i == 0 || present != runValue {
					runStart = now
					runValue = present
				}

				d := g.Observe(Sample{At: now, Present: present})
				switch d {
				case StartRequested:
					if present || now.Sub(runStart) < minAway {
						t.Fatalf("start at sample %d after %v absence", i, now.Sub(runStart))
					}
				case StopRequested:
					if !present || now.Sub(runStart) < minBack {
						t.Fatalf("stop at sample %d after %v presence", i, now.Sub(runStart))
					}
				}

				st := g.State()
				if st.AwaySince != nil && st.BackSince != nil {
					t.Fatalf("both timers set at sample %d", i)
				}
				if st.Recording && st.AwaySince != nil {
					t.Fatalf("away timer set while recording at sample %d", i)
				}
			}
		})
	}
}

func TestManualOverrides(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(g *Gate)
		force   func(g *Gate) Decision
		want    Decision
		wantRec bool
	}{
		{
			name:    "force start from idle",
			prepare: func(g *Gate) { g.Observe(Sample{At: at(0), Present: false}) },
			force:   (*Gate).ForceStart,
			want:    StartRequested,
			wantRec: true,
		},
		{
			name:    "force start while recording is ignored",
			prepare: func(g *Gate) { g.ForceStart() },
			force:   (*Gate).ForceStart,
			want:    None,
			wantRec: true,
		},
		{
			name: "force stop while recording",
			prepare: func(g *Gate) {
				g.ForceStart()
				g.Observe(Sample{At: at(0), Present: true})
			},
			force:   (*Gate).ForceStop,
			want:    StopRequested,
			wantRec: false,
		},
		{
			name:    "force stop while idle is ignored",
			prepare: func(g *Gate) {},
			force:   (*Gate).ForceStop,
			want:    None,
			wantRec: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(time.Second, time.Second)
			tt.prepare(g)
			if got := tt.force(g); got != tt.want {
				t.Errorf("decision = %v, want %v", got, tt.want)
			}
			if g.Recording() != tt.wantRec {
				t.Errorf("Recording() = %v, want %v", g.Recording(), tt.wantRec)
			}
			st := g.State()
			if st.AwaySince != nil || st.BackSince != nil {
				t.Error("override should leave both timers cleared")
			}
		})
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	g := New(0, time.Second)
	if d := g.Observe(Sample{At: at(0), Present: false}); d != StartRequested {
		t.Fatalf("expected start, got %v", d)
	}
	g.Reset()
	if g.Recording() {
		t.Fatal("Reset() should return to idle")
	}
	if d := g.Observe(Sample{At: at(50), Present: false}); d != StartRequested {
		t.Errorf("gate should be able to arm again after reset, got %v", d)
	}
}

func repeat(v bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}
