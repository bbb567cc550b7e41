package capture

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vision-worker-go/internal/models"
	"vision-worker-go/internal/services/camera"
	"vision-worker-go/internal/services/detection"
	"vision-worker-go/internal/services/logbuffer"
)

// countingSource stamps each frame with a counter and tracks concurrent callers
type countingSource struct {
	n       atomic.Int64
	active  atomic.Int32
	maxSeen atomic.Int32
	failAt  int64
}

func (c *countingSource) Capture(context.Context) (*models.Frame, error) {
	cur := c.active.Add(1)
	defer c.active.Add(-1)
	for {
		m := c.maxSeen.Load()
		if cur <= m || c.maxSeen.CompareAndSwap(m, cur) {
			break
		}
	}

	n := c.n.Add(1)
	if c.failAt > 0 && n >= c.failAt {
		return nil, errors.New("camera unplugged")
	}
	f := models.NewFrame(4, 4)
	f.Data[0] = byte(n)
	return f, nil
}

func (c *countingSource) Simulated() bool { return true }
func (c *countingSource) Close() error { return nil }

// echoEngine labels every frame with its stamp so pairs can be checked
type echoEngine struct {
	*detection.Simulated
}

func newEcho() echoEngine {
	return echoEngine{detection.NewSimulated(detection.SimulatedOptions{Model: "echo"})}
}

func (echoEngine) Detect(_ context.Context, f *models.Frame, _ float64) ([]models.Detection, error) {
	return []models.Detection{{ClassName: strconv.Itoa(int(f.Data[0])), Confidence: 0.9}}, nil
}

func newTestService(src camera.Source, engine detection.Engine, logs *logbuffer.Buffer) *Service {
	return NewService(src, detection.NewActive(engine), NewStore(), Options{
		Interval:      time.Millisecond,
		LogDetections: true,
		Logs:          logs,
		Logger:        zerolog.Nop(),
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStoreEmpty(t *testing.T) {
	s := NewStore()
	if s.HasFrame() || s.Frame() != nil {
		t.Error("empty store reports a frame")
	}
	if d := s.Detections(); d == nil || len(d) != 0 {
		t.Errorf("Detections = %#v, want empty", d)
	}
	if _, _, _, ok := s.Latest(); ok {
		t.Error("Latest ok on empty store")
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewStore()
	dets := []models.Detection{{ClassName: "AS", Confidence: 0.9, BBox: &models.Box{X2: 3}}}
	s.Put(models.NewFrame(2, 2), dets, 1)

	dets[0].ClassName = "changed"
	f := s.Frame()
	f.Data[0] = 99
	got := s.Detections()
	got[0].BBox.X2 = 42

	frame, latest, seq, ok := s.Latest()
	if !ok || seq != 1 {
		t.Fatalf("Latest seq=%d ok=%v", seq, ok)
	}
	if frame.Data[0] != 0 {
		t.Error("frame mutated through copy")
	}
	if latest[0].ClassName != "AS" || latest[0].BBox.X2 != 3 {
		t.Errorf("detections mutated through copy: %+v", latest[0])
	}
}

func TestLatestPairsAreConsistent(t *testing.T) {
	src := &countingSource{}
	svc := newTestService(src, newEcho(), nil)
	svc.Start()
	defer svc.Stop()

	waitFor(t, svc.Store().HasFrame)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				frame, dets, seq, ok := svc.Store().Latest()
				if !ok {
					t.Error("Latest not ok after first frame")
					return
				}
				if len(dets) != 1 || dets[0].ClassName != strconv.Itoa(int(frame.Data[0])) {
					t.Errorf("seq %d: frame stamp %d paired with %+v", seq, frame.Data[0], dets)
					return
				}
				if frame.Seq != seq {
					t.Errorf("frame.Seq = %d, slot seq = %d", frame.Seq, seq)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestTwoRapidReadsAfterSimulatedIteration(t *testing.T) {
	engine := detection.NewSimulated(detection.SimulatedOptions{ClassNames: []string{"AS", "KS", "TH"}})
	svc := newTestService(camera.NewSynthetic(64, 32), engine, nil)
	svc.Start()
	defer svc.Stop()

	waitFor(t, svc.Store().HasFrame)

	first := svc.Store().Detections()
	second := svc.Store().Detections()
	for _, dets := range [][]models.Detection{first, second} {
		if len(dets) < 1 || len(dets) > 5 {
			t.Errorf("len = %d, want 1..5", len(dets))
		}
		for _, d := range dets {
			if d.Confidence < 0.5 || d.Confidence > 1 {
				t.Errorf("confidence %v", d.Confidence)
			}
		}
	}
}

func TestStartStopIdempotent(t *testing.T) {
	svc := newTestService(&countingSource{}, newEcho(), nil)

	if svc.Stop() {
		t.Error("Stop on idle service returned true")
	}
	if !svc.Start() {
		t.Fatal("first Start returned false")
	}
	if svc.Start() {
		t.Error("second Start returned true")
	}
	if st := svc.Status(); st.State != models.CaptureStateRunning || st.SessionID == "" {
		t.Errorf("status = %+v", st)
	}
	if !svc.Stop() {
		t.Error("Stop returned false")
	}
	if svc.Stop() {
		t.Error("second Stop returned true")
	}
	if st := svc.Status(); st.State != models.CaptureStateStopped {
		t.Errorf("state = %s, want stopped", st.State)
	}
}

func TestWorkerLogsCarrySessionID(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(&countingSource{}, detection.NewActive(newEcho()), NewStore(), Options{
		Interval: time.Millisecond,
		Logger:   zerolog.New(&buf),
	})

	svc.Start()
	session := svc.Status().SessionID
	svc.Stop()

	found := false
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("log line %q: %v", sc.Text(), err)
		}
		if entry["message"] == "Capture loop stopped" {
			found = true
			if entry["session_id"] != session {
				t.Errorf("session_id = %v, want %s", entry["session_id"], session)
			}
		}
	}
	if !found {
		t.Error("no stop entry logged")
	}
}

func TestStopWaitsForWorker(t *testing.T) {
	src := &countingSource{}
	svc := newTestService(src, newEcho(), nil)
	svc.Start()
	waitFor(t, func() bool { return src.n.Load() > 2 })

	svc.Stop()
	after := src.n.Load()
	time.Sleep(20 * time.Millisecond)
	if got := src.n.Load(); got != after {
		t.Errorf("captures continued after Stop: %d -> %d", after, got)
	}
}

func TestAtMostOneWorker(t *testing.T) {
	src := &countingSource{}
	svc := newTestService(src, newEcho(), nil)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if (g+i)%2 == 0 {
					svc.Start()
				} else {
					svc.Stop()
				}
			}
		}(g)
	}
	wg.Wait()
	svc.Stop()

	if m := src.maxSeen.Load(); m > 1 {
		t.Errorf("saw %d concurrent captures, want at most 1", m)
	}
}

func TestErrorEndsWorker(t *testing.T) {
	logs := logbuffer.New(0, zerolog.Nop())
	src := &countingSource{failAt: 3}
	svc := newTestService(src, newEcho(), logs)

	svc.Start()
	waitFor(t, func() bool { return !svc.Running() })

	st := svc.Status()
	if st.State != models.CaptureStateStopped || st.LastError == "" {
		t.Errorf("status = %+v", st)
	}
	if st.Iterations != 2 {
		t.Errorf("iterations = %d, want 2", st.Iterations)
	}
	if n := len(logs.ByLevel(logbuffer.LevelError)); n != 1 {
		t.Errorf("ERROR entries = %d, want 1", n)
	}

	// the cached pair from before the failure is still served
	if !svc.Store().HasFrame() {
		t.Error("store lost its frame")
	}

	src.failAt = 0
	if !svc.Start() {
		t.Fatal("restart after failure returned false")
	}
	defer svc.Stop()
	if svc.LastError() != nil {
		t.Error("LastError not reset on restart")
	}
}

func TestSinksAndDetectionLogs(t *testing.T) {
	logs := logbuffer.New(0, zerolog.Nop())
	svc := newTestService(&countingSource{}, newEcho(), logs)

	got := make(chan models.CaptureResult, 100)
	svc.AddSink(SinkFunc(func(r models.CaptureResult) {
		select {
		case got <- r:
		default:
		}
	}))
	svc.Start()
	r := <-got
	svc.Stop()

	if r.Seq < 1 || r.SessionID == "" || r.EngineKind != string(detection.KindSimulated) {
		t.Errorf("result = %+v", r)
	}
	if len(logs.ByLevel(logbuffer.LevelDetection)) == 0 {
		t.Error("no DETECTION log entries")
	}
}

func TestSwapTakesEffectNextIteration(t *testing.T) {
	src := &countingSource{}
	active := detection.NewActive(newEcho())
	svc := NewService(src, active, NewStore(), Options{Interval: time.Millisecond, Logger: zerolog.Nop()})
	svc.Start()
	defer svc.Stop()
	waitFor(t, svc.Store().HasFrame)

	active.Swap(detection.NewSimulated(detection.SimulatedOptions{ClassNames: []string{"swapped"}}))
	waitFor(t, func() bool {
		d := svc.Store().Detections()
		return len(d) > 0 && d[0].ClassName == "swapped"
	})
}

// closingEngine fails like a closed live engine once closed is set
type closingEngine struct {
	echoEngine
	closed *atomic.Bool
}

func (e closingEngine) Detect(ctx context.Context, f *models.Frame, th float64) ([]models.Detection, error) {
	if e.closed.Load() {
		return nil, detection.ErrModelNotLoaded
	}
	return e.echoEngine.Detect(ctx, f, th)
}

func TestClosedEngineAfterSwapDoesNotEndLoop(t *testing.T) {
	closed := &atomic.Bool{}
	old := closingEngine{echoEngine: newEcho(), closed: closed}
	active := detection.NewActive(old)
	svc := NewService(&countingSource{}, active, NewStore(), Options{Interval: time.Millisecond, Logger: zerolog.Nop()})
	svc.Start()
	defer svc.Stop()
	waitFor(t, svc.Store().HasFrame)

	active.Swap(newEcho())
	closed.Store(true)

	time.Sleep(20 * time.Millisecond)
	if !svc.Running() {
		t.Fatalf("loop ended: %v", svc.LastError())
	}
}
