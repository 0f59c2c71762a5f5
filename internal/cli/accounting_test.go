package cli

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-minutes/internal/audio"
	"github.com/alnah/go-minutes/internal/ledger"
)

// Notes:
// - accounting is driven directly: the mocked summarizer never calls the observer
// - The ledger is a real SQLite file in a temp dir

// ---------------------------------------------------------------------------
// accounting - ledger and metrics flush
// ---------------------------------------------------------------------------

func TestAccounting_FlushWritesLedgerAndMetrics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	env, _, _, _ := testEnv()
	s := settings{
		ledger:      filepath.Join(dir, "ledger.db"),
		metricsFile: filepath.Join(dir, "minutes.prom"),
	}
	acct := newAccounting(env, "run-1", "/rec/standup.mp4", s, env.Logger)

	for _, c := range sampleResult().Calls {
		acct.observeCall(c)
	}
	plan, err := audio.PlanFor(10 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	acct.observePlan(plan)

	if err := acct.flush(); err != nil {
		t.Fatalf("flush() unexpected error: %v", err)
	}

	l, err := ledger.Open(s.ledger)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	defer func() { _ = l.Close() }()
	runs, err := l.Runs(context.Background(), 0)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	r := runs[0]
	if r.RunID != "run-1" || r.Source != "/rec/standup.mp4" || r.Calls != 3 {
		t.Errorf("run = %+v", r)
	}
	if math.Abs(r.Amount-0.000795) > 1e-12 {
		t.Errorf("amount = %v, want 0.000795", r.Amount)
	}
	if !r.Started.Equal(env.Now()) {
		t.Errorf("started = %v, want %v", r.Started, env.Now())
	}

	prom := readTestFile(t, s.metricsFile)
	for _, want := range []string{
		`minutes_llm_requests_total{model="gpt-4o-mini",phase="map"} 2`,
		`minutes_audio_bitrate_kbps 314`,
	} {
		if !strings.Contains(prom, want) {
			t.Errorf("metrics file missing %q:\n%s", want, prom)
		}
	}
}

func TestAccounting_NothingConfigured(t *testing.T) {
	t.Parallel()

	env, _, _, _ := testEnv()
	acct := newAccounting(env, "run-1", "a.mp3", settings{}, env.Logger)
	acct.observeCall(sampleResult().Calls[0])

	if err := acct.flush(); err != nil {
		t.Errorf("flush() without ledger or metrics = %v, want nil", err)
	}
}

// ---------------------------------------------------------------------------
// finish - flush error precedence
// ---------------------------------------------------------------------------

func TestFinish(t *testing.T) {
	t.Parallel()

	// The textfile write fails when its directory does not exist.
	badMetrics := func(t *testing.T) settings {
		return settings{metricsFile: filepath.Join(t.TempDir(), "missing", "dir", "m.prom")}
	}
	runErr := errors.New("transcription failed")

	t.Run("success returns flush error", func(t *testing.T) {
		t.Parallel()
		env, _, _, _ := testEnv()
		acct := newAccounting(env, "r", "a.mp3", badMetrics(t), env.Logger)

		if err := finish(env, acct, nil); err == nil {
			t.Error("finish() = nil, want flush error")
		}
	})

	t.Run("failure keeps run error and warns", func(t *testing.T) {
		t.Parallel()
		env, _, stderr, _ := testEnv()
		acct := newAccounting(env, "r", "a.mp3", badMetrics(t), env.Logger)

		if err := finish(env, acct, runErr); !errors.Is(err, runErr) {
			t.Errorf("finish() = %v, want %v", err, runErr)
		}
		if !strings.Contains(stderr.String(), "Warning:") {
			t.Errorf("stderr = %q, want flush warning", stderr.String())
		}
	})

	t.Run("clean flush passes run error through", func(t *testing.T) {
		t.Parallel()
		env, _, _, _ := testEnv()
		acct := newAccounting(env, "r", "a.mp3", settings{}, env.Logger)

		if err := finish(env, acct, runErr); !errors.Is(err, runErr) {
			t.Errorf("finish() = %v, want %v", err, runErr)
		}
	})
}
