package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-minutes/internal/audio"
)

// executeBitrate runs the bitrate command with args against env.
func executeBitrate(env *Env, args ...string) error {
	cmd := BitrateCmd(env)
	cmd.SetArgs(append([]string{}, args...))
	cmd.SetOut(env.Stderr)
	cmd.SetErr(env.Stderr)
	return cmd.ExecuteContext(context.Background())
}

// ---------------------------------------------------------------------------
// BitrateCmd
// ---------------------------------------------------------------------------

func TestBitrateCmd_Duration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		args      []string
		want      string
		wantFloor bool
	}{
		{name: "ten minutes", args: []string{"--duration", "600"}, want: "314k"},
		{name: "go duration", args: []string{"--duration", "1h"}, want: "52k"},
		{name: "smaller target", args: []string{"-d", "600", "--target-mb", "10"}, want: "125k"},
		{name: "floor", args: []string{"--duration", "10h"}, want: "16k", wantFloor: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, stdout, stderr, mocks := testEnv()

			if err := executeBitrate(env, tt.args...); err != nil {
				t.Fatalf("bitrate %v: unexpected error: %v", tt.args, err)
			}
			if got := strings.TrimSpace(stdout.String()); got != tt.want {
				t.Errorf("stdout = %q, want %q", got, tt.want)
			}
			if floor := strings.Contains(stderr.String(), "floor"); floor != tt.wantFloor {
				t.Errorf("floor warning = %v, want %v:\n%s", floor, tt.wantFloor, stderr.String())
			}
			if mocks.ffmpegResolver.ResolveCalls() != 0 {
				t.Error("a given duration must not resolve FFmpeg")
			}
		})
	}
}

func TestBitrateCmd_ProbesMedia(t *testing.T) {
	t.Parallel()

	env, stdout, _, mocks := testEnv()
	mocks.preparer.preparer = &mockPreparer{
		ProbeFunc: func(ctx context.Context, path string) (time.Duration, error) {
			return 30 * time.Minute, nil
		},
	}

	if err := executeBitrate(env, writeTestFile(t, "allhands.mkv", "x")); err != nil {
		t.Fatalf("bitrate: unexpected error: %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "104k" {
		t.Errorf("stdout = %q, want 104k", got)
	}
}

func TestBitrateCmd_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "neither", args: nil, wantErr: ErrInvalidDuration},
		{name: "bad duration", args: []string{"--duration", "soon"}, wantErr: ErrInvalidDuration},
		{name: "zero duration", args: []string{"--duration", "0"}, wantErr: ErrInvalidDuration},
		{name: "bad margin", args: []string{"--duration", "600", "--margin", "1.5"}, wantErr: audio.ErrInvalidTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, _, _, _ := testEnv()

			err := executeBitrate(env, tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
