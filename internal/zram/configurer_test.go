package zram

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/blackwell-systems/droidops/internal/shell"
)

// fakeDevice creates a sysfs-like tree under a temp dir and returns a config
// pointing at it.
func fakeDevice(t *testing.T, algorithms string) Config {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "sys", "zram0")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		"reset":            "",
		"disksize":         "0\n",
		"comp_algorithm":   algorithms,
		"max_comp_streams": "1\n",
		"mem_limit":        "0\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	cfg := DefaultConfig()
	cfg.SysfsRoot = filepath.Join(root, "sys")
	cfg.DevRoot = "/dev/block"
	return cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func swapOK() *shell.Fake {
	return shell.NewFake().
		Stdout("mkswap /dev/block/zram0", "").
		Stdout("swapon /dev/block/zram0", "")
}

func TestApply_Success(t *testing.T) {
	cfg := fakeDevice(t, "lzo lz4 [zstd]\n")
	f := swapOK()
	var buf bytes.Buffer
	c := NewConfigurer(cfg, f)
	c.SetWriter(&buf)

	res, err := c.Apply()
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if got := readFile(t, cfg.ControlPath("reset")); got != "1" {
		t.Errorf("reset = %q, want 1", got)
	}
	if got := readFile(t, cfg.ControlPath("disksize")); got != "536870912" {
		t.Errorf("disksize = %q, want 536870912", got)
	}
	if got := readFile(t, cfg.ControlPath("comp_algorithm")); got != "lz4" {
		t.Errorf("comp_algorithm = %q, want lz4", got)
	}
	if got := readFile(t, cfg.ControlPath("max_comp_streams")); got != "4" {
		t.Errorf("max_comp_streams = %q, want 4", got)
	}
	if got := readFile(t, cfg.ControlPath("mem_limit")); got != "0\n" {
		t.Errorf("mem_limit should be untouched, got %q", got)
	}
	if res.Algorithm != "lz4" || res.AlgorithmFallback {
		t.Errorf("result = %+v", res)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
	want := []string{"mkswap /dev/block/zram0", "swapon /dev/block/zram0"}
	if !reflect.DeepEqual(f.Calls(), want) {
		t.Errorf("calls = %v, want %v", f.Calls(), want)
	}
	if !strings.Contains(buf.String(), "Algorithm: lz4") {
		t.Errorf("output missing algorithm line: %q", buf.String())
	}
}

func TestApply_FallbackAlgorithm(t *testing.T) {
	cfg := fakeDevice(t, "lzo lz4 [zstd]")
	cfg.Algorithm = "lz4hc"

	res, err := NewConfigurer(cfg, swapOK()).Apply()
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if res.Algorithm != "zstd" || !res.AlgorithmFallback {
		t.Errorf("result = %+v, want zstd fallback", res)
	}
	if got := readFile(t, cfg.ControlPath("comp_algorithm")); got != "zstd" {
		t.Errorf("comp_algorithm = %q, want zstd", got)
	}
}

func TestApply_NoSelectionKeepsDefault(t *testing.T) {
	cfg := fakeDevice(t, "lzo zstd")
	cfg.Algorithm = "lz4"
	var buf bytes.Buffer
	c := NewConfigurer(cfg, swapOK())
	c.SetWriter(&buf)

	res, err := c.Apply()
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if res.Algorithm != "" {
		t.Errorf("Algorithm = %q, want empty", res.Algorithm)
	}
	if got := readFile(t, cfg.ControlPath("comp_algorithm")); got != "lzo zstd" {
		t.Errorf("comp_algorithm should be untouched, got %q", got)
	}
	if !strings.Contains(buf.String(), "using default") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestApply_DirectMode(t *testing.T) {
	cfg := fakeDevice(t, "lzo [lz4]")
	cfg.AlgorithmMode = ModeDirect
	cfg.Algorithm = "zstd"
	cfg.MemLimit = 256 * 1024 * 1024
	cfg.Streams = 0

	res, err := NewConfigurer(cfg, swapOK()).Apply()
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if res.Algorithm != "zstd" {
		t.Errorf("Algorithm = %q, want zstd", res.Algorithm)
	}
	if got := readFile(t, cfg.ControlPath("mem_limit")); got != "268435456" {
		t.Errorf("mem_limit = %q", got)
	}
	if got := readFile(t, cfg.ControlPath("max_comp_streams")); got != "1\n" {
		t.Errorf("max_comp_streams should be untouched, got %q", got)
	}
}

func TestApply_TuningFailuresAreWarnings(t *testing.T) {
	cfg := fakeDevice(t, "[lz4]")
	cfg.MemLimit = 1024
	os.Remove(cfg.ControlPath("max_comp_streams"))
	os.Remove(cfg.ControlPath("mem_limit"))
	os.Remove(cfg.ControlPath("comp_algorithm"))

	res, err := NewConfigurer(cfg, swapOK()).Apply()
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(res.Warnings) != 3 {
		t.Errorf("warnings = %v, want 3", res.Warnings)
	}
}

func TestApply_FatalSteps(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(cfg Config, f *shell.Fake)
		wantStep string
		wantRuns int
	}{
		{
			name: "reset missing",
			setup: func(cfg Config, f *shell.Fake) {
				os.Remove(cfg.ControlPath("reset"))
			},
			wantStep: StepReset,
		},
		{
			name: "disksize missing",
			setup: func(cfg Config, f *shell.Fake) {
				os.Remove(cfg.ControlPath("disksize"))
			},
			wantStep: StepDisksize,
		},
		{
			name: "mkswap fails",
			setup: func(cfg Config, f *shell.Fake) {
				f.Fail("mkswap /dev/block/zram0", 1)
			},
			wantStep: StepMkswap,
			wantRuns: 1,
		},
		{
			name: "swapon fails",
			setup: func(cfg Config, f *shell.Fake) {
				f.Stdout("mkswap /dev/block/zram0", "")
				f.Fail("swapon /dev/block/zram0", 255)
			},
			wantStep: StepSwapon,
			wantRuns: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fakeDevice(t, "[lz4]")
			f := shell.NewFake()
			tt.setup(cfg, f)

			_, err := NewConfigurer(cfg, f).Apply()
			var stepErr *StepError
			if !errors.As(err, &stepErr) {
				t.Fatalf("Apply() error = %v, want *StepError", err)
			}
			if stepErr.Step != tt.wantStep {
				t.Errorf("Step = %q, want %q", stepErr.Step, tt.wantStep)
			}
			if len(f.Calls()) != tt.wantRuns {
				t.Errorf("commands run = %v, want %d", f.Calls(), tt.wantRuns)
			}
		})
	}
}

func TestApply_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SizeBytes = 0
	if _, err := NewConfigurer(cfg, shell.NewFake()).Apply(); err == nil {
		t.Error("Apply() should reject a zero size")
	}
}

func TestSelectAlgorithm(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		preferred    string
		want         string
		wantFallback bool
		wantErr      error
	}{
		{"preferred advertised", "lzo lz4 [zstd]", "lz4", "lz4", false, nil},
		{"preferred already selected", "lzo [lz4] zstd", "lz4", "lz4", false, nil},
		{"bracketed fallback", "lzo lz4 [zstd]", "lz4hc", "zstd", true, nil},
		{"no substring match", "lz4hc [lzo]", "lz4", "lzo", true, nil},
		{"no selection", "lzo zstd", "lz4", "", true, ErrNoSelection},
		{"empty", "", "lz4", "", true, ErrNoSelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fallback, err := SelectAlgorithm(tt.text, tt.preferred)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want || fallback != tt.wantFallback {
				t.Errorf("SelectAlgorithm() = (%q, %v), want (%q, %v)", got, fallback, tt.want, tt.wantFallback)
			}
		})
	}
}

func TestParseAlgorithmMode(t *testing.T) {
	for _, s := range []string{"direct", "negotiate"} {
		if _, err := ParseAlgorithmMode(s); err != nil {
			t.Errorf("ParseAlgorithmMode(%q) error: %v", s, err)
		}
	}
	if _, err := ParseAlgorithmMode("auto"); err == nil {
		t.Error("ParseAlgorithmMode(auto) should fail")
	}
}
