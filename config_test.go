package bastion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}

	return path
}

func TestLoadConfigJSON(t *testing.T) {
	reg, err := LoadConfig("testdata/pipelines.json")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v, want nil", err)
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "notifications" || names[1] != "payments" {
		t.Fatalf("Names() = %v, want [notifications payments]", names)
	}

	pc, ok := reg.Config("payments")
	if !ok {
		t.Fatal("Config(payments) not found")
	}

	if pc.Timeout == nil || *pc.Timeout != "500ms" {
		t.Fatalf("Timeout = %v, want 500ms", pc.Timeout)
	}

	if pc.Retry == nil || pc.Retry.MaxAttempts == nil || *pc.Retry.MaxAttempts != 3 {
		t.Fatalf("Retry.MaxAttempts = %v, want 3", pc.Retry)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	reg, err := LoadYAMLConfig("testdata/pipelines.yaml")
	if err != nil {
		t.Fatalf("LoadYAMLConfig() error = %v, want nil", err)
	}

	c, err := GetComposite[int](reg, "inventory")
	if err != nil {
		t.Fatalf("GetComposite() error = %v, want nil", err)
	}

	ps := c.Policies()
	if len(ps) != 2 {
		t.Fatalf("len(Policies()) = %d, want 2", len(ps))
	}

	if ps[0].Name() != "inventory.timeout" || ps[1].Name() != "inventory.retry" {
		t.Fatalf("stages = %q, %q; want inventory.timeout, inventory.retry",
			ps[0].Name(), ps[1].Name())
	}

	if r, ok := ps[1].(*Retry[int]); !ok || r.MaxAttempts() != ^uint(0) {
		t.Fatalf("retry stage = %#v, want a Retry running forever", ps[1])
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed", `{not json}`, "parse config"},
		{"bad timeout", `{"policies":{"a":{"timeout":"soon"}}}`, "timeout"},
		{"bad interval", `{"policies":{"a":{"retry":{"intervals":["1x"]}}}}`, "retry.intervals[0]"},
		{
			"intervals and backoff",
			`{"policies":{"a":{"retry":{"intervals":["1s"],"backoff":"linear","base_delay":"1s"}}}}`,
			"exclusive",
		},
		{"backoff without base", `{"policies":{"a":{"retry":{"backoff":"linear"}}}}`, "base_delay"},
		{
			"unknown backoff",
			`{"policies":{"a":{"retry":{"backoff":"fibonacci","base_delay":"1s"}}}}`,
			"unknown backoff",
		},
		{
			"unknown stage",
			`{"policies":{"a":{"timeout":"1s","order":["timeout","hedge"]}}}`,
			"unknown stage",
		},
		{
			"duplicate stage",
			`{"policies":{"a":{"timeout":"1s","order":["timeout","timeout"]}}}`,
			"duplicate stage",
		},
		{
			"unconfigured stage",
			`{"policies":{"a":{"timeout":"1s","order":["retry"]}}}`,
			"not configured",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeTestFile(t, "config.json", tc.content))
			if err == nil {
				t.Fatal("LoadConfig() error = nil, want error")
			}

			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %q, want to contain %q", err, tc.want)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("testdata/missing.json")
	if err == nil || !strings.Contains(err.Error(), "bastion: read config") {
		t.Fatalf("error = %v, want read config error", err)
	}

	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want os.ErrNotExist in chain", err)
	}
}

func TestConfigStageOrderErrorsAreTyped(t *testing.T) {
	d := "1s"
	pc := PolicyConfig{Timeout: &d, Order: []string{"bulkhead"}}

	if err := pc.Validate(); !errors.Is(err, errConfig) {
		t.Fatalf("Validate() = %v, want errConfig", err)
	}
}

func TestBuildRetryFromConfig(t *testing.T) {
	attempts := uint(2)
	backoff := "linear"
	base := "10ms"
	maxDelay := "15ms"

	r, err := BuildRetry[int](&RetryConfig{
		MaxAttempts:     &attempts,
		Backoff:         &backoff,
		BaseDelay:       &base,
		MaxDelay:        &maxDelay,
		HandleTransient: true,
	})
	if err != nil {
		t.Fatalf("BuildRetry() error = %v, want nil", err)
	}

	clk := &immediateClock{}
	calls := 0

	_, _ = r.WithClock(clk).ExecuteContext(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, Transient(errors.New("flaky"))
	})

	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}

	got := clk.recorded()
	want := []time.Duration{10 * time.Millisecond, 15 * time.Millisecond}

	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("delays = %v, want %v", got, want)
	}
}

func TestBuildRetryWithoutHandledKindsNeverRetries(t *testing.T) {
	r, err := BuildRetry[int](&RetryConfig{})
	if err != nil {
		t.Fatalf("BuildRetry() error = %v, want nil", err)
	}

	calls := 0
	_, _ = r.ExecuteContext(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, Transient(errors.New("flaky"))
	})

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestBuildCompositeExtraIsOutermost(t *testing.T) {
	d := "1s"
	pc := &PolicyConfig{Timeout: &d, Retry: &RetryConfig{}}

	fb := NewFallback[int]().Named("guard")

	c, err := BuildComposite[int]("svc", pc, fb)
	if err != nil {
		t.Fatalf("BuildComposite() error = %v, want nil", err)
	}

	var names []string
	for _, p := range c.Policies() {
		names = append(names, p.Name())
	}

	want := "guard svc.retry svc.timeout"
	if strings.Join(names, " ") != want {
		t.Fatalf("stages = %v, want %s", names, want)
	}

	if c.Name() != "svc" {
		t.Fatalf("Name() = %q, want %q", c.Name(), "svc")
	}
}

func TestLoadCacheConfig(t *testing.T) {
	cfg, err := LoadCacheConfig("testdata/pipelines.json", "quotes")
	if err != nil {
		t.Fatalf("LoadCacheConfig() error = %v, want nil", err)
	}

	if cfg.TTL != time.Minute || cfg.MaxSize != 1000 {
		t.Fatalf("config = %+v, want ttl 1m, max_size 1000", cfg)
	}

	if v, ok := cfg.Options["buffer_items"].(float64); !ok || v != 64 {
		t.Fatalf("Options[buffer_items] = %v, want 64", cfg.Options["buffer_items"])
	}
}

func TestLoadCacheConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		cache string
		want  string
	}{
		{"unknown", "missing", "not found"},
		{"zero size", "unbounded", "max_size"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadCacheConfig("testdata/pipelines.json", tc.cache)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %v, want to contain %q", err, tc.want)
			}
		})
	}
}

func TestCacheConfigIntOption(t *testing.T) {
	cfg := CacheConfig{Options: map[string]any{
		"json":   float64(64),
		"native": 8,
		"frac":   1.5,
		"text":   "many",
	}}

	tests := []struct {
		key     string
		want    int64
		wantErr bool
	}{
		{key: "json", want: 64},
		{key: "native", want: 8},
		{key: "missing", want: 3},
		{key: "frac", wantErr: true},
		{key: "text", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got, err := cfg.IntOption(tc.key, 3)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("IntOption(%q) error = nil, want error", tc.key)
				}

				return
			}

			if err != nil || got != tc.want {
				t.Fatalf("IntOption(%q) = %d, %v; want %d, nil", tc.key, got, err, tc.want)
			}
		})
	}
}
