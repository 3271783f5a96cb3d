package main

import (
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/todo/internal/httpapi"
	"github.com/vladislavdragonenkov/todo/internal/storage/memory"
)

func withCLIArgs(t *testing.T, args []string, fn func()) {
	t.Helper()

	oldArgs := os.Args
	oldCommandLine := flag.CommandLine

	os.Args = append([]string{"loadtest"}, args...)
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flag.CommandLine = fs

	defer func() {
		os.Args = oldArgs
		flag.CommandLine = oldCommandLine
	}()

	fn()
}

func newTodoServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(httpapi.NewRouter(memory.NewTodoList()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    loadMode
		wantErr string
	}{
		{name: "create", input: "create", want: modeCreate},
		{name: "create-update-delete", input: "create-update-delete", want: modeCreateUpdateDelete},
		{name: "trimmed", input: "  create ", want: modeCreate},
		{name: "unsupported", input: "bad", wantErr: "unsupported mode"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseMode(tc.input)
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected mode: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestParseConfig(t *testing.T) {
	t.Run("count mode", func(t *testing.T) {
		withCLIArgs(t, []string{
			"-addr=http://127.0.0.1:8080/",
			"-mode=create-update-delete",
			"-total=12",
			"-concurrency=3",
			"-timeout=2s",
			"-title-prefix=stage",
			"-output=/tmp/out.json",
		}, func() {
			cfg, err := parseConfig()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !cfg.totalSet {
				t.Fatalf("expected totalSet=true")
			}
			if cfg.duration != 0 {
				t.Fatalf("expected zero duration, got %s", cfg.duration)
			}
			if cfg.mode != modeCreateUpdateDelete {
				t.Fatalf("unexpected mode: %s", cfg.mode)
			}
			if cfg.addr != "http://127.0.0.1:8080" {
				t.Fatalf("expected trailing slash trimmed, got %q", cfg.addr)
			}
			if cfg.total != 12 || cfg.concurrency != 3 {
				t.Fatalf("unexpected numeric config: %+v", cfg)
			}
			if cfg.timeout != 2*time.Second {
				t.Fatalf("unexpected timeout: %s", cfg.timeout)
			}
			if cfg.titlePrefix != "stage" || cfg.outputPath != "/tmp/out.json" {
				t.Fatalf("unexpected string config: %+v", cfg)
			}
		})
	})

	t.Run("defaults", func(t *testing.T) {
		withCLIArgs(t, nil, func() {
			cfg, err := parseConfig()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.addr != "http://localhost:8080" || cfg.mode != modeCreate {
				t.Fatalf("unexpected defaults: %+v", cfg)
			}
			if cfg.totalSet {
				t.Fatalf("expected totalSet=false by default")
			}
		})
	})

	t.Run("duration mode", func(t *testing.T) {
		withCLIArgs(t, []string{
			"-duration=3s",
			"-concurrency=2",
		}, func() {
			cfg, err := parseConfig()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.duration != 3*time.Second {
				t.Fatalf("unexpected duration: %s", cfg.duration)
			}
			if cfg.totalSet {
				t.Fatalf("expected totalSet=false when -total was not provided")
			}
		})
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name    string
			args    []string
			wantErr string
		}{
			{name: "invalid duration", args: []string{"-duration=bad"}, wantErr: "parse duration"},
			{name: "invalid timeout", args: []string{"-timeout=bad"}, wantErr: "parse timeout"},
			{name: "negative duration", args: []string{"-duration=-1s"}, wantErr: "duration must be >= 0"},
			{name: "empty total", args: []string{"-duration=0s", "-total=0"}, wantErr: "total must be > 0"},
			{name: "zero concurrency", args: []string{"-concurrency=0"}, wantErr: "concurrency must be > 0"},
			{name: "empty addr", args: []string{"-addr= "}, wantErr: "addr is required"},
			{name: "bad mode", args: []string{"-mode=pay"}, wantErr: "unsupported mode"},
			{name: "empty prefix", args: []string{"-title-prefix= "}, wantErr: "title-prefix is required"},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				withCLIArgs(t, tc.args, func() {
					_, err := parseConfig()
					if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
						t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
					}
				})
			})
		}
	})
}

func TestDispatchJobs(t *testing.T) {
	t.Run("count mode", func(t *testing.T) {
		jobs := make(chan int, 16)
		dispatchJobs(jobs, config{total: 5})

		var got []int
		for v := range jobs {
			got = append(got, v)
		}
		if !slices.Equal(got, []int{0, 1, 2, 3, 4}) {
			t.Fatalf("unexpected jobs sequence: %v", got)
		}
	})

	t.Run("duration mode", func(t *testing.T) {
		jobs := make(chan int, 32)
		done := make(chan struct{})
		go func() {
			dispatchJobs(jobs, config{duration: 20 * time.Millisecond})
			close(done)
		}()

		count := 0
		for range jobs {
			count++
		}
		<-done
		if count == 0 {
			t.Fatalf("expected non-zero jobs for duration mode")
		}
	})

	t.Run("duration with explicit max total", func(t *testing.T) {
		jobs := make(chan int, 16)
		dispatchJobs(jobs, config{duration: time.Second, total: 3, totalSet: true})
		count := 0
		for range jobs {
			count++
		}
		if count != 3 {
			t.Fatalf("expected 3 jobs, got %d", count)
		}
	})
}

func TestCollectorAndReport(t *testing.T) {
	c := newCollector()
	c.record("scenario", 10*time.Millisecond, http.StatusOK)
	c.record("scenario", 20*time.Millisecond, http.StatusInternalServerError)
	c.record("CreateTodo", 15*time.Millisecond, http.StatusOK)
	c.record("CreateTodo", 5*time.Millisecond, statusTransportError)

	snap, ok := c.snapshot("scenario")
	if !ok {
		t.Fatalf("scenario snapshot missing")
	}
	if snap.Calls != 2 || snap.Success != 1 || snap.Failed != 1 {
		t.Fatalf("unexpected scenario snapshot: %+v", snap)
	}
	if snap.Codes["200"] != 1 || snap.Codes["500"] != 1 {
		t.Fatalf("unexpected codes: %+v", snap.Codes)
	}

	create, ok := c.snapshot("CreateTodo")
	if !ok {
		t.Fatalf("CreateTodo snapshot missing")
	}
	if create.Codes["transport_error"] != 1 || create.Failed != 1 {
		t.Fatalf("unexpected CreateTodo snapshot: %+v", create)
	}

	if _, ok := c.snapshot("missing"); ok {
		t.Fatalf("expected no snapshot for unknown method")
	}

	r := c.buildReport(time.Now(), 2*time.Second)
	if r.TotalScenarios != 2 || r.FailedScenarios != 1 {
		t.Fatalf("unexpected report totals: %+v", r)
	}
	if r.RPS <= 0 {
		t.Fatalf("expected positive rps, got %f", r.RPS)
	}
	if _, ok := r.Methods["CreateTodo"]; !ok {
		t.Fatalf("expected CreateTodo stats in report")
	}
}

func TestUtilityFunctions(t *testing.T) {
	if !isSuccess(http.StatusCreated) || isSuccess(http.StatusBadRequest) || isSuccess(statusTransportError) {
		t.Fatalf("isSuccess must accept only 2xx")
	}
	if got := statusLabel(http.StatusNotFound); got != "404" {
		t.Fatalf("unexpected status label: %s", got)
	}
	if got := statusLabel(statusTransportError); got != "transport_error" {
		t.Fatalf("unexpected transport label: %s", got)
	}

	if got := ratio(1, 4); got != 0.25 {
		t.Fatalf("ratio mismatch: %f", got)
	}
	if got := ratio(1, 0); got != 0 {
		t.Fatalf("ratio with zero total must be 0, got %f", got)
	}

	values := []float64{10, 20, 30, 40}
	summary := buildLatencySummary(values)
	if summary.P50 <= 0 || summary.P95 <= 0 || summary.Max != 40 || summary.Min != 10 {
		t.Fatalf("unexpected latency summary: %+v", summary)
	}
	if p := percentile(values, 95); p <= 0 {
		t.Fatalf("unexpected percentile: %f", p)
	}
	if got := buildLatencySummary(nil); got != (latencySummary{}) {
		t.Fatalf("expected zero summary for empty input, got %+v", got)
	}

	if got := runTarget(config{total: 50}); got != "count:50" {
		t.Fatalf("unexpected run target: %s", got)
	}
	if got := runTarget(config{duration: 2 * time.Second}); got != "duration:2s" {
		t.Fatalf("unexpected duration run target: %s", got)
	}
	if got := runTarget(config{duration: 2 * time.Second, total: 10, totalSet: true}); got != "duration:2s,max-total:10" {
		t.Fatalf("unexpected capped duration run target: %s", got)
	}
}

func TestWriteJSONReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	sample := report{TotalScenarios: 2, SuccessScenarios: 2}
	if err := writeJSONReport(path, sample); err != nil {
		t.Fatalf("writeJSONReport error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var decoded report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.TotalScenarios != 2 || decoded.SuccessScenarios != 2 {
		t.Fatalf("unexpected decoded report: %+v", decoded)
	}

	if err := writeJSONReport("../escape.json", sample); err == nil {
		t.Fatalf("expected error for path outside current directory")
	}
}

func TestClientAndRunScenario(t *testing.T) {
	srv := newTodoServer(t)
	client := newTodoClient(srv.URL+"/", srv.Client())
	c := newCollector()

	created, status, err := client.create(time.Second, "load-1", 1, c)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if status != http.StatusOK || created.ID != "0" || created.Title != "load-1" {
		t.Fatalf("unexpected create result: status=%d todo=%+v", status, created)
	}

	if status, err := client.update(time.Second, created.ID, c); err != nil || status != http.StatusOK {
		t.Fatalf("update: status=%d err=%v", status, err)
	}
	if status, err := client.remove(time.Second, created.ID, c); err != nil || status != http.StatusOK {
		t.Fatalf("remove: status=%d err=%v", status, err)
	}

	if status, err := client.update(time.Second, "404", c); err == nil || status != http.StatusInternalServerError {
		t.Fatalf("expected update of missing todo to fail with 500, got status=%d err=%v", status, err)
	}

	cfg := config{mode: modeCreateUpdateDelete, timeout: time.Second, titlePrefix: "load"}
	if err := runScenario(client, cfg, 7, "run", c); err != nil {
		t.Fatalf("runScenario: %v", err)
	}

	for _, name := range []string{"CreateTodo", "UpdateTodo", "DeleteTodo", "scenario"} {
		if _, ok := c.snapshot(name); !ok {
			t.Fatalf("expected %s stats", name)
		}
	}
	update, _ := c.snapshot("UpdateTodo")
	if update.Calls != 3 || update.Failed != 1 || update.Codes["500"] != 1 {
		t.Fatalf("unexpected UpdateTodo stats: %+v", update)
	}
}

func TestRunScenarioTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	client := newTodoClient(addr, nil)
	c := newCollector()

	err := runScenario(client, config{mode: modeCreate, timeout: time.Second, titlePrefix: "load"}, 0, "run", c)
	if err == nil {
		t.Fatalf("expected error for unreachable server")
	}

	scenario, ok := c.snapshot("scenario")
	if !ok || scenario.Failed != 1 || scenario.Codes["transport_error"] != 1 {
		t.Fatalf("unexpected scenario stats: %+v", scenario)
	}
}

func TestRunLoad(t *testing.T) {
	srv := newTodoServer(t)
	client := newTodoClient(srv.URL, srv.Client())

	result := runLoad(client, config{
		total:       20,
		concurrency: 4,
		timeout:     2 * time.Second,
		mode:        modeCreateUpdateDelete,
		titlePrefix: "load",
	})

	if result.TotalScenarios != 20 || result.SuccessScenarios != 20 || result.FailedScenarios != 0 {
		t.Fatalf("unexpected report: %+v", result)
	}
	if result.Methods["DeleteTodo"].Calls != 20 {
		t.Fatalf("expected 20 deletes, got %+v", result.Methods["DeleteTodo"])
	}
}

func TestPrintReport(t *testing.T) {
	r := report{
		TotalScenarios:   2,
		SuccessScenarios: 2,
		Methods: map[string]methodReport{
			"scenario":   {Calls: 2, Success: 2},
			"CreateTodo": {Calls: 2, Success: 2},
		},
	}

	out := captureStdout(t, func() {
		printReport(r, config{mode: modeCreate, total: 2})
	})

	if !strings.Contains(out, "Load test summary") {
		t.Fatalf("expected summary header, got: %s", out)
	}
	if !strings.Contains(out, "CreateTodo") {
		t.Fatalf("expected method section, got: %s", out)
	}
}

func TestMainSmoke(t *testing.T) {
	srv := newTodoServer(t)

	dir := t.TempDir()
	outPath := filepath.Join(dir, "main-report.json")

	withCLIArgs(t, []string{
		"-addr=" + srv.URL,
		"-mode=create",
		"-total=5",
		"-concurrency=2",
		"-timeout=2s",
		"-output=" + outPath,
	}, func() {
		main()
	})

	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("expected report file from main: %v", err)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = oldStdout

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read captured output: %v", err)
	}
	_ = r.Close()

	return string(data)
}
