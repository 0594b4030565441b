package validator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/snapshot"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	big := strings.Repeat("content ", 1000)
	mux.HandleFunc("/target", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>" + big + "</html>"))
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/target", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/loop-a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop-b", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/loop-b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop-a", http.StatusMovedPermanently)
	})
	for i := 0; i < 10; i++ {
		next := "/hop-" + strconv.Itoa(i+1)
		mux.HandleFunc("/hop-"+strconv.Itoa(i), func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, next, http.StatusFound)
		})
	}
	mux.HandleFunc("/thin", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>tiny</html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newValidator(t *testing.T, baseURL string) *Validator {
	t.Helper()
	return New(Config{BaseURL: baseURL, MinContentSize: 1000}, zap.NewNop())
}

func TestFollowPassesOnDirect200(t *testing.T) {
	t.Parallel()

	srv := testServer(t)
	v := newValidator(t, srv.URL)
	result := v.Follow(context.Background(), "/target")
	if result.Status != StatusPass {
		t.Fatalf("expected pass, got %+v", result)
	}
}

func TestFollowTracksRedirectChain(t *testing.T) {
	t.Parallel()

	srv := testServer(t)
	v := newValidator(t, srv.URL)
	result := v.Follow(context.Background(), "/redirect")
	if result.Status != StatusPass {
		t.Fatalf("expected pass after one hop, got %+v", result)
	}
	if len(result.Chain) != 2 || result.Chain[1] != "/target" {
		t.Fatalf("unexpected chain %v", result.Chain)
	}
	if result.FinalURL != "/target" {
		t.Fatalf("unexpected final url %q", result.FinalURL)
	}
}

func TestFollowDetectsLoop(t *testing.T) {
	t.Parallel()

	srv := testServer(t)
	v := newValidator(t, srv.URL)
	result := v.Follow(context.Background(), "/loop-a")
	if result.Status != StatusFail || !strings.Contains(result.Error, "loop") {
		t.Fatalf("expected loop failure, got %+v", result)
	}
}

func TestFollowEnforcesHopBudget(t *testing.T) {
	t.Parallel()

	srv := testServer(t)
	v := newValidator(t, srv.URL)
	result := v.Follow(context.Background(), "/hop-0")
	if result.Status != StatusFail || !strings.Contains(result.Error, "max redirects") {
		t.Fatalf("expected hop budget failure, got %+v", result)
	}
}

func TestFollowFailsOn404(t *testing.T) {
	t.Parallel()

	srv := testServer(t)
	v := newValidator(t, srv.URL)
	result := v.Follow(context.Background(), "/nope")
	if result.Status != StatusFail || result.HTTPStatus != http.StatusNotFound {
		t.Fatalf("expected 404 failure, got %+v", result)
	}
}

func TestFollowWarnsOnThinContent(t *testing.T) {
	t.Parallel()

	srv := testServer(t)
	v := newValidator(t, srv.URL)
	result := v.Follow(context.Background(), "/thin")
	if result.Status != StatusWarning {
		t.Fatalf("expected soft-404 warning, got %+v", result)
	}
}

func TestRunBuildsReportAndChecksDestinations(t *testing.T) {
	t.Parallel()

	srv := testServer(t)
	store, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := store.Write("/target", []byte("x")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	v := newValidator(t, srv.URL)
	report := v.Run(context.Background(),
		[]string{"/target", "/redirect", "/loop-a"},
		[]string{"/target", "/absent-page", "/blog/dynamic-post", "https://other.example.com"},
		store,
	)

	if report.Total != 3 || report.Passed != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(report.MissingDestinations) != 1 || report.MissingDestinations[0] != "/absent-page" {
		t.Fatalf("expected only /absent-page missing, got %v", report.MissingDestinations)
	}
	if report.OK(5) {
		t.Fatal("a chain failure must fail the gate regardless of tolerance")
	}
}

func TestReportOKMissingDestinationTolerance(t *testing.T) {
	t.Parallel()

	report := Report{MissingDestinations: []string{"/a", "/b", "/c"}}
	if !report.OK(3) {
		t.Fatal("expected missing destinations within tolerance to pass")
	}
	if report.OK(2) {
		t.Fatal("expected missing destinations over tolerance to fail")
	}
}

func TestLoadProblemCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "problems.csv")
	csv := "URL,Last crawled\n" +
		"https://www.example.com/old-page,2026-01-01\n" +
		"https://www.example.com/old-page,2026-01-02\n" +
		"/relative-path,2026-01-03\n" +
		"https://www.example.com/with-query?utm=x,2026-01-04\n" +
		"not-a-path,2026-01-05\n"
	if err := os.WriteFile(path, []byte(csv), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	paths, err := LoadProblemCSV(path)
	if err != nil {
		t.Fatalf("LoadProblemCSV() error = %v", err)
	}
	want := []string{"/old-page", "/relative-path", "/with-query?utm=x"}
	if len(paths) != len(want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.json")
	report := Report{Total: 1, Passed: 1}
	if err := WriteReport(report, path); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(payload), `"total": 1`) {
		t.Fatalf("unexpected report payload %s", payload)
	}
}
