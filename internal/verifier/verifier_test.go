package verifier

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/snapshot"
)

func richPage(links int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < links; i++ {
		fmt.Fprintf(&b, `<a href="/page-%d">link</a>`, i)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func newVerifyStore(t *testing.T) *snapshot.Store {
	t.Helper()
	store, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestVerifyAllPresent(t *testing.T) {
	t.Parallel()

	store := newVerifyStore(t)
	manifest := []string{"/", "/services", "/therapy"}
	for _, r := range manifest {
		if _, err := store.Write(r, []byte(richPage(8))); err != nil {
			t.Fatalf("Write(%q) error = %v", r, err)
		}
	}

	report := Verify(store, manifest, Config{}, zap.NewNop())
	if !report.OK() {
		t.Fatalf("expected passing report, got %+v", report)
	}
	if report.Present != 3 || len(report.LowQuality) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestVerifyMissingSnapshotFails(t *testing.T) {
	t.Parallel()

	store := newVerifyStore(t)
	manifest := []string{"/", "/services", "/therapy"}
	for _, r := range manifest[:2] {
		if _, err := store.Write(r, []byte(richPage(8))); err != nil {
			t.Fatalf("Write(%q) error = %v", r, err)
		}
	}

	report := Verify(store, manifest, Config{}, zap.NewNop())
	if report.OK() {
		t.Fatal("expected report to fail with a snapshot missing")
	}
	if len(report.Missing) != 1 || report.Missing[0] != "/therapy" {
		t.Fatalf("expected /therapy to be named missing, got %+v", report.Missing)
	}
}

func TestVerifyLowQualityIsAdvisory(t *testing.T) {
	t.Parallel()

	store := newVerifyStore(t)
	if _, err := store.Write("/sparse", []byte(richPage(1))); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	report := Verify(store, []string{"/sparse"}, Config{}, zap.NewNop())
	if !report.OK() {
		t.Fatal("low-quality snapshots must not fail verification")
	}
	if len(report.LowQuality) != 1 || report.LowQuality[0].Route != "/sparse" || report.LowQuality[0].Links != 1 {
		t.Fatalf("expected /sparse flagged low quality, got %+v", report.LowQuality)
	}
}

func TestVerifyAllowlistSuppressesLowQuality(t *testing.T) {
	t.Parallel()

	store := newVerifyStore(t)
	if _, err := store.Write("/contact", []byte(richPage(1))); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	report := Verify(store, []string{"/contact"}, Config{}, zap.NewNop())
	if len(report.LowQuality) != 0 {
		t.Fatalf("expected allowlisted route not to be flagged, got %+v", report.LowQuality)
	}
}
