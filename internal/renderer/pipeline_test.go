package renderer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/empathyhealth/sitesnap/internal/snapshot"
)

type fakeRenderer struct {
	mu      sync.Mutex
	fail    map[string]error
	inUse   atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeRenderer) Render(_ context.Context, _ string, route string) (string, error) {
	cur := f.inUse.Add(1)
	defer f.inUse.Add(-1)
	for {
		prev := f.maxSeen.Load()
		if cur <= prev || f.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}

	f.mu.Lock()
	err := f.fail[route]
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<html><head></head><body>%s</body></html>", route), nil
}

func newPipelineUnderTest(t *testing.T, r PageRenderer, parallel int) (*Pipeline, *snapshot.Store) {
	t.Helper()
	store, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return NewPipeline(r, store, parallel, zap.NewNop()), store
}

func TestPipelineRunWritesSnapshots(t *testing.T) {
	t.Parallel()

	p, store := newPipelineUnderTest(t, &fakeRenderer{}, 2)
	summary := p.Run(context.Background(), "http://localhost:5000", []string{"/", "/services", "/therapy"})

	if summary.Total != 3 || summary.Succeeded != 3 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for _, route := range []string{"/", "/services", "/therapy"} {
		if !store.Exists(route) {
			t.Fatalf("expected snapshot for %q", route)
		}
		data, err := store.Read(route)
		if err != nil {
			t.Fatalf("Read(%q) error = %v", route, err)
		}
		if !strings.Contains(string(data), snapshot.ProvenanceComment) {
			t.Fatalf("expected snapshot for %q to be post-processed", route)
		}
	}
}

func TestPipelineIsolatesFailures(t *testing.T) {
	t.Parallel()

	fake := &fakeRenderer{fail: map[string]error{"/flaky": errors.New("timed out")}}
	p, store := newPipelineUnderTest(t, fake, 2)

	summary := p.Run(context.Background(), "http://localhost:5000", []string{"/", "/flaky", "/services"})
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if store.Exists("/flaky") {
		t.Fatal("failed route must not leave a snapshot")
	}
	if !store.Exists("/") || !store.Exists("/services") {
		t.Fatal("sibling routes must survive one route failing")
	}

	var flaky *RouteResult
	for i := range summary.Results {
		if summary.Results[i].Route == "/flaky" {
			flaky = &summary.Results[i]
		}
	}
	if flaky == nil || flaky.Success || !strings.Contains(flaky.Error, "timed out") {
		t.Fatalf("expected failure recorded for /flaky, got %+v", flaky)
	}
}

func TestPipelineBoundsParallelism(t *testing.T) {
	t.Parallel()

	fake := &fakeRenderer{}
	p, _ := newPipelineUnderTest(t, fake, 2)

	routes := make([]string, 20)
	for i := range routes {
		routes[i] = fmt.Sprintf("/page-%d", i)
	}
	p.Run(context.Background(), "http://localhost:5000", routes)

	if got := fake.maxSeen.Load(); got > 2 {
		t.Fatalf("expected at most 2 concurrent renders, saw %d", got)
	}
}

func TestWriteManifest(t *testing.T) {
	t.Parallel()

	p, store := newPipelineUnderTest(t, &fakeRenderer{}, 1)
	summary := p.Run(context.Background(), "http://localhost:5000", []string{"/"})

	path, err := p.WriteManifest(summary)
	if err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var decoded Summary
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if decoded.Total != 1 || decoded.BaseURL != "http://localhost:5000" {
		t.Fatalf("unexpected manifest %+v", decoded)
	}
	if !strings.HasPrefix(path, store.Root()) {
		t.Fatalf("manifest %q outside snapshot root %q", path, store.Root())
	}
}
