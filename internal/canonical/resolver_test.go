package canonical

import (
	"net/http"
	"testing"

	"go.uber.org/zap"
)

func testTable(t *testing.T, rules []Rule) *Table {
	t.Helper()
	return NewTable(rules, 0, zap.NewNop())
}

func TestResolveCanonicalURLNoRedirect(t *testing.T) {
	t.Parallel()

	r := NewResolver("https", "www.example.com", testTable(t, nil))
	d := r.Resolve("https", "www.example.com", "/services", "")
	if d.Redirect {
		t.Fatalf("expected no redirect for canonical URL, got %+v", d)
	}
}

func TestResolveHostMismatch(t *testing.T) {
	t.Parallel()

	r := NewResolver("https", "www.example.com", testTable(t, nil))
	d := r.Resolve("http", "example.com", "/services", "ref=ad")
	if !d.Redirect || d.Status != http.StatusMovedPermanently {
		t.Fatalf("expected 301 host redirect, got %+v", d)
	}
	if d.Target != "https://www.example.com/services?ref=ad" {
		t.Fatalf("unexpected target %q", d.Target)
	}
}

func TestResolveHostMismatchCollapsesSlashAndRule(t *testing.T) {
	t.Parallel()

	r := NewResolver("https", "www.example.com", testTable(t, []Rule{
		{Source: "/old", Destination: "/new", Permanent: true},
	}))

	// Non-preferred host with trailing slash and a rule hit must land on
	// the final target in a single hop.
	d := r.Resolve("http", "example.com", "/old/", "")
	if !d.Redirect || d.Status != http.StatusMovedPermanently {
		t.Fatalf("expected single 301, got %+v", d)
	}
	if d.Target != "https://www.example.com/new" {
		t.Fatalf("unexpected target %q", d.Target)
	}
}

func TestResolveDefaultPort(t *testing.T) {
	t.Parallel()

	r := NewResolver("https", "www.example.com", testTable(t, nil))
	if d := r.Resolve("https", "www.example.com:443", "/services", ""); d.Redirect {
		t.Fatalf("expected :443 host to match preferred host, got %+v", d)
	}
	if d := r.Resolve("https", "WWW.Example.COM", "/services", ""); d.Redirect {
		t.Fatalf("expected case-insensitive host match, got %+v", d)
	}
}

func TestResolveTrailingSlash(t *testing.T) {
	t.Parallel()

	r := NewResolver("https", "www.example.com", testTable(t, nil))
	d := r.Resolve("https", "www.example.com", "/services/", "page=2")
	if !d.Redirect || d.Status != http.StatusPermanentRedirect {
		t.Fatalf("expected 308 slash redirect, got %+v", d)
	}
	if d.Target != "/services?page=2" {
		t.Fatalf("unexpected target %q", d.Target)
	}

	if d := r.Resolve("https", "www.example.com", "/", ""); d.Redirect {
		t.Fatalf("root path must never slash-redirect, got %+v", d)
	}
}

func TestResolveRuleStatuses(t *testing.T) {
	t.Parallel()

	r := NewResolver("https", "www.example.com", testTable(t, []Rule{
		{Source: "/moved", Destination: "/new-home", Permanent: true},
		{Source: "/campaign", Destination: "/pricing", Permanent: false},
	}))

	if d := r.Resolve("https", "www.example.com", "/moved", ""); d.Status != http.StatusMovedPermanently || d.Target != "/new-home" {
		t.Fatalf("expected permanent rule 301 to /new-home, got %+v", d)
	}
	if d := r.Resolve("https", "www.example.com", "/campaign", ""); d.Status != http.StatusFound || d.Target != "/pricing" {
		t.Fatalf("expected temporary rule 302 to /pricing, got %+v", d)
	}
}

func TestResolveIdempotent(t *testing.T) {
	t.Parallel()

	r := NewResolver("https", "www.example.com", testTable(t, []Rule{
		{Source: "/old", Destination: "/new", Permanent: true},
		{Source: "/promo", Destination: "/pricing", Permanent: false},
	}))

	starts := []struct {
		scheme, host, path string
	}{
		{"http", "example.com", "/old/"},
		{"https", "www.example.com", "/services/"},
		{"https", "www.example.com", "/old"},
		{"https", "www.example.com", "/promo"},
	}
	for _, s := range starts {
		d := r.Resolve(s.scheme, s.host, s.path, "")
		if !d.Redirect {
			t.Fatalf("expected redirect for %+v", s)
		}
		// The target must itself be canonical.
		again := r.Resolve("https", "www.example.com", pathOf(d.Target), "")
		if again.Redirect {
			t.Fatalf("target %q of %+v is not canonical: %+v", d.Target, s, again)
		}
	}
}

func TestResolveOffsiteDestinationKeepsQuery(t *testing.T) {
	t.Parallel()

	r := NewResolver("https", "www.example.com", testTable(t, []Rule{
		{Source: "/partners", Destination: "https://partners.example.org/clinic", Permanent: true},
	}))

	d := r.Resolve("http", "example.com", "/partners", "utm_source=ad")
	if !d.Redirect || d.Target != "https://partners.example.org/clinic?utm_source=ad" {
		t.Fatalf("expected off-site target with query preserved, got %+v", d)
	}

	d = r.Resolve("https", "www.example.com", "/partners", "utm_source=ad")
	if !d.Redirect || d.Target != "https://partners.example.org/clinic?utm_source=ad" {
		t.Fatalf("expected off-site target with query preserved on preferred host, got %+v", d)
	}
}

func TestResolveNormalizesRuleDestinations(t *testing.T) {
	t.Parallel()

	// A hand-authored destination with a trailing slash must still land on
	// the canonical form in one hop.
	r := NewResolver("https", "www.example.com", testTable(t, []Rule{
		{Source: "/old-path", Destination: "/new-path/", Permanent: true},
	}))

	d := r.Resolve("https", "www.example.com", "/old-path", "")
	if !d.Redirect || d.Status != http.StatusMovedPermanently {
		t.Fatalf("expected 301 rule redirect, got %+v", d)
	}
	if d.Target != "/new-path" {
		t.Fatalf("expected normalized target /new-path, got %q", d.Target)
	}
	if again := r.Resolve("https", "www.example.com", d.Target, ""); again.Redirect {
		t.Fatalf("target %q is not canonical: %+v", d.Target, again)
	}
}

func pathOf(target string) string {
	const prefix = "https://www.example.com"
	if len(target) > len(prefix) && target[:len(prefix)] == prefix {
		return target[len(prefix):]
	}
	return target
}
