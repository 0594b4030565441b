package canonical

import (
	"net/http"
	"strings"

	"github.com/empathyhealth/sitesnap/internal/snapshot"
)

// Decision is the outcome of resolving one request URL. A zero Decision
// means the URL is already canonical.
type Decision struct {
	Redirect bool
	Target   string
	Status   int
}

// Resolver computes canonical decisions. It is a pure function of its
// configuration and inputs; no I/O happens at resolve time.
type Resolver struct {
	scheme string
	host   string
	table  *Table
}

// NewResolver builds a resolver for the preferred scheme and host.
func NewResolver(preferredScheme, preferredHost string, table *Table) *Resolver {
	return &Resolver{
		scheme: strings.ToLower(preferredScheme),
		host:   strings.ToLower(preferredHost),
		table:  table,
	}
}

// Resolve applies, in strict precedence order: host/scheme normalization,
// trailing-slash stripping, then the rule table. Exactly one branch fires;
// each target is itself canonical, so resolving a decision's target always
// yields "no redirect".
func (r *Resolver) Resolve(scheme, host, path, rawQuery string) Decision {
	query := ""
	if rawQuery != "" {
		query = "?" + rawQuery
	}
	normPath := snapshot.NormalizeRoute(path)

	if !r.hostMatches(scheme, host) {
		// Collapse slash and rule normalization into the same hop so the
		// client never sees a second redirect from the preferred host.
		target := normPath
		if rule, ok := r.table.Lookup(normPath); ok {
			target = rule.Destination
		}
		if strings.HasPrefix(target, "http") {
			return Decision{Redirect: true, Target: target + query, Status: http.StatusMovedPermanently}
		}
		return Decision{
			Redirect: true,
			Target:   r.scheme + "://" + r.host + target + query,
			Status:   http.StatusMovedPermanently,
		}
	}

	if path != "/" && strings.HasSuffix(path, "/") {
		target := normPath
		if rule, ok := r.table.Lookup(normPath); ok {
			target = rule.Destination
		}
		// 308 keeps method semantics for HEAD and matches the CDN's own
		// trailing-slash behavior.
		return Decision{Redirect: true, Target: target + query, Status: http.StatusPermanentRedirect}
	}

	if rule, ok := r.table.Lookup(normPath); ok {
		status := http.StatusFound
		if rule.Permanent {
			status = http.StatusMovedPermanently
		}
		return Decision{Redirect: true, Target: rule.Destination + query, Status: status}
	}

	return Decision{}
}

func (r *Resolver) hostMatches(scheme, host string) bool {
	scheme = strings.ToLower(scheme)
	host = strings.ToLower(host)
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")
	return scheme == r.scheme && host == r.host
}
