// Package snapshot owns the prerendered HTML artifacts: the route-to-file
// mapping, the post-processing filters, and the on-disk store.
package snapshot

import (
	"path"
	"strings"
)

// FilePath maps a route path to its snapshot file, relative to the snapshot
// root. The mapping is the single source of truth shared by the writer, the
// manifest verifier, and the serving middleware; the nested scheme is:
//
//	"/"          -> "index.html"
//	"/services"  -> "services/index.html"
//	"/blog/post" -> "blog/post/index.html"
//
// Trailing slashes and query strings must already be stripped by the caller.
func FilePath(route string) string {
	clean := strings.Trim(route, "/")
	if clean == "" {
		return "index.html"
	}
	return path.Join(clean, "index.html")
}

// NormalizeRoute reduces a raw path to the canonical route form used as the
// manifest key: leading slash, no trailing slash, no query or fragment.
func NormalizeRoute(raw string) string {
	p := raw
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p != "/" {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
