package snapshot

import (
	"regexp"
	"strings"
)

// ProvenanceComment marks a snapshot as machine-generated output.
const ProvenanceComment = "<!-- prerendered by sitesnap -->"

// devScriptPatterns is an explicit deny list. Each pattern targets one known
// development-only injection; structured-data (JSON-LD) script blocks match
// none of them and survive untouched.
var devScriptPatterns = []*regexp.Regexp{
	// Vite HMR client.
	regexp.MustCompile(`<script type="module" src="/@vite/client"></script>`),
	// React refresh bootstrap.
	regexp.MustCompile(`<script type="module">import \{ injectIntoGlobalHook \}[\s\S]*?</script>`),
	// Vite runtime error overlay.
	regexp.MustCompile(`<script type="module">\s*import \{ createHotContext \}[\s\S]*?</script>`),
	// Any leftover dev-server module references.
	regexp.MustCompile(`<script[^>]*src="/(@vite|@react-refresh)[^"]*"[^>]*></script>`),
	// Cloudflare challenge bootstrap.
	regexp.MustCompile(`<script>\(function\(\)\{function c\(\)[\s\S]*?</script>`),
	// Inline tracking-param capture script.
	regexp.MustCompile(`<script>\s*\(function\(\)\s*\{\s*const qs[\s\S]*?</script>`),
}

var devAttrPatterns = []*regexp.Regexp{
	regexp.MustCompile(` data-replit-metadata="[^"]*"`),
	regexp.MustCompile(` data-component-name="[^"]*"`),
}

// Clean strips development-only script tags and metadata attributes from
// captured HTML and inserts the provenance marker. Running Clean on its own
// output is a no-op: cleaned HTML matches none of the removal patterns and
// the marker is inserted at most once.
func Clean(html string) string {
	out := html
	for _, re := range devScriptPatterns {
		out = re.ReplaceAllString(out, "")
	}
	for _, re := range devAttrPatterns {
		out = re.ReplaceAllString(out, "")
	}
	if !strings.Contains(out, ProvenanceComment) {
		out = strings.Replace(out, "</head>", ProvenanceComment+"\n</head>", 1)
	}
	return out
}
