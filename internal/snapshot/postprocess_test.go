package snapshot

import (
	"strings"
	"testing"
)

func TestCleanStripsDevScripts(t *testing.T) {
	t.Parallel()

	in := `<html><head>` +
		`<script type="module" src="/@vite/client"></script>` +
		`<script type="module">import { injectIntoGlobalHook } from "/@react-refresh";
injectIntoGlobalHook(window);</script>` +
		`</head><body><div data-replit-metadata="client/src/App.tsx:10" data-component-name="App">hi</div></body></html>`

	out := Clean(in)
	if strings.Contains(out, "/@vite/client") {
		t.Fatal("expected vite client script to be removed")
	}
	if strings.Contains(out, "injectIntoGlobalHook") {
		t.Fatal("expected react refresh bootstrap to be removed")
	}
	if strings.Contains(out, "data-replit-metadata") || strings.Contains(out, "data-component-name") {
		t.Fatal("expected dev metadata attributes to be removed")
	}
	if !strings.Contains(out, ">hi<") {
		t.Fatal("expected page content to survive cleanup")
	}
}

func TestCleanPreservesStructuredData(t *testing.T) {
	t.Parallel()

	jsonLD := `<script type="application/ld+json">{"@context":"https://schema.org","@type":"MedicalClinic"}</script>`
	in := `<html><head>` + jsonLD + `</head><body></body></html>`

	out := Clean(in)
	if !strings.Contains(out, jsonLD) {
		t.Fatal("expected JSON-LD block to survive cleanup")
	}
}

func TestCleanInsertsProvenanceMarker(t *testing.T) {
	t.Parallel()

	out := Clean(`<html><head><title>x</title></head><body></body></html>`)
	if strings.Count(out, ProvenanceComment) != 1 {
		t.Fatalf("expected exactly one provenance marker, got %d", strings.Count(out, ProvenanceComment))
	}
	if !strings.Contains(out, ProvenanceComment+"\n</head>") {
		t.Fatal("expected marker immediately before </head>")
	}
}

func TestCleanIdempotent(t *testing.T) {
	t.Parallel()

	in := `<html><head><script type="module" src="/@vite/client"></script></head><body><a href="/services">s</a></body></html>`
	once := Clean(in)
	twice := Clean(once)
	if once != twice {
		t.Fatal("expected Clean to be a no-op on its own output")
	}
}
