// Package rewriter relocates references inside content documents and
// stylesheets so they point at their destinations in the output site.
package rewriter

import (
	"path"
	"strings"

	"github.com/geocine/epubweb/internal/pathmap"
	"github.com/geocine/epubweb/internal/utils"
	"go.uber.org/zap"
)

// Outcome classifies the result of resolving one reference.
type Outcome int

const (
	// Unchanged references are external, root-absolute or same-document.
	Unchanged Outcome = iota
	// Rewritten references were found in the path map.
	Rewritten
	// Unresolved references look local but match no manifest resource.
	Unresolved
)

func (o Outcome) String() string {
	switch o {
	case Rewritten:
		return "rewritten"
	case Unresolved:
		return "unresolved"
	default:
		return "unchanged"
	}
}

// Resolution is the result of ResolveLink. Ref holds the new reference when
// Outcome is Rewritten and the original one otherwise.
type Resolution struct {
	Outcome Outcome
	Ref     string
	// Target is the lower-cased, cleaned source path that was looked up.
	Target string
}

// RewriteContext is the per-resource state used while rewriting one file.
type RewriteContext struct {
	SourceKey string // normalized manifest key
	SourceDir string // directory of the source, relative to the package document
	Dest      string // destination path relative to the output root
	Index     int    // reading-order position, -1 outside the spine
}

// DestDir returns the destination directory links are computed from
func (c RewriteContext) DestDir() string {
	return utils.SlashDir(c.Dest)
}

// ResolveLink relocates a raw reference found in a resource living at
// sourceDir (archive side) and written to sourceDest (output side).
// It performs no I/O.
func ResolveLink(raw, sourceDir, sourceDest string, pm *pathmap.PathMap) Resolution {
	unchanged := Resolution{Outcome: Unchanged, Ref: raw}

	ref := strings.TrimSpace(raw)
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "/") || strings.Contains(ref, ":") {
		return unchanged
	}

	prefix, suffix := splitSuffix(ref)
	if prefix == "" {
		return unchanged
	}

	target := path.Join(sourceDir, pathmap.Decode(prefix))
	key := pathmap.Normalize(target)

	dest, ok := pm.Lookup(key)
	if !ok {
		return Resolution{Outcome: Unresolved, Ref: raw, Target: key}
	}
	return Resolution{
		Outcome: Rewritten,
		Ref:     utils.HrefTo(utils.SlashDir(sourceDest), dest) + suffix,
		Target:  key,
	}
}

// splitSuffix separates the path-bearing part of a reference from its
// fragment or query suffix.
func splitSuffix(ref string) (string, string) {
	if i := strings.IndexAny(ref, "#?"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

// fontExtensions are commonly referenced from CSS without being packaged.
var fontExtensions = map[string]bool{
	".ttf":   true,
	".otf":   true,
	".woff":  true,
	".woff2": true,
}

// Resolver binds ResolveLink to a path map and reports unresolved references.
type Resolver struct {
	pm  *pathmap.PathMap
	log *zap.Logger
}

// NewResolver creates a resolver over a finished path map
func NewResolver(pm *pathmap.PathMap, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{pm: pm, log: log}
}

// Resolve returns the value to write back for raw and whether it changed.
func (r *Resolver) Resolve(ctx RewriteContext, raw string) (string, bool) {
	res := ResolveLink(raw, ctx.SourceDir, ctx.Dest, r.pm)
	switch res.Outcome {
	case Rewritten:
		return res.Ref, res.Ref != raw
	case Unresolved:
		if !fontExtensions[strings.ToLower(path.Ext(res.Target))] {
			r.log.Warn("unresolved reference",
				zap.String("ref", raw),
				zap.String("source", ctx.SourceKey))
		}
	}
	return raw, false
}
