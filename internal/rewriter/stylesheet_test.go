package rewriter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func stylesheetContext() RewriteContext {
	return RewriteContext{
		SourceKey: "styles/book.css",
		SourceDir: "styles",
		Dest:      "assets/book.css",
		Index:     -1,
	}
}

func TestStylesheetRewriteQuoteForms(t *testing.T) {
	st := NewStylesheetTransformer(NewResolver(testPathMap(t), nil))

	css := `body { background: url("../images/cover.jpg"); }
h1 { background-image: url('../images/cover.jpg'); }
h2 { background-image: URL( ../images/cover.jpg ); }
p { background: url(data:image/png;base64,AAAA); }`

	want := `body { background: url("cover.jpg"); }
h1 { background-image: url('cover.jpg'); }
h2 { background-image: URL( cover.jpg ); }
p { background: url(data:image/png;base64,AAAA); }`

	assert.Equal(t, want, st.Rewrite(stylesheetContext(), css))
}

func TestStylesheetRewriteImports(t *testing.T) {
	st := NewStylesheetTransformer(NewResolver(testPathMap(t), nil))

	css := `@import "extra.css";
@import 'extra.css' screen;
@import url(extra.css);`

	want := `@import "extra.css";
@import 'extra.css' screen;
@import url(extra.css);`

	// Same directory on both sides, so the references keep their text.
	assert.Equal(t, want, st.Rewrite(stylesheetContext(), css))

	ctx := stylesheetContext()
	ctx.Dest = "assets/nested/book.css"
	assert.Contains(t, st.Rewrite(ctx, `@import "extra.css";`), `@import "../extra.css";`)
}

func TestStylesheetRewriteLeavesUnresolved(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	st := NewStylesheetTransformer(NewResolver(testPathMap(t), zap.New(core)))

	css := `@font-face { src: url("../fonts/fallback.woff2") format("woff2"), url(../fonts/fallback.ttf); }
.x { background: url(../images/gone.png); }`

	assert.Equal(t, css, st.Rewrite(stylesheetContext(), css))
	assert.Equal(t, 1, logs.Len())
}

func TestStylesheetTransformFromDocumentContext(t *testing.T) {
	st := NewStylesheetTransformer(NewResolver(testPathMap(t), nil))
	out := st.Transform(chapterContext(), []byte(`div{background:url(../images/cover.jpg)}`))
	assert.Equal(t, `div{background:url(../assets/cover.jpg)}`, string(out))
}
