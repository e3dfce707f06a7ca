package weft

import (
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

var (
	minifier *minify.M
	once     sync.Once
)

// getMinifier returns a configured HTML minifier (singleton)
func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.AddFunc("text/html", html.Minify)
	})
	return minifier
}

// minifySource strips insignificant whitespace from template source
// before lexing, so templates authored with indentation do not realize
// whitespace text nodes. Interpolations and directive attributes pass
// through untouched; on failure the original source is kept.
func minifySource(source string) string {
	if !strings.Contains(source, "<") {
		return strings.Join(strings.Fields(source), " ")
	}
	minified, err := getMinifier().String("text/html", source)
	if err != nil {
		return source
	}
	return minified
}
