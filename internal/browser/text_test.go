package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "paragraphs become lines",
			markup: `<main><h1>Careers</h1><p>Join   the <b>team</b>.</p><p>Apply today</p></main>`,
			want:   "Careers\nJoin the team.\nApply today",
		},
		{
			name:   "scripts and styles are skipped",
			markup: `<body><script>var x = 1;</script><style>p{}</style><div>Visible</div><noscript>hidden</noscript></body>`,
			want:   "Visible",
		},
		{
			name:   "inline elements stay on one line",
			markup: `<body><a href="/a">First</a> <a href="/b">Second</a></body>`,
			want:   "First Second",
		},
		{
			name:   "list items",
			markup: `<ul><li>one</li><li>two</li></ul>`,
			want:   "one\ntwo",
		},
		{
			name:   "head content ignored",
			markup: `<html><head><title>Title</title></head><body>Body</body></html>`,
			want:   "Body",
		},
		{
			name:   "empty",
			markup: ``,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractText(tt.markup))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 1000))
	assert.Equal(t, strings.Repeat("a", 1000)+"...", Truncate(strings.Repeat("a", 1500), 1000))
	assert.Equal(t, "héllo", Truncate("héllo", 5), "counts characters, not bytes")
	assert.Equal(t, "hé...", Truncate("héllo", 2))
	assert.Equal(t, "unbounded", Truncate("unbounded", 0))
}
