package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/eventportal/internal/app/system/htmlsanitize"
)

func TestRich_KeepsEditorFormatting(t *testing.T) {
	tests := []struct {
		name string
		in   string
		keep []string
	}{
		{"schedule table", `<table class="schedule"><tr><td colspan="2" style="text-align: center">Day 1</td></tr></table>`,
			[]string{"<table", `class="schedule"`, `colspan="2"`, "text-align", "Day 1"}},
		{"agenda list", "<ol><li>Keynote</li><li>Lunch</li></ol>", []string{"<ol>", "<li>Keynote</li>"}},
		{"headings and quotes", "<h2>Prizes</h2><blockquote>Best team wins</blockquote>", []string{"<h2>Prizes</h2>", "<blockquote>"}},
		{"inline marks", "<mark>New</mark> <s>old</s> H<sub>2</sub>O x<sup>2</sup> <u>u</u>", []string{"<mark>", "<s>", "<sub>", "<sup>", "<u>"}},
		{"code sample", "<pre><code>go run .</code></pre>", []string{"<pre><code>go run .</code></pre>"}},
		{"rule and break", "Before<hr>After<br>Line", []string{"<hr", "<br"}},
		{"venue link", `<a href="https://maps.example.com/hall">Hall A</a>`, []string{`href="https://maps.example.com/hall"`}},
		{"organizer mail", `<a href="mailto:events@example.edu">mail us</a>`, []string{"mailto:events@example.edu"}},
		{"poster image", `<img src="https://res.cloudinary.com/demo/poster.jpg" alt="Poster">`, []string{"<img", "poster.jpg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := htmlsanitize.Rich(tt.in)
			for _, want := range tt.keep {
				if !strings.Contains(got, want) {
					t.Errorf("Rich(%q) = %q, missing %q", tt.in, got, want)
				}
			}
		})
	}
}

func TestRich_DropsActiveContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		drop []string
	}{
		{"script", `<p>Join us</p><script>steal()</script>`, []string{"<script", "steal()"}},
		{"style tag", `<style>body{display:none}</style><p>x</p>`, []string{"<style", "display:none"}},
		{"event handler", `<img src="https://x.test/a.png" onerror="steal()">`, []string{"onerror"}},
		{"click handler", `<button onclick="steal()">RSVP</button>`, []string{"onclick", "<button"}},
		{"javascript link", `<a href="javascript:steal()">RSVP</a>`, []string{"javascript:"}},
		{"data image", `<img src="data:image/svg+xml;base64,PHN2Zz4=">`, []string{"data:"}},
		{"iframe", `<iframe src="https://evil.test"></iframe>`, []string{"<iframe"}},
		{"form", `<form action="https://evil.test"><input name="pw"></form>`, []string{"<form", "<input"}},
		{"style on paragraph", `<p style="position:fixed">x</p>`, []string{"position"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.ToLower(htmlsanitize.Rich(tt.in))
			for _, bad := range tt.drop {
				if strings.Contains(got, bad) {
					t.Errorf("Rich(%q) = %q, still has %q", tt.in, got, bad)
				}
			}
		})
	}
}

func TestPrepareForDisplay(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain line", "Bring a laptop", "<p>Bring a laptop</p>"},
		{"plain with breaks", "Doors 6pm\nTalks 7pm\r\nPizza after", "<p>Doors 6pm<br>Talks 7pm<br>Pizza after</p>"},
		{"plain with symbols", "Q&A > lecture", "<p>Q&amp;A &gt; lecture</p>"},
		{"markup passes rich", "<p><strong>Free</strong> entry</p>", "<p><strong>Free</strong> entry</p>"},
		{"markup loses script", "<p>Hi</p><script>x()</script>", "<p>Hi</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(htmlsanitize.PrepareForDisplay(tt.in)); got != tt.want {
				t.Errorf("PrepareForDisplay(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafeJS_MatchesSafeJSON(t *testing.T) {
	v := map[string]any{"title": "Hack </script> Night", "day": 3}
	if got, want := string(htmlsanitize.SafeJS(v)), htmlsanitize.SafeJSON(v); got != want {
		t.Errorf("SafeJS = %q, want %q", got, want)
	}
}
