package extract

import (
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head>
  <title>Install Guide</title>
  <meta name="description" content="How to install the tool">
  <style>body { color: red; }</style>
  <script>console.log("tracking");</script>
</head>
<body>
  <nav><a href="/">Home</a><a href="/docs">Docs</a></nav>
  <header>Site Header</header>
  <main>
    <h1>Installation</h1>
    <p>Download the binary and put it on your PATH.</p>
    <h2>Requirements</h2>
    <p>A supported operating system.</p>
  </main>
  <footer>Copyright 2025</footer>
</body>
</html>`

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts title text and metadata", func(t *testing.T) {
		t.Parallel()

		result, err := New().Extract(samplePage)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}

		if result.Title != "Install Guide" {
			t.Errorf("Title = %q, want %q", result.Title, "Install Guide")
		}
		if !strings.Contains(result.Text, "Download the binary") {
			t.Errorf("Text = %q, want body prose included", result.Text)
		}
		if result.WordCount == 0 {
			t.Error("WordCount = 0, want > 0")
		}
		if result.Metadata["description"] != "How to install the tool" {
			t.Errorf("description = %q", result.Metadata["description"])
		}
		if result.Metadata["language"] != "en" {
			t.Errorf("language = %q, want en", result.Metadata["language"])
		}
		if !strings.Contains(result.Metadata["headings"], "Requirements") {
			t.Errorf("headings = %q, want h2 included", result.Metadata["headings"])
		}
	})

	t.Run("strips boilerplate elements", func(t *testing.T) {
		t.Parallel()

		result, err := New().Extract(samplePage)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}

		for _, boilerplate := range []string{"tracking", "color: red", "Site Header", "Copyright 2025"} {
			if strings.Contains(result.Text, boilerplate) {
				t.Errorf("Text contains boilerplate %q", boilerplate)
			}
		}
	})

	t.Run("falls back to h1 when title is missing", func(t *testing.T) {
		t.Parallel()

		result, err := New().Extract(`<html><body><h1>Only Heading</h1><p>text</p></body></html>`)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if result.Title != "Only Heading" {
			t.Errorf("Title = %q, want h1 fallback", result.Title)
		}
	})

	t.Run("falls back to body without semantic container", func(t *testing.T) {
		t.Parallel()

		result, err := New().Extract(`<html><body><div><p>plain div content</p></div></body></html>`)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if !strings.Contains(result.Text, "plain div content") {
			t.Errorf("Text = %q, want div content", result.Text)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		result, err := New().Extract("")
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if result.Text != "" || result.WordCount != 0 {
			t.Errorf("empty document produced text %q (words %d)", result.Text, result.WordCount)
		}
	})
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses whitespace",
			in:   "hello   world\n\tagain",
			want: "hello world again",
		},
		{
			name: "lowercases",
			in:   "Hello WORLD",
			want: "hello world",
		},
		{
			name: "strips punctuation",
			in:   "hello, world! (again)",
			want: "hello world again",
		},
		{
			name: "compatibility normalization",
			in:   "ﬁle", // U+FB01 ligature
			want: "file",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContentFingerprint(t *testing.T) {
	t.Parallel()

	a := ContentFingerprint("Hello,   World!")
	b := ContentFingerprint("hello world")
	if a != b {
		t.Error("cosmetically different texts produced different fingerprints")
	}

	c := ContentFingerprint("entirely different words")
	if a == c {
		t.Error("different texts produced the same fingerprint")
	}

	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}
