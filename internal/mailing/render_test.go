package mailing

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "single variable",
			template: "Hello {{name}}!",
			vars:     map[string]string{"name": "Anna"},
			want:     "Hello Anna!",
		},
		{
			name:     "whitespace inside delimiters",
			template: "Hello {{ name }}!",
			vars:     map[string]string{"name": "Anna"},
			want:     "Hello Anna!",
		},
		{
			name:     "variable repeated",
			template: "{{code}} and again {{ code }}",
			vars:     map[string]string{"code": "X9"},
			want:     "X9 and again X9",
		},
		{
			name:     "multiple variables",
			template: "{{greeting}}, {{name}}. Your plan: {{plan}}.",
			vars:     map[string]string{"greeting": "Hi", "name": "Anna", "plan": "Core Plan"},
			want:     "Hi, Anna. Your plan: Core Plan.",
		},
		{
			name:     "missing key stays as literal placeholder",
			template: "Hello {{name}}, code {{code}}",
			vars:     map[string]string{"name": "Anna"},
			want:     "Hello Anna, code {{code}}",
		},
		{
			name:     "empty template",
			template: "",
			vars:     map[string]string{"name": "Anna"},
			want:     "",
		},
		{
			name:     "no variables supplied",
			template: "Hello {{name}}",
			vars:     map[string]string{},
			want:     "Hello {{name}}",
		},
		{
			name:     "value is inserted as plain text, not re-expanded",
			template: "{{a}} {{b}}",
			vars:     map[string]string{"a": "{{b}}", "b": "two"},
			want:     "{{b}} two",
		},
		{
			name:     "no recursive expansion of inserted placeholders",
			template: "{{outer}}",
			vars:     map[string]string{"outer": "{{outer}}"},
			want:     "{{outer}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.template, tt.vars)
			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

// Full variable coverage must leave no placeholder tokens behind.
func TestRenderFullCoverageLeavesNoPlaceholders(t *testing.T) {
	template := "Hi {{ recipient_name }}, {{ inviter_name }} invited you. Code: {{ invitation_code }} ({{ plan_name }}, {{ duration }}). {{ redemption_link }}"
	vars := map[string]string{
		"recipient_name":  "Anna",
		"inviter_name":    "Boris",
		"invitation_code": "ABCD2345EFGH",
		"plan_name":       "Max Plan",
		"duration":        "1 year",
		"redemption_link": "https://biomathcore.com/#/redeem-invitation?code=ABCD2345EFGH",
	}

	got := Render(template, vars)
	if strings.Contains(got, "{{") || strings.Contains(got, "}}") {
		t.Errorf("rendered output still contains placeholder tokens: %q", got)
	}
}

// Substitution runs against the original template positions, so the
// result cannot depend on map iteration order. Maps iterate in random
// order in Go; repeating the render is enough to catch order-dependent
// implementations.
func TestRenderOrderIndependent(t *testing.T) {
	template := "{{a}}{{b}}{{c}}{{d}}{{e}}"
	vars := map[string]string{"a": "{{b}}", "b": "{{c}}", "c": "{{d}}", "d": "{{e}}", "e": "5"}

	want := Render(template, vars)
	for i := 0; i < 50; i++ {
		if got := Render(template, vars); got != want {
			t.Fatalf("iteration %d: Render = %q, want %q", i, got, want)
		}
	}
	if want != "{{b}}{{c}}{{d}}{{e}}5" {
		t.Errorf("Render = %q, want single-pass substitution result", want)
	}
}

func TestToPlainText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "empty input",
			html: "",
			want: "",
		},
		{
			name: "paragraphs become lines",
			html: "<p>A</p><p>B</p>",
			want: "A\nB",
		},
		{
			name: "style block dropped with contents",
			html: "<style>\n.body { color: red; }\n</style>Hello",
			want: "Hello",
		},
		{
			name: "script block dropped with contents",
			html: "before<script type=\"text/javascript\">\nalert('x');\n</script>after",
			want: "beforeafter",
		},
		{
			name: "list items get star prefix",
			html: "<ul><li>one</li><li>two</li></ul>",
			want: "* one\n  * two",
		},
		{
			name: "br becomes newline",
			html: "line1<br/>line2<br >line2b",
			want: "line1\nline2\nline2b",
		},
		{
			name: "div close becomes newline",
			html: "<div>first</div><div>second</div>",
			want: "first\nsecond",
		},
		{
			name: "remaining tags stripped",
			html: `<a href="https://example.com">click</a> <strong>bold</strong>`,
			want: "click bold",
		},
		{
			name: "nbsp decoded",
			html: "a&nbsp;b",
			want: "a b",
		},
		{
			name: "five known entities decoded",
			html: "&lt;tag&gt; &amp; &quot;quoted&quot;&nbsp;done",
			want: `<tag> & "quoted" done`,
		},
		{
			name: "unknown entities left as-is",
			html: "caf&eacute; &copy;2026",
			want: "caf&eacute; &copy;2026",
		},
		{
			name: "result is trimmed",
			html: "  <p>  hello  </p>  ",
			want: "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPlainText(tt.html)
			if got != tt.want {
				t.Errorf("ToPlainText(%q) = %q, want %q", tt.html, got, tt.want)
			}
		})
	}
}

func TestToPlainTextMultilineStyle(t *testing.T) {
	html := `<html><head><style>
body { font-family: sans-serif; }
.button { background: #4f46e5; color: white; }
</style></head><body><p>Welcome!</p></body></html>`

	got := ToPlainText(html)
	if got != "Welcome!" {
		t.Errorf("ToPlainText = %q, want %q", got, "Welcome!")
	}
	if strings.Contains(got, "font-family") {
		t.Error("style contents leaked into plain text")
	}
}
