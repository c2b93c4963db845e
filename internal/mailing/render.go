// Package mailing implements the email pipeline: template storage and
// rendering, dispatch through the configured provider with append-only
// send logging, and invitation issuance.
package mailing

import (
	"regexp"
	"strings"
)

// placeholderPattern matches {{ key }} tokens. Keys carry no spaces;
// whitespace inside the delimiters is ignored.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Render substitutes {{ key }} placeholders with their values. The scan
// runs once over the original template, so substituted values are
// inserted as plain text and never re-expanded. Placeholders without a
// matching key are left in place verbatim.
func Render(template string, vars map[string]string) string {
	if template == "" {
		return ""
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := strings.TrimSpace(match[2 : len(match)-2])
		if value, ok := vars[key]; ok {
			return value
		}
		return match
	})
}

var (
	styleBlockRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlockRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	liOpenRe      = regexp.MustCompile(`(?i)<li[^>]*>`)
	blockCloseRe  = regexp.MustCompile(`(?i)</(?:div|p|li|ul|ol|h[1-6])>`)
	brRe          = regexp.MustCompile(`(?i)<br\s*/?>`)
	anyTagRe      = regexp.MustCompile(`<[^>]+>`)
)

// entityReplacer decodes the five entities the templates actually use.
// Anything else passes through untouched.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&quot;", `"`,
	"&lt;", "<",
	"&gt;", ">",
)

// ToPlainText derives the text/plain alternative stored alongside the
// HTML body. Style and script blocks are removed with their contents,
// block-closing tags and <br> become newlines, list items get a star
// prefix, and every remaining tag is stripped.
func ToPlainText(html string) string {
	text := styleBlockRe.ReplaceAllString(html, "")
	text = scriptBlockRe.ReplaceAllString(text, "")
	text = liOpenRe.ReplaceAllString(text, "  * ")
	text = blockCloseRe.ReplaceAllString(text, "\n")
	text = brRe.ReplaceAllString(text, "\n")
	text = anyTagRe.ReplaceAllString(text, "")
	text = entityReplacer.Replace(text)
	return strings.TrimSpace(text)
}
