package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/errors"
)

// renderer parses pipe tables, which plain CommonMark does not.
var renderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// PrintHTML renders the filtered report as a standalone tabular HTML document
// for hard-copy output. The table is built as markdown and converted with
// goldmark.
func PrintHTML(title string, recs []baggage.Record) (string, error) {
	md := buildMarkdown(title, recs)

	var body bytes.Buffer
	if err := renderer.Convert([]byte(md), &body); err != nil {
		return "", errors.NewEnvironment(fmt.Sprintf("print view rendering failed: %v", err))
	}

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html><head>\n")
	doc.WriteString(fmt.Sprintf("<title>%s</title>\n", htmlEscape(title)))
	doc.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"/>` + "\n")
	doc.WriteString("<style>\n")
	doc.WriteString("body{font-family:system-ui,sans-serif;padding:16px}\n")
	doc.WriteString("h1{font-size:18px;margin:0 0 10px}\n")
	doc.WriteString("table{width:100%;border-collapse:collapse}\n")
	doc.WriteString("th,td{border:1px solid #999;padding:6px;font-size:13px}\n")
	doc.WriteString("th{background:#eee;text-align:left}\n")
	doc.WriteString("</style>\n</head><body>\n")
	doc.Write(body.Bytes())
	doc.WriteString("</body></html>\n")

	return doc.String(), nil
}

// buildMarkdown lays out the report as a heading plus a pipe table.
func buildMarkdown(title string, recs []baggage.Record) string {
	var b strings.Builder
	b.WriteString("# " + title + "\n\n")
	b.WriteString("| Time | Code | Type | Client | Matched |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, r := range recs {
		matched := "-"
		if r.Type == baggage.RecordRetrieve {
			if r.Matched {
				matched = "Yes"
			} else {
				matched = "No"
			}
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			r.Time().UTC().Format(time.RFC3339),
			cellEscape(r.Code),
			r.Type,
			cellEscape(r.Client),
			matched,
		))
	}
	return b.String()
}

func cellEscape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
