package parser

import (
	"pdm-backend/lib/htmlutil"
	"pdm-backend/lib/textutil"

	"golang.org/x/net/html"
)

func isTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return htmlutil.IsElement(n, tag) }
}

func boldWithText(text string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return htmlutil.IsElement(n, "b") && htmlutil.StrippedText(n) == text
	}
}

func firstNestedTable(root *html.Node) *html.Node {
	return htmlutil.FindFirst(root, isTag("table"))
}

// headerKeys normalizes the emphasized cells of a header row, in order.
// Labels that normalize to nothing stay in the slice as empty strings so
// positions keep lining up with the data cells.
func headerKeys(row *html.Node) []string {
	var out []string
	for _, b := range htmlutil.FindAll(row, isTag("b")) {
		out = append(out, textutil.CleanKey(htmlutil.StrippedText(b)))
	}
	return out
}

// extractPairs handles the report's dominant layout: a table whose rows
// alternate between a row of emphasized label cells and a row of data
// cells at matching column positions. Labels are zipped against values
// strictly by position; labels without a value position and empty labels
// are dropped. Tables with fewer than two rows yield an empty record,
// which is not an error.
func extractPairs(table *html.Node, prefix string) Record {
	out := Record{}
	if table == nil {
		return out
	}
	rows := htmlutil.FindAll(table, isTag("tr"))
	if len(rows) < 2 {
		return out
	}

	for i := 0; i+1 < len(rows); i += 2 {
		labels := htmlutil.FindAll(rows[i], isTag("b"))
		values := htmlutil.FindAll(rows[i+1], isTag("td"))

		for j, label := range labels {
			if j >= len(values) {
				continue
			}
			text := htmlutil.StrippedText(label)
			if text == "" {
				continue
			}
			key := textutil.CleanKey(prefix + "_" + text)
			out[key] = htmlutil.StrippedText(values[j])
		}
	}
	return out
}
