// Package parser recovers a flat key-value record from the nested,
// non-semantic table layout of inspection report HTML. Sections are
// located by anchor text and a small number of fixed structural hops;
// a section that cannot be located simply contributes no fields, since
// real-world reports routinely omit sections.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"pdm-backend/lib/htmlutil"
	"pdm-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("reports/parser")

var paGroupRe = regexp.MustCompile(`^PA \d+`)

type reportDocument struct {
	doc *goquery.Document
	// every node in document order; anchors and structural hops scan
	// this flattened sequence instead of walking the live tree
	seq []*html.Node
}

// ParseReport extracts one Record from the raw bytes of a report file.
// It only fails when the input cannot be parsed as HTML at all; missing
// sections and malformed rows degrade to absent fields.
func ParseReport(ctx context.Context, content []byte, sourceName string) (Record, error) {
	_, span := tracer.Start(ctx, "ParseReport")
	defer span.End()
	span.SetAttributes(attribute.String("source", sourceName))

	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := &reportDocument{
		doc: goquery.NewDocumentFromNode(root),
		seq: htmlutil.Flatten(root),
	}

	rec := Record{SourceField: sourceName}
	d.extractGeneralInfo(rec)
	d.extractGroups(rec)
	d.extractPartSections(rec)
	d.extractSummaryTable(rec)
	d.extractDetailBlocks(rec)

	span.SetAttributes(attribute.Int("fields", len(rec)))
	return rec, nil
}

func (d *reportDocument) findBold(text string) *html.Node {
	for _, n := range d.doc.Find("b").Nodes {
		if htmlutil.StrippedText(n) == text {
			return n
		}
	}
	return nil
}

func (d *reportDocument) findTextNode(text string) *html.Node {
	for _, n := range d.seq {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) == text {
			return n
		}
	}
	return nil
}

func (d *reportDocument) extractGeneralInfo(rec Record) {
	header := d.findBold("Datum des Berichts")
	if header == nil {
		return
	}
	table := htmlutil.Ancestor(header, "table")
	merge(rec, extractPairs(table, "Allgemein"))
}

func (d *reportDocument) extractGroups(rec Record) {
	for _, b := range d.doc.Find("b").Nodes {
		label := htmlutil.StrippedText(b)
		if !paGroupRe.MatchString(label) {
			continue
		}
		prefix := textutil.CleanKey(label)
		d.extractGroupConfiguration(rec, b, prefix)
		d.extractGroupCalculation(rec, b, prefix)
	}
}

func (d *reportDocument) extractGroupConfiguration(rec Record, header *html.Node, prefix string) {
	// the section title sits in the text right after the header's line
	// break; only "Konfiguration" sections carry the bordered layout
	// handled here
	br := htmlutil.NextAfter(d.seq, header, isTag("br"))
	if br == nil || br.NextSibling == nil || br.NextSibling.Type != html.TextNode {
		return
	}
	title := strings.TrimSpace(br.NextSibling.Data)
	if title == "" || !strings.Contains(title, "Konfiguration") {
		return
	}

	configTable := htmlutil.NextAfter(d.seq, header, func(n *html.Node) bool {
		return htmlutil.IsElement(n, "table") &&
			htmlutil.Attr(n, "width") == "797" &&
			htmlutil.Attr(n, "border") == "1"
	})
	if configTable == nil {
		return
	}

	// the actual data is in a nested table
	merge(rec, extractPairs(firstNestedTable(configTable), prefix+"_Konfiguration"))
	d.extractApertureGrid(rec, configTable, prefix)
}

// extractApertureGrid handles the "Blende" table, which is a grid rather
// than paired rows: the first row supplies column headers, each data
// row's first cell is a row-type label ("I", "A", "B", ...).
func (d *reportDocument) extractApertureGrid(rec Record, configTable *html.Node, prefix string) {
	blendeHeader := htmlutil.FindFirst(configTable, boldWithText("Blende"))
	if blendeHeader == nil {
		return
	}
	blendeTable := htmlutil.Ancestor(blendeHeader, "table")
	if blendeTable == nil {
		return
	}
	rows := htmlutil.FindAll(blendeTable, isTag("tr"))
	if len(rows) < 2 {
		return
	}

	headers := headerKeys(rows[0])
	for _, row := range rows[1:] {
		cells := htmlutil.FindAll(row, isTag("td"))
		if len(cells) == 0 {
			continue
		}
		rowLabel := htmlutil.StrippedText(cells[0])
		if rowLabel == "" {
			continue
		}
		// skip the first header, it labels the row-type column itself
		for k, header := range headers[1:] {
			if k+1 < len(cells) {
				key := fmt.Sprintf("%s_Blende_%s_%s", prefix, rowLabel, header)
				rec[key] = htmlutil.StrippedText(cells[k+1])
			}
		}
	}
}

func (d *reportDocument) extractGroupCalculation(rec Record, header *html.Node, prefix string) {
	// the "Berechnung" heading text repeats across groups; a heading
	// belongs to the group whose anchor is the nearest one preceding it.
	// this heuristic could misattribute data if group anchors are
	// malformed, but it matches the layout guarantees the reports
	// actually give.
	calcTitle := d.findBold("Berechnung")
	if calcTitle == nil {
		return
	}
	owner := htmlutil.PrevBefore(d.seq, calcTitle, func(n *html.Node) bool {
		return htmlutil.IsElement(n, "b") && paGroupRe.MatchString(htmlutil.StrippedText(n))
	})
	if owner != header {
		return
	}

	calcTable := htmlutil.NextAfter(d.seq, calcTitle, isTag("table"))
	if calcTable == nil {
		return
	}
	// it contains two sub-tables
	for _, sub := range htmlutil.FindAll(calcTable, isTag("table")) {
		merge(rec, extractPairs(sub, prefix+"_Berechnung"))
	}
}

func (d *reportDocument) extractPartSections(rec Record) {
	if part := d.findTextNode("Prüfteil"); part != nil {
		if table := htmlutil.NextAfter(d.seq, part, isTag("table")); table != nil {
			merge(rec, extractPairs(firstNestedTable(table), "Pruefteil"))
		}
	}

	area := d.findTextNode("Prüfbereich")
	if area == nil {
		return
	}
	container := htmlutil.NextAfter(d.seq, area, isTag("table"))
	if container == nil {
		return
	}
	// two tables inside: the area itself and the encoders
	areaTables := htmlutil.FindAll(container, isTag("table"))
	if len(areaTables) > 0 {
		merge(rec, extractPairs(areaTables[0], "Pruefbereich"))
	}
	if len(areaTables) > 1 {
		d.extractEncoderGrid(rec, areaTables[1])
	}
}

// extractEncoderGrid handles the "Weggeber" table: one header row, then
// one row per axis keyed by its first cell.
func (d *reportDocument) extractEncoderGrid(rec Record, table *html.Node) {
	rows := htmlutil.FindAll(table, isTag("tr"))
	if len(rows) < 2 {
		return
	}
	headers := headerKeys(rows[0])
	for _, row := range rows[1:] {
		cells := htmlutil.FindAll(row, isTag("td"))
		if len(cells) == 0 {
			continue
		}
		axis := htmlutil.StrippedText(cells[0])
		if axis == "" {
			continue
		}
		for k, header := range headers {
			if k < len(cells) {
				value := htmlutil.StrippedText(cells[k])
				value = strings.TrimSpace(strings.ReplaceAll(value, "\n", " "))
				rec[fmt.Sprintf("Pruefbereich_Weggeber_%s_%s", axis, header)] = value
			}
		}
	}
}

func (d *reportDocument) extractSummaryTable(rec Record) {
	header := d.findBold("Tabelle")
	if header == nil {
		return
	}
	sibling := htmlutil.NextSiblingElement(header, "table")
	if sibling == nil {
		return
	}
	mainTable := firstNestedTable(sibling)
	if mainTable == nil {
		return
	}
	rows := htmlutil.FindAll(mainTable, isTag("tr"))
	if len(rows) < 2 {
		return
	}

	headers := headerKeys(rows[0])
	for _, row := range rows[1:] {
		cellNodes := htmlutil.FindAll(row, isTag("td"))
		cells := make([]string, len(cellNodes))
		for i, c := range cellNodes {
			cells[i] = htmlutil.StrippedText(c)
		}
		if len(cells) < len(headers) || len(cells) < 2 {
			continue
		}

		// the second cell holds the indication number, sometimes with a
		// trailing marker asterisk
		indNum := strings.TrimSpace(strings.ReplaceAll(cells[1], "*", ""))
		if indNum == "" {
			continue
		}

		prefix := fmt.Sprintf("Ind_%s_Uebersicht", indNum)
		for i, h := range headers {
			rec[prefix+"_"+h] = cells[i]
		}
	}
}

func (d *reportDocument) extractDetailBlocks(rec Record) {
	for _, heading := range d.doc.Find("h3").Nodes {
		stop := htmlutil.NextAfter(d.seq, heading, isTag("h3"))
		for _, node := range htmlutil.Between(d.seq, heading, stop) {
			if !htmlutil.IsElement(node, "table") || htmlutil.Attr(node, "border") != "1" {
				continue
			}
			if htmlutil.FindFirst(node, boldWithText("Indikation Nr.")) == nil {
				continue
			}

			detail := extractPairs(firstNestedTable(node), "Detail")
			indNum := detail["Detail_Indikation_Nr"]
			if indNum == "" {
				continue
			}

			for key, value := range detail {
				rec[fmt.Sprintf("Ind_%s_%s", indNum, key)] = value
			}
			if note, ok := detailNote(node); ok {
				rec[fmt.Sprintf("Ind_%s_Notizen", indNum)] = note
			}

			// one detail table per heading section
			break
		}
	}
}

func detailNote(table *html.Node) (string, bool) {
	label := htmlutil.FindFirst(table, boldWithText("Notizen"))
	if label == nil {
		return "", false
	}
	row := htmlutil.Ancestor(label, "tr")
	next := htmlutil.NextSiblingElement(row, "tr")
	if next == nil {
		return "", false
	}
	cell := htmlutil.FindFirst(next, isTag("td"))
	if cell == nil {
		return "", false
	}
	return htmlutil.StrippedText(cell), true
}
