// Package reshape turns the wide per-report dataset into the long
// per-indication layout the downstream models consume: one output row
// per (report, indication) pair, with the fixed unit formatting those
// models were trained on.
package reshape

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var detailColumnRe = regexp.MustCompile(`^Ind_(\d+)(?:\s\*)?_Detail_`)

// the per-indication detail attributes carried into the long layout, in
// output order
var indicationColumns = []string{
	"A", "DA", "Gruppe", "IUmr", "Imr", "Kanal", "SA", "Scan", "vPa_A",
}

// millimeter-unit columns share one formatting rule
var mmColumns = map[string]bool{
	"DA": true, "IUmr": true, "Imr": true, "SA": true, "Scan": true, "vPa_A": true,
}

// configuration columns copied through unchanged from the wide layout
var carryColumns = []string{
	"PA_1_rueckwaerts_Konfiguration_Verstaerkung",
	"PA_2_vorwaerts_Konfiguration_Verstaerkung",
}

// the aperture height is the one carried column with a unit suffix
const apertureHeightColumn = "PA_2_vorwaerts_Blende_I_Hoehe"

// Columns returns the column order of the long layout.
func Columns() []string {
	out := []string{"Index", "Indikation"}
	out = append(out, indicationColumns...)
	out = append(out, carryColumns...)
	out = append(out, apertureHeightColumn)
	return out
}

// indicationNumbers collects every indication number that has detail
// columns, sorted numerically.
func indicationNumbers(columns []string) []int {
	seen := map[int]bool{}
	for _, col := range columns {
		match := detailColumnRe.FindStringSubmatch(col)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		seen[n] = true
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// detailColumn resolves the wide column holding attribute `attr` of
// indication n, tolerating the optional " *" marker some reports leave
// in the indication label.
func detailColumn(columns []string, n int, attr string) string {
	re := regexp.MustCompile(fmt.Sprintf(`^Ind_%d(?:\s\*)?_Detail_%s$`, n, regexp.QuoteMeta(attr)))
	for _, col := range columns {
		if re.MatchString(col) {
			return col
		}
	}
	return ""
}

func formatValue(attr, value string) string {
	switch {
	case attr == "A":
		return value + " %"
	case mmColumns[attr]:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return "--- mm"
		}
		return fmt.Sprintf("%.2f mm", f)
	case attr == "Gruppe":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return value
		}
		return fmt.Sprintf("%.1f", f)
	default:
		return value
	}
}

func missingValue(attr string) string {
	switch {
	case attr == "A":
		return "--- %"
	case mmColumns[attr]:
		return "--- mm"
	default:
		return "---"
	}
}

// WideToLong emits one row per (report row, indication) pair. An
// indication is present in a report when its detail "A" attribute is
// non-empty; absent attributes are filled with unit-matched
// placeholders. Rows are grouped by indication number, stable within,
// and Index numbers the rows of the final order.
func WideToLong(columns []string, rows []map[string]string) ([]string, []map[string]string) {
	numbers := indicationNumbers(columns)

	var out []map[string]string
	for _, row := range rows {
		for _, n := range numbers {
			amplitudeCol := detailColumn(columns, n, "A")
			if amplitudeCol == "" || row[amplitudeCol] == "" {
				continue
			}

			long := map[string]string{
				"Indikation": strconv.Itoa(n),
			}
			for _, attr := range indicationColumns {
				col := detailColumn(columns, n, attr)
				if col == "" || row[col] == "" {
					long[attr] = missingValue(attr)
					continue
				}
				long[attr] = formatValue(attr, row[col])
			}
			for _, carry := range carryColumns {
				value := row[carry]
				if value == "" {
					value = "---"
				}
				long[carry] = value
			}
			if value := row[apertureHeightColumn]; value != "" {
				long[apertureHeightColumn] = value + " mm"
			} else {
				long[apertureHeightColumn] = "--- mm"
			}
			out = append(out, long)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i]["Indikation"])
		b, _ := strconv.Atoi(out[j]["Indikation"])
		return a < b
	})
	for i, row := range out {
		row["Index"] = strconv.Itoa(i)
	}
	return Columns(), out
}
