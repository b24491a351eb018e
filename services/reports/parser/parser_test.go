package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// a synthetic report exercising every section layout the extractor
// knows about
const fixtureReport = `<html><body>

<table>
	<tr><td><b>Datum des Berichts</b></td><td><b>Prüfer</b></td></tr>
	<tr><td>2024-03-14</td><td>T. Müller</td></tr>
</table>

<b>PA 1</b><br>
Konfiguration
<table width="797" border="1">
	<tr><td>
		<table>
			<tr><td><b>Verstärkung</b></td><td><b>Prüfwinkel</b></td></tr>
			<tr><td>24.5 dB</td><td>45°</td></tr>
		</table>
	</td></tr>
	<tr><td>
		<table>
			<tr><td><b>Blende</b></td><td><b>Höhe</b></td><td><b>Breite</b></td></tr>
			<tr><td>I</td><td>56.00 mm</td><td>40.00 mm</td></tr>
			<tr><td></td><td>1.00 mm</td><td>2.00 mm</td></tr>
		</table>
	</td></tr>
</table>

<b>Berechnung</b>
<table>
	<tr><td>
		<table>
			<tr><td><b>Fokus</b></td></tr>
			<tr><td>12.3 mm</td></tr>
		</table>
	</td><td>
		<table>
			<tr><td><b>Tiefe</b></td></tr>
			<tr><td>8.1 mm</td></tr>
		</table>
	</td></tr>
</table>

Prüfteil
<table><tr><td>
	<table>
		<tr><td><b>Material</b></td></tr>
		<tr><td>Stahl</td></tr>
	</table>
</td></tr></table>

Prüfbereich
<table><tr><td>
	<table>
		<tr><td><b>Länge</b></td></tr>
		<tr><td>500 mm</td></tr>
	</table>
</td><td>
	<table>
		<tr><td><b>Achse</b></td><td><b>Offset</b></td></tr>
		<tr><td>X</td><td>0.00
mm</td></tr>
	</table>
</td></tr></table>

<b>Tabelle</b>
<table><tr><td>
	<table>
		<tr><td><b>Lfd.</b></td><td><b>Nr.</b></td><td><b>Amplitude</b></td></tr>
		<tr><td>1</td><td>3 *</td><td>81 %</td></tr>
		<tr><td>2</td><td></td><td>12 %</td></tr>
	</table>
</td></tr></table>

<h3>Indikation 3</h3>
<table border="1">
	<tr><td>
		<table>
			<tr><td><b>Indikation Nr.</b></td><td><b>A</b></td></tr>
			<tr><td>3</td><td>81.2</td></tr>
		</table>
	</td></tr>
	<tr><td><b>Notizen</b></td></tr>
	<tr><td>Querriss am Steg</td></tr>
</table>

<h3>Anhang</h3>
<table border="1"><tr><td>
	<table>
		<tr><td><b>Irgendwas</b></td></tr>
		<tr><td>x</td></tr>
	</table>
</td></tr></table>

</body></html>`

func TestParseReport(t *testing.T) {
	rec, err := ParseReport(context.Background(), []byte(fixtureReport), "bericht_001.htm")
	require.NoError(t, err)

	require.Equal(t, "bericht_001.htm", rec[SourceField])

	// general info
	require.Equal(t, "2024-03-14", rec["Allgemein_Datum_des_Berichts"])
	require.Equal(t, "T. Müller", rec["Allgemein_Pruefer"])

	// group configuration
	require.Equal(t, "24.5 dB", rec["PA_1_Konfiguration_Verstaerkung"])
	require.Equal(t, "45°", rec["PA_1_Konfiguration_Pruefwinkel"])

	// aperture grid; the row without a row-type label contributes nothing
	require.Equal(t, "56.00 mm", rec["PA_1_Blende_I_Hoehe"])
	require.Equal(t, "40.00 mm", rec["PA_1_Blende_I_Breite"])
	for key := range rec {
		require.NotContains(t, key, "Blende__")
	}

	// calculation sub-tables
	require.Equal(t, "12.3 mm", rec["PA_1_Berechnung_Fokus"])
	require.Equal(t, "8.1 mm", rec["PA_1_Berechnung_Tiefe"])

	// part and area sections
	require.Equal(t, "Stahl", rec["Pruefteil_Material"])
	require.Equal(t, "500 mm", rec["Pruefbereich_Laenge"])
	require.Equal(t, "X", rec["Pruefbereich_Weggeber_X_Achse"])
	require.Equal(t, "0.00 mm", rec["Pruefbereich_Weggeber_X_Offset"])

	// summary table: marker asterisk stripped from the indication
	// number, the row with an empty number skipped
	require.Equal(t, "1", rec["Ind_3_Uebersicht_Lfd"])
	require.Equal(t, "3 *", rec["Ind_3_Uebersicht_Nr"])
	require.Equal(t, "81 %", rec["Ind_3_Uebersicht_Amplitude"])
	for key := range rec {
		require.NotContains(t, key, "Ind__")
	}

	// detail block + note; the block under "Anhang" has no
	// "Indikation Nr." label and contributes nothing
	require.Equal(t, "3", rec["Ind_3_Detail_Indikation_Nr"])
	require.Equal(t, "81.2", rec["Ind_3_Detail_A"])
	require.Equal(t, "Querriss am Steg", rec["Ind_3_Notizen"])
	for key := range rec {
		require.NotContains(t, key, "Irgendwas")
	}
}

func TestParseReportEmptyDocument(t *testing.T) {
	rec, err := ParseReport(context.Background(), []byte("<html><body></body></html>"), "leer.htm")
	require.NoError(t, err)
	require.Equal(t, Record{SourceField: "leer.htm"}, rec)
}

// two groups, one shared "Berechnung" heading text: only the group whose
// anchor directly precedes the heading may claim it
const fixtureTwoGroups = `<html><body>
<b>PA 1 rückwärts</b><br>
Konfiguration
<table width="797" border="1">
	<tr><td><table>
		<tr><td><b>Verstärkung</b></td></tr>
		<tr><td>20.0 dB</td></tr>
	</table></td></tr>
</table>
<b>Berechnung</b>
<table><tr><td>
	<table>
		<tr><td><b>Fokus</b></td></tr>
		<tr><td>1.0 mm</td></tr>
	</table>
</td></tr></table>

<b>PA 2 vorwärts</b><br>
Konfiguration
<table width="797" border="1">
	<tr><td><table>
		<tr><td><b>Verstärkung</b></td></tr>
		<tr><td>22.0 dB</td></tr>
	</table></td></tr>
</table>
<b>Berechnung</b>
<table><tr><td>
	<table>
		<tr><td><b>Fokus</b></td></tr>
		<tr><td>2.0 mm</td></tr>
	</table>
</td></tr></table>
</body></html>`

func TestParseReportGroupDisambiguation(t *testing.T) {
	rec, err := ParseReport(context.Background(), []byte(fixtureTwoGroups), "zwei_gruppen.htm")
	require.NoError(t, err)

	require.Equal(t, "20.0 dB", rec["PA_1_rueckwaerts_Konfiguration_Verstaerkung"])
	require.Equal(t, "22.0 dB", rec["PA_2_vorwaerts_Konfiguration_Verstaerkung"])

	// the calculation locator always resolves the document's first
	// "Berechnung" heading, so only the first group may own it; the
	// second group must not pick up the first group's values
	require.Equal(t, "1.0 mm", rec["PA_1_rueckwaerts_Berechnung_Fokus"])
	_, crossBleed := rec["PA_2_vorwaerts_Berechnung_Fokus"]
	require.False(t, crossBleed)
}
