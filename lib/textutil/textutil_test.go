package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Prüfteil Größe", "Pruefteil_Groesse"},
		{"Datum des Berichts", "Datum_des_Berichts"},
		{"PA 1 rückwärts", "PA_1_rueckwaerts"},
		{"Weiße   Fläche", "Weisse_Flaeche"},
		{"Indikation Nr.", "Indikation_Nr"},
		{"  führende Leerzeichen  ", "fuehrende_Leerzeichen"},
		{"a__b___c", "a_b_c"},
		{"(%)", ""},
		{"", ""},
		{"...", ""},
		{"Winkel [°]", "Winkel"},
		{"A-Bild / S-Bild", "ABild_SBild"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, CleanKey(test.input), "input: %q", test.input)
	}
}

func TestCleanKeyIdempotent(t *testing.T) {
	inputs := []string{
		"Prüfteil Größe",
		"PA 2 vorwärts_Konfiguration",
		"  spaces  and  (punctuation)!  ",
		"",
		"ä ö ü ß",
		"\t\nmixed whitespace",
	}
	for _, in := range inputs {
		once := CleanKey(in)
		require.Equal(t, once, CleanKey(once), "input: %q", in)
	}
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("  Prüf Bereich ", []string{"prüfbereich"}))
	require.False(t, MatchName("Berechnung", []string{"konfiguration"}))
}
