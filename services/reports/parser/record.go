package parser

// SourceField is the reserved record field carrying the source filename.
const SourceField = "Dateiname_Quelle"

// Record maps normalized, prefixed field names to extracted values. Each
// section extractor writes into its own prefix namespace, so merging
// partial records never overwrites fields from another section.
type Record map[string]string

func merge(dst, src Record) {
	for key, value := range src {
		dst[key] = value
	}
}
