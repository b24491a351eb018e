package parser

import (
	"fmt"
	"os"
	"sort"
)

// Dataset accumulates records in input-discovery order and tracks the
// union of every field name seen. Serialization aligns all records to
// the sorted union, rendering missing fields as empty cells.
type Dataset struct {
	records []Record
	fields  map[string]struct{}
}

func NewDataset() *Dataset {
	return &Dataset{fields: map[string]struct{}{}}
}

func (d *Dataset) Add(rec Record) {
	d.records = append(d.records, rec)
	for key := range rec {
		d.fields[key] = struct{}{}
	}
}

func (d *Dataset) Len() int {
	return len(d.records)
}

func (d *Dataset) Records() []Record {
	return d.records
}

// Fields returns the union of all field names, lexicographically sorted.
func (d *Dataset) Fields() []string {
	out := make([]string, 0, len(d.fields))
	for key := range d.fields {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// WriteCSVFile serializes the dataset to path. Nothing is written when
// the file cannot be created.
func (d *Dataset) WriteCSVFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer file.Close()

	fields := d.Fields()
	rows := make([]map[string]string, len(d.records))
	for i, rec := range d.records {
		rows[i] = rec
	}
	return WriteTable(file, fields, rows)
}
