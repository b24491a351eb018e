package commands

import (
	"os"

	"pdm-backend/lib/serviceutil"
	"pdm-backend/services/reports/parser"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <report.htm>",
	Short: "Parses a single report export and prints the extracted fields.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read report", err)
		}

		rec, err := parser.ParseReport(cmd.Context(), content, args[0])
		if err != nil {
			serviceutil.Fatal("failed to parse report", err)
		}

		dataset := parser.NewDataset()
		dataset.Add(rec)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Field", "Value"})
		for _, field := range dataset.Fields() {
			t.AppendRow(table.Row{field, rec[field]})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
