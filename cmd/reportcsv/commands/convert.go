package commands

import (
	"log/slog"
	"time"

	"pdm-backend/lib/serviceutil"
	"pdm-backend/services/reports/parser"

	"github.com/spf13/cobra"
)

var convertOut *string

func init() {
	convertOut = convertCmd.Flags().String("out", "reports.csv", "The CSV file to write the dataset to.")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <directory> [--out <path/to/output.csv>]",
	Short: "Parses every report export in a directory and writes one combined CSV.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t1 := time.Now()
		err := parser.ConvertDirectory(cmd.Context(), args[0], *convertOut)
		if err != nil {
			serviceutil.Fatal("failed to convert reports", err)
		}
		slog.Info("conversion time", "seconds", time.Since(t1).Seconds())
	},
}
