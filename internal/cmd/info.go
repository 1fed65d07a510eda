package cmd

import (
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about pattern tables and languages",
	Long:  `Display the pattern tables driving feature extraction and the languages known to the file detector.`,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.AddCommand(tablesCmd)
	infoCmd.AddCommand(tableCmd)
	infoCmd.AddCommand(languagesCmd)
}
