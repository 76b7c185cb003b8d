package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitalsync/backend/internal/domain"
	"github.com/vitalsync/backend/internal/reference"
	"github.com/vitalsync/backend/internal/usecase"
)

var (
	reportEntries  string
	reportRDA      string
	reportProfile  string
	reportMode     string
	reportCategory string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute a percent-of-RDA report from a food log file",
	Long: `Aggregates the most recent day of a JSON food log, reconciles it against the RDA table
and prints every nutrient ranked from the largest deficiency up.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportEntries, "entries", "", "JSON file holding an array of food entries")
	reportCmd.Flags().StringVar(&reportRDA, "rda", "", "RDA table file (YAML or JSON, default is the built-in table)")
	reportCmd.Flags().StringVar(&reportProfile, "profile", "", "JSON file holding the user profile")
	reportCmd.Flags().StringVar(&reportMode, "mode", usecase.DisplayAll, "display mode: all, deficient or optimal")
	reportCmd.Flags().StringVar(&reportCategory, "category", domain.CategoryAll, "category: all, vitamins or minerals")
	reportCmd.MarkFlagRequired("entries")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	var entries []domain.FoodEntry
	if err := readJSONFile(reportEntries, &entries); err != nil {
		return err
	}
	usecase.SortNewestFirst(entries)

	var profile domain.UserProfile
	if reportProfile != "" {
		if err := readJSONFile(reportProfile, &profile); err != nil {
			return err
		}
	}

	rda, err := reference.Load(reportRDA)
	if err != nil {
		return err
	}

	service := usecase.NewNutritionService(nil, nil, nil, rda, nil, usecase.NutritionServiceConfig{})
	report := service.Analyze(entries, usecase.ReportRequest{
		Profile:  profile,
		Mode:     reportMode,
		Category: reportCategory,
	})

	out := cmd.OutOrStdout()
	if outputJSON {
		return writeJSON(out, report)
	}

	fmt.Fprintf(out, "\nNutrition report for %s\n", report.Date)
	fmt.Fprintf(out, "Protein %.1f g  Carbs %.1f g  Fat %.1f g  Calories %.0f\n",
		report.Macros.Protein, report.Macros.Carbs, report.Macros.Fat, report.Macros.Calories)
	fmt.Fprintln(out, "------------------------------------------------------------")
	fmt.Fprintf(out, "%-14s  %10s  %10s  %8s  %s\n", "Nutrient", "Intake", "RDA", "%RDA", "Status")
	fmt.Fprintln(out, "------------------------------------------------------------")
	for _, n := range report.Nutrients {
		rda := fmt.Sprintf("%.1f%s", n.RDA, n.RDAUnit)
		if n.IsAdjustedRDA {
			rda += "*"
		}
		fmt.Fprintf(out, "%-14s  %10s  %10s  %7.1f%%  %s\n",
			n.Name, fmt.Sprintf("%.2f%s", n.RawValue, n.Unit), rda, n.PercentOfRDA, n.Status)
	}
	fmt.Fprintln(out, "------------------------------------------------------------")
	fmt.Fprintf(out, "%d nutrients, %d deficient, %d optimal\n",
		report.Summary.Total, report.Summary.Deficient, report.Summary.Optimal)

	for _, d := range report.Diagnostics {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning [%s] %s\n", d.Kind, d.Message)
	}
	return nil
}
