package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitalsync/backend/internal/domain"
	"github.com/vitalsync/backend/internal/usecase"
)

var (
	weekDate  string
	monthYear int
	monthNum  int
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Print the Monday to Sunday week containing a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := usecase.WeekRange(weekDate)
		if err != nil {
			return err
		}
		return printRange(cmd, r)
	},
}

var monthCmd = &cobra.Command{
	Use:   "month",
	Short: "Print the first and last day of a month",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := usecase.MonthRange(monthYear, time.Month(monthNum))
		if err != nil {
			return err
		}
		r.Dates = nil
		return printRange(cmd, r)
	},
}

func init() {
	weekCmd.Flags().StringVar(&weekDate, "date", "", "date (YYYY-MM-DD)")
	weekCmd.MarkFlagRequired("date")
	monthCmd.Flags().IntVar(&monthYear, "year", 0, "year")
	monthCmd.Flags().IntVar(&monthNum, "month", 0, "month (1-12)")
	monthCmd.MarkFlagRequired("year")
	monthCmd.MarkFlagRequired("month")
	rootCmd.AddCommand(weekCmd, monthCmd)
}

func printRange(cmd *cobra.Command, r domain.DateRange) error {
	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), r)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s .. %s\n", r.Start, r.End)
	return nil
}
