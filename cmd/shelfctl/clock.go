package main

import (
	"fmt"
	"time"

	"moneyshelf/internal/investclock"

	"github.com/spf13/cobra"
)

var (
	clockBirthdate string
	clockParams    = investclock.DefaultParams()
)

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Print the invest-clock projection",
	Example: `  shelfctl clock --birthdate 1990-05-01
  shelfctl clock --birthdate 1990-05-01 --rate 0.05 --target 90`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var birth *time.Time
		if clockBirthdate != "" {
			t, err := time.Parse("2006-01-02", clockBirthdate)
			if err != nil {
				return err
			}
			birth = &t
		}
		res, err := investclock.Calculate(birth, time.Now(), clockParams)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "age: %d\nfuture value per hour: %.2f\n", res.Age, res.FutureValue)
		return nil
	},
}

func init() {
	clockCmd.Flags().StringVar(&clockBirthdate, "birthdate", "", "Birth date as YYYY-MM-DD")
	clockCmd.Flags().IntVar(&clockParams.TargetAge, "target", clockParams.TargetAge, "Age to project to")
	clockCmd.Flags().Float64Var(&clockParams.AnnualRate, "rate", clockParams.AnnualRate, "Annual return")
	clockCmd.Flags().Float64Var(&clockParams.BaseHourlyValue, "base", clockParams.BaseHourlyValue, "Value of one hour today")
}
