package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var winnerCmd = &cobra.Command{
	Use:   "winner <experiment-id>",
	Short: "Show the variation with the highest average primary metric",
	Args:  cobra.ExactArgs(1),
	RunE:  runWinner,
}

var (
	sigControl   string
	sigTreatment string
)

var significanceCmd = &cobra.Command{
	Use:   "significance",
	Short: "Estimate whether two samples differ significantly",
	RunE:  runSignificance,
}

func init() {
	significanceCmd.Flags().StringVar(&sigControl, "control", "", "Comma-separated control sample values")
	significanceCmd.Flags().StringVar(&sigTreatment, "treatment", "", "Comma-separated treatment sample values")
	_ = significanceCmd.MarkFlagRequired("control")
	_ = significanceCmd.MarkFlagRequired("treatment")
}

func runWinner(cmd *cobra.Command, args []string) error {
	winner, err := app.Service.GetWinner(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if winner == nil {
		fmt.Println("No primary-metric results recorded yet.")
		return nil
	}

	fmt.Printf("Winner: %s (mean %.4f over %d samples)\n", winner.VariationID, winner.Mean, winner.SampleSize)
	return nil
}

func runSignificance(cmd *cobra.Command, args []string) error {
	control, err := parseFloats(sigControl)
	if err != nil {
		return err
	}
	treatment, err := parseFloats(sigTreatment)
	if err != nil {
		return err
	}

	sig := app.Service.CalculateSignificance(control, treatment)
	fmt.Printf("p-value:     %.3f\n", sig.PValue)
	fmt.Printf("significant: %t\n", sig.IsSignificant)
	fmt.Printf("confidence:  %.1f%%\n", sig.Confidence)
	return nil
}
