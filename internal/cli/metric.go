package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var metricCmd = &cobra.Command{
	Use:   "metric",
	Short: "Record and inspect metric observations",
}

var metricLogCmd = &cobra.Command{
	Use:   "log <experiment-id> <variation-id> <metric-name> <value>",
	Short: "Record one metric observation",
	Args:  cobra.ExactArgs(4),
	RunE:  runMetricLog,
}

var metricResultsCmd = &cobra.Command{
	Use:   "results <experiment-id>",
	Short: "Show grouped metric observations for an experiment",
	Args:  cobra.ExactArgs(1),
	RunE:  runMetricResults,
}

func init() {
	metricCmd.AddCommand(metricLogCmd)
	metricCmd.AddCommand(metricResultsCmd)
}

func runMetricLog(cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[3], err)
	}

	if err := app.Service.LogMetric(cmd.Context(), args[0], args[1], args[2], value); err != nil {
		return err
	}
	fmt.Printf("Recorded %s=%s for %s/%s\n", args[2], args[3], args[0], args[1])
	return nil
}

func runMetricResults(cmd *cobra.Command, args []string) error {
	groups := app.Service.GetResults(cmd.Context(), args[0])
	if len(groups) == 0 {
		fmt.Println("No results recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VARIATION\tMETRIC\tSAMPLES\tMEAN")
	for _, g := range groups {
		sum := 0.0
		for _, v := range g.Values {
			sum += v
		}
		mean := 0.0
		if len(g.Values) > 0 {
			mean = sum / float64(len(g.Values))
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4f\n", g.VariationID, g.MetricName, len(g.Values), mean)
	}
	return w.Flush()
}
