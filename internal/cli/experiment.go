package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Manage experiments",
}

var (
	createID         string
	createName       string
	createStatus     string
	createHypothesis string
	createVariations string
	createMetric     string
	createSecondary  string
	createAudience   string
)

var experimentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an experiment",
	RunE:  runExperimentCreate,
}

var listStatus string

var experimentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List experiments",
	RunE:  runExperimentList,
}

var experimentStatusCmd = &cobra.Command{
	Use:   "status <experiment-id> <status>",
	Short: "Update an experiment's lifecycle status",
	Args:  cobra.ExactArgs(2),
	RunE:  runExperimentStatus,
}

func init() {
	experimentCreateCmd.Flags().StringVar(&createID, "id", "", "Experiment id (generated when empty)")
	experimentCreateCmd.Flags().StringVar(&createName, "name", "", "Experiment name")
	experimentCreateCmd.Flags().StringVar(&createStatus, "status", "", "Initial status (defaults to draft)")
	experimentCreateCmd.Flags().StringVar(&createHypothesis, "hypothesis", "", "Hypothesis under test")
	experimentCreateCmd.Flags().StringVar(&createVariations, "variations", "", "Comma-separated id:weight pairs, e.g. control:50,treatment:50")
	experimentCreateCmd.Flags().StringVar(&createMetric, "metric", "", "Primary metric name")
	experimentCreateCmd.Flags().StringVar(&createSecondary, "secondary-metrics", "", "Comma-separated secondary metric names")
	experimentCreateCmd.Flags().StringVar(&createAudience, "audience", "", "Comma-separated user ids; empty means everyone")
	_ = experimentCreateCmd.MarkFlagRequired("name")
	_ = experimentCreateCmd.MarkFlagRequired("variations")
	_ = experimentCreateCmd.MarkFlagRequired("metric")

	experimentListCmd.Flags().StringVar(&listStatus, "status", "", "Only show experiments with this status")

	experimentCmd.AddCommand(experimentCreateCmd)
	experimentCmd.AddCommand(experimentListCmd)
	experimentCmd.AddCommand(experimentStatusCmd)
}

func runExperimentCreate(cmd *cobra.Command, args []string) error {
	variations, err := parseVariations(createVariations)
	if err != nil {
		return err
	}

	exp := &domain.Experiment{
		ID:               createID,
		Name:             createName,
		Status:           domain.ExperimentStatus(createStatus),
		Variations:       variations,
		PrimaryMetric:    createMetric,
		SecondaryMetrics: splitList(createSecondary),
	}
	if createHypothesis != "" {
		exp.Hypothesis = &createHypothesis
	}
	if audience := splitList(createAudience); audience != nil {
		exp.Audience = &domain.Audience{UserIDs: audience}
	}

	created, err := app.Service.CreateExperiment(cmd.Context(), exp)
	if err != nil {
		return err
	}

	fmt.Printf("Created experiment %s (%s)\n", created.ID, created.Status)
	return nil
}

func runExperimentList(cmd *cobra.Command, args []string) error {
	experiments, err := app.Service.ListExperiments(cmd.Context(), domain.ExperimentStatus(listStatus))
	if err != nil {
		return err
	}
	if len(experiments) == 0 {
		fmt.Println("No experiments found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tVARIATIONS\tPRIMARY METRIC")
	for _, exp := range experiments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			exp.ID, exp.Name, exp.Status, len(exp.Variations), exp.PrimaryMetric)
	}
	return w.Flush()
}

func runExperimentStatus(cmd *cobra.Command, args []string) error {
	id, status := args[0], args[1]
	if err := app.Service.UpdateExperimentStatus(cmd.Context(), id, domain.ExperimentStatus(status)); err != nil {
		return err
	}
	fmt.Printf("Experiment %s is now %s\n", id, status)
	return nil
}
