package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var assignLookupOnly bool

var assignCmd = &cobra.Command{
	Use:   "assign <user-id> <experiment-id>",
	Short: "Assign a user to an experiment variation",
	Long: `Assign deterministically buckets the user into one of the
experiment's variations and persists the assignment. A user already
assigned keeps their variation even if weights changed since. With
--lookup the command only reads an existing assignment and never
creates one.`,
	Args: cobra.ExactArgs(2),
	RunE: runAssign,
}

func init() {
	assignCmd.Flags().BoolVar(&assignLookupOnly, "lookup", false, "Only look up an existing assignment")
}

func runAssign(cmd *cobra.Command, args []string) error {
	userID, experimentID := args[0], args[1]

	assignFn := app.Service.Assign
	if assignLookupOnly {
		assignFn = app.Service.GetUserVariation
	}
	pick, err := assignFn(cmd.Context(), userID, experimentID)
	if err != nil {
		return err
	}
	if pick == nil {
		fmt.Printf("User %s is not in experiment %s\n", userID, experimentID)
		return nil
	}

	fmt.Printf("User %s -> variation %s\n", userID, pick.VariationID)
	if len(pick.Config) > 0 {
		raw, err := json.MarshalIndent(pick.Config, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
	}
	return nil
}
