package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salahclock/internal/geo"
)

var flagLookup bool

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <postcode>",
		Short: "Check a UK postcode",
		Long: "Check that a UK postcode is well formed and print its normalised form.\n" +
			"With --lookup, also resolve it to coordinates through postcodes.io.",
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
	cmd.Flags().BoolVar(&flagLookup, "lookup", false, "Resolve the postcode to coordinates")
	return cmd
}

type validateJSON struct {
	Valid      bool             `json:"valid"`
	Normalized string           `json:"normalized,omitempty"`
	District   string           `json:"district,omitempty"`
	Region     string           `json:"region,omitempty"`
	Location   *geo.Coordinates `json:"location,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	pc, err := geo.NormalizePostcode(args[0])
	if err != nil {
		return err
	}

	out := validateJSON{Valid: true, Normalized: pc}
	if flagLookup {
		place, err := newPostcodeClient().Lookup(cmd.Context(), pc)
		if err != nil {
			return err
		}
		out.District, out.Region = place.District, place.Region
		out.Location = &place.Coordinates
	}

	w := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(w, out)
	}

	fmt.Fprintf(w, "%s is a valid UK postcode\n", pc)
	if out.Location != nil {
		fmt.Fprintf(w, "%s, %s (%s)\n", out.District, out.Region, out.Location)
	}
	return nil
}
