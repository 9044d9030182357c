package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"depthsim/internal/factory"

	"github.com/spf13/cobra"
)

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "List supported venues",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VENUE\tENDPOINT\tTHROTTLE\tKEEPALIVE")
		for _, venue := range factory.SupportedVenues() {
			adapter, err := factory.NewAdapter(venue)
			if err != nil {
				return err
			}
			vc := cfg.Venue(venue)
			endpoint := vc.Endpoint
			if endpoint == "" {
				endpoint = adapter.Endpoint()
			}
			keepalive := "-"
			if _, interval, ok := adapter.Keepalive(); ok {
				keepalive = interval.String()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", venue, endpoint, vc.ThrottleInterval, keepalive)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(venuesCmd)
}
