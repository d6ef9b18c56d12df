package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"enigma/internal/catalog"
)

func newRotorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rotors <machine>",
		Short: "List the rotors a machine description offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := catalog.Load(args[0])
			if err != nil {
				return err
			}
			// building catches wiring errors the listing would hide
			if _, err := desc.Build(); err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "alphabet %s, %d slots, %d pawls, fingerprint %s\n\n",
				desc.Alphabet, desc.Slots, desc.Pawls, desc.Fingerprint())

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTYPE\tNOTCHES\tCYCLES")
			for _, r := range desc.Rotors {
				notches := r.Notches
				if notches == "" {
					notches = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Type, notches, r.Cycles)
			}
			return tw.Flush()
		},
	}
}
