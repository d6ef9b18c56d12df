package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"enigma/internal/journal"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	var sessionID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show sessions recorded in the journal",
		Long: `List recorded sessions, newest first, or with --session print every line
of one session with its output and the rotor positions after it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Journal.Path
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no journal at %s", path)
			}
			j, err := journal.Open(path)
			if err != nil {
				return err
			}
			defer j.Close()

			if sessionID != "" {
				id, err := uuid.Parse(sessionID)
				if err != nil {
					return fmt.Errorf("bad session id %q: %w", sessionID, err)
				}
				return a.printEntries(cmd, j, id)
			}
			return a.printSessions(cmd, j, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of sessions to list, 0 for all")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "show the lines of this session")
	return cmd
}

func (a *app) printSessions(cmd *cobra.Command, j *journal.Journal, limit int) error {
	sessions, err := j.Sessions(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(a.stdout, "No sessions recorded")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTARTED\tLINES\tFINGERPRINT\tMACHINE")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.StartedAt.Format(time.RFC3339), s.Entries, s.Fingerprint, s.MachinePath)
	}
	return tw.Flush()
}

func (a *app) printEntries(cmd *cobra.Command, j *journal.Journal, id uuid.UUID) error {
	entries, err := j.Entries(cmd.Context(), id)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tKIND\tPOSITIONS\tINPUT\tOUTPUT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Line, e.Kind, e.Positions, e.Input, e.Output)
	}
	return tw.Flush()
}
