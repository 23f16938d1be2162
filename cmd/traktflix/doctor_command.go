package main

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"traktflix/internal/app"
	"traktflix/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, the Trakt API and crowd-sync consent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				results := preflight.RunAll(cmd.Context(), a.Config, a.Gate)
				if jsonOut {
					if err := writeJSON(cmd, results); err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					rows := make([][]string, 0, len(results))
					for _, r := range results {
						status := colorize(out, "ok", text.Colors{text.FgGreen})
						if !r.Passed {
							status = colorize(out, "FAIL", text.Colors{text.FgRed})
						}
						rows = append(rows, []string{r.Name, status, r.Detail})
					}
					fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
				}
				if !preflight.AllPassed(results) {
					return errors.New("one or more checks failed")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
