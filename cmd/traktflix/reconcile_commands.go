package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"traktflix/internal/app"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <id> <trakt-url>",
		Short: "Correct an activity's match with a Trakt URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				if _, err := a.OpenCorrection(cmd.Context(), args[0]); err != nil {
					return err
				}
				view, err := a.Submit(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Matched %s to %s (%s)\n", view.LocalID, view.Match.DisplayTitle(), view.Match.URL)
				return nil
			})
		},
	}
}

func newSuggestionsCommand(ctx *commandContext) *cobra.Command {
	var refresh bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "suggestions <id>",
		Short: "List crowd-sourced suggestions for an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				out := cmd.OutOrStdout()
				if refresh {
					n, err := a.RefreshSuggestions(cmd.Context())
					if err != nil {
						return err
					}
					if !jsonOut {
						fmt.Fprintf(out, "Refreshed suggestions for %d activities\n", n)
					}
				}
				view, err := a.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				list := a.Reconciler.ListSuggestions(view.Activity)
				if jsonOut {
					return writeJSON(cmd, list)
				}
				if len(list) == 0 {
					fmt.Fprintln(out, "No suggestions")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for i, s := range list {
					rows = append(rows, []string{strconv.Itoa(i + 1), s.URL, strconv.Itoa(s.SupportCount)})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "URL", "Count"}, rows, []columnAlignment{alignRight, alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch suggestions from the crowd-sync service first")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newAcceptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "accept <id> <n>",
		Short: "Accept the n-th suggestion for an activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid suggestion number %q", args[1])
			}
			return ctx.withApp(func(a *app.App) error {
				s, err := a.SuggestionAt(cmd.Context(), args[0], n)
				if err != nil {
					return err
				}
				view, err := a.AcceptSuggestion(cmd.Context(), args[0], s.URL)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Matched %s to %s (%s)\n", view.LocalID, view.Match.DisplayTitle(), view.Match.URL)
				return nil
			})
		},
	}
}

func newToggleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id> <on|off>",
		Short: "Mark whether a matched activity should be synced",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := parseOnOff(args[1])
			if err != nil {
				return err
			}
			return ctx.withApp(func(a *app.App) error {
				view, err := a.Toggle(cmd.Context(), args[0], enabled)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sync for %s: %s\n", view.LocalID, yesNo(view.ToggledForSync))
				return nil
			})
		},
	}
}

func newSyncedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "synced <id>",
		Short: "Record that a matched activity was synced to Trakt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				view, err := a.MarkSynced(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as synced\n", view.LocalID)
				return nil
			})
		},
	}
}
