package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"traktflix/internal/activity"
	"traktflix/internal/app"
	"traktflix/internal/store"
)

func newActivitiesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "activities",
		Aliases: []string{"activity"},
		Short:   "Inspect and import viewing activities",
	}
	cmd.AddCommand(newActivitiesListCommand(ctx))
	cmd.AddCommand(newActivitiesShowCommand(ctx))
	cmd.AddCommand(newActivitiesAddCommand(ctx))
	return cmd
}

func newActivitiesListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var unmatched bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored activities, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				views, err := a.List(cmd.Context(), store.ListFilter{UnmatchedOnly: unmatched, Limit: limit})
				if err != nil {
					return err
				}
				if jsonOut {
					if views == nil {
						views = []app.ActivityView{}
					}
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(views) == 0 {
					fmt.Fprintln(out, "No activities")
					return nil
				}
				fmt.Fprintln(out, renderActivities(out, views))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&unmatched, "unmatched", false, "Only list activities without a match")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of activities (0 for all)")
	return cmd
}

func newActivitiesShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				view, err := a.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, view)
				}
				printActivity(cmd.OutOrStdout(), view)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func newActivitiesAddCommand(ctx *commandContext) *cobra.Command {
	var (
		kind         string
		episodeTitle string
		season       int
		episode      int
	)
	cmd := &cobra.Command{
		Use:   "add <id> <title>",
		Short: "Record an observed activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k := activity.Kind(strings.ToLower(strings.TrimSpace(kind)))
			if k != activity.KindMovie && k != activity.KindEpisode {
				return fmt.Errorf("unsupported kind %q (movie or episode)", kind)
			}
			act := activity.Activity{
				LocalID:      strings.TrimSpace(args[0]),
				Kind:         k,
				Title:        strings.TrimSpace(args[1]),
				EpisodeTitle: strings.TrimSpace(episodeTitle),
				Season:       season,
				Episode:      episode,
				ObservedAt:   time.Now().UTC(),
			}
			return ctx.withApp(func(a *app.App) error {
				stored, err := a.Import(cmd.Context(), act)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if stored.Match != nil {
					fmt.Fprintf(out, "Recorded %s (matched from cache: %s)\n", stored.LocalID, stored.Match.URL)
					return nil
				}
				fmt.Fprintf(out, "Recorded %s (unmatched)\n", stored.LocalID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(activity.KindMovie), "Activity kind: movie or episode")
	cmd.Flags().StringVar(&episodeTitle, "episode-title", "", "Episode title")
	cmd.Flags().IntVar(&season, "season", 0, "Season number")
	cmd.Flags().IntVar(&episode, "episode", 0, "Episode number")
	return cmd
}

func renderActivities(out io.Writer, views []app.ActivityView) string {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			v.LocalID,
			v.DisplayTitle(),
			matchLabel(out, v.Activity),
			stateLabel(out, v),
			yesNo(v.ToggledForSync),
			yesNo(v.AlreadySynced),
			strconv.Itoa(len(v.Suggestions)),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Match", "State", "Sync", "Synced", "Suggestions"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func printActivity(out io.Writer, v app.ActivityView) {
	fmt.Fprintf(out, "ID:          %s\n", v.LocalID)
	fmt.Fprintf(out, "Title:       %s\n", v.DisplayTitle())
	fmt.Fprintf(out, "Watch:       %s\n", v.WatchURL)
	fmt.Fprintf(out, "Match:       %s\n", matchLabel(out, v.Activity))
	if v.Match != nil {
		fmt.Fprintf(out, "Trakt:       %s\n", v.Match.URL)
	}
	fmt.Fprintf(out, "State:       %s\n", stateLabel(out, v))
	if v.Status.LastError != "" {
		fmt.Fprintf(out, "Last error:  %s\n", v.Status.LastError)
	}
	fmt.Fprintf(out, "Sync:        %s\n", yesNo(v.ToggledForSync))
	fmt.Fprintf(out, "Synced:      %s\n", yesNo(v.AlreadySynced))
	for i, s := range v.Suggestions {
		fmt.Fprintf(out, "Suggestion %d: %s (%d)\n", i+1, s.URL, s.SupportCount)
	}
}

func matchLabel(out io.Writer, a activity.Activity) string {
	if a.Match == nil {
		return colorize(out, "unmatched", text.Colors{text.FgYellow})
	}
	return a.Match.DisplayTitle()
}

func stateLabel(out io.Writer, v app.ActivityView) string {
	label := v.Status.State.String()
	if v.Status.State.HasError() {
		return colorize(out, label, text.Colors{text.FgRed})
	}
	return label
}
