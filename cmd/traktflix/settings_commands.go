package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"traktflix/internal/app"
	"traktflix/internal/store"
)

func newOptionsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "View or change stored preferences",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show stored preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				ns, err := a.Store.Get(cmd.Context(), store.OptionsNamespace)
				if err != nil {
					return err
				}
				value := "unset"
				if ns.Options != nil {
					value = yesNo(ns.Options.SendReceiveSuggestions)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "send-receive-suggestions: %s\n", value)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> <on|off>",
		Short: "Change a preference (send-receive-suggestions)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(args[0]) != "send-receive-suggestions" {
				return fmt.Errorf("unknown option %q", args[0])
			}
			enabled, err := parseOnOff(args[1])
			if err != nil {
				return err
			}
			return ctx.withApp(func(a *app.App) error {
				if err := a.Store.SetOptions(cmd.Context(), store.Options{SendReceiveSuggestions: enabled}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "send-receive-suggestions: %s\n", yesNo(enabled))
				return nil
			})
		},
	})
	return cmd
}

func newPermissionsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "permissions",
		Aliases: []string{"perms"},
		Short:   "Manage origins the process may contact",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List granted origin patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				stored, err := a.Store.ListGrants(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(stored)+len(a.Config.Permissions.GrantedOrigins))
				for _, origin := range a.Config.Permissions.GrantedOrigins {
					rows = append(rows, []string{origin, "config"})
				}
				for _, origin := range stored {
					rows = append(rows, []string{origin, "granted"})
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No origins granted")
					return nil
				}
				fmt.Fprintln(out, renderTable([]string{"Origin", "Source"}, rows, nil))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "grant <pattern>...",
		Short: "Grant origin patterns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				for _, origin := range args {
					if err := a.Store.Grant(cmd.Context(), origin); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Granted %s\n", origin)
				}
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <pattern>",
		Short: "Revoke a granted origin pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				removed, err := a.Store.Revoke(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("origin %s was not granted", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s\n", args[0])
				return nil
			})
		},
	})
	return cmd
}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the corrected match cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached matches, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				out := cmd.OutOrStdout()
				if !a.Cache.Enabled() {
					fmt.Fprintln(out, "Match cache is disabled")
					return nil
				}
				entries := a.Cache.List()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Match cache is empty")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for i, e := range entries {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						e.Key,
						e.Match.DisplayTitle(),
						e.Match.URL,
						e.CachedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Key", "Title", "URL", "Cached"}, rows, []columnAlignment{alignRight}))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <key>",
		Short: "Remove one cached match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				if _, ok := a.Cache.Lookup(args[0]); !ok {
					return errors.New("no cached match for " + args[0])
				}
				if err := a.Cache.Remove(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached match",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app.App) error {
				n := a.Cache.Count()
				if err := a.Cache.Clear(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached matches\n", n)
				return nil
			})
		},
	})
	return cmd
}
