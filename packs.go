/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Seednode/tete/cards"
)

func listPacks(out io.Writer, packs []cards.Pack) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tNAME\tCARDS\tCUSTOM")
	for _, p := range packs {
		fmt.Fprintf(w, "%s\t%s %s\t%d\t%t\n", p.ID, p.Icon, p.Name, len(p.Cards), p.Custom)
	}

	return w.Flush()
}

func newPacksCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packs",
		Short: "Manage card packs",
		Args:  cobra.NoArgs,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom packs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.close()

			if err := svc.library.Reload(cmd.Context()); err != nil {
				return fmt.Errorf("loading custom packs: %w", err)
			}

			return listPacks(cmd.OutOrStdout(), svc.library.Packs())
		},
	}

	var name, icon, description string

	create := &cobra.Command{
		Use:   "create CARD...",
		Short: "Create a custom pack from the given cards",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := cards.NewDraft()
			draft.Name = name
			draft.Description = description
			if icon != "" {
				draft.Icon = icon
			}

			for _, text := range args {
				if err := draft.AddCard(text); err != nil {
					return fmt.Errorf("card %q: %w", text, err)
				}
			}

			pack, err := draft.Build()
			if err != nil {
				return err
			}

			svc, err := openServices(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.close()

			if err := svc.library.Save(cmd.Context(), pack); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s) with %d cards\n", pack.Name, pack.ID, len(pack.Cards))

			return nil
		},
	}

	create.Flags().StringVar(&name, "name", "", "pack name")
	create.Flags().StringVar(&icon, "icon", "", "pack icon (default "+cards.DefaultIcon+")")
	create.Flags().StringVar(&description, "description", "", "pack description")

	remove := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a custom pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer svc.close()

			if err := svc.library.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])

			return nil
		},
	}

	cmd.AddCommand(list, create, remove)

	return cmd
}
