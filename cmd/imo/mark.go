package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mmcdole/imo/internal/domain"
)

var markCmd = &cobra.Command{
	Use:   "mark <url> loved|discarded|clear",
	Short: "Set or clear the mark on a listing",
	Args:  cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 1 {
			return []string{"loved", "discarded", "clear"}, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runMark,
}

var marksCmd = &cobra.Command{
	Use:   "marks",
	Short: "List all marked listings",
	Args:  cobra.NoArgs,
	RunE:  runMarks,
}

func init() {
	rootCmd.AddCommand(markCmd)
	rootCmd.AddCommand(marksCmd)
}

func runMark(cmd *cobra.Command, args []string) error {
	url, state := args[0], args[1]
	mark := domain.ParseMark(state)
	if mark == domain.MarkNone && state != "clear" && state != "none" {
		return fmt.Errorf("unknown mark %q (want loved, discarded or clear)", state)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	if err := a.marks.Load(ctx); err != nil {
		logger.Warn("failed to persist reconciled marks", "error", err)
	}
	if err := a.marks.Set(ctx, url, mark); err != nil {
		return err
	}

	if mark == domain.MarkNone {
		fmt.Printf("✓ cleared %s\n", url)
	} else {
		fmt.Printf("✓ %s %s\n", mark, url)
	}
	return nil
}

func runMarks(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.marks.Load(context.Background()); err != nil {
		logger.Warn("failed to persist reconciled marks", "error", err)
	}

	all := a.marks.All()
	urls := make([]string, 0, len(all))
	for url := range all {
		urls = append(urls, url)
	}
	slices.Sort(urls)
	for _, url := range urls {
		fmt.Printf("%-9s %s\n", all[url], url)
	}
	return nil
}
