package main

import (
	"fmt"
	"time"

	"github.com/hoanghai1803/newswire/internal/aggregator"
	"github.com/spf13/cobra"
)

func newNewsCommand(opts *rootOptions) *cobra.Command {
	var (
		category string
		keywords string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "news",
		Short: "Aggregate the latest ranked news for a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.deadline(cmd)
			defer cancel()

			res, err := opts.pipeline.Aggregator.AggregateByCategory(ctx, category, keywords)
			if err != nil {
				return fmt.Errorf("aggregating news: %w", err)
			}
			res.Articles = res.Articles[:min(len(res.Articles), limit)]

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, res)
			}
			renderArticles(out, res.Articles)
			renderFailures(cmd.ErrOrStderr(), res.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "all", "politics, business, technology, social, environment, international or all")
	cmd.Flags().StringVarP(&keywords, "keywords", "k", "", "narrow results to a free-text query")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of articles to show")
	return cmd
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var (
		keywords string
		category string
		from     string
		to       string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search live news, or the archive when --from is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := aggregator.SearchQuery{Keywords: keywords, Category: category, Limit: limit}
			var err error
			if q.From, err = parseDay(from); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			if q.To, err = parseDay(to); err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			ctx, cancel := opts.deadline(cmd)
			defer cancel()

			res, err := opts.pipeline.Aggregator.Search(ctx, q)
			if err != nil {
				return fmt.Errorf("searching news: %w", err)
			}

			res.Articles = res.Articles[:min(len(res.Articles), limit)]

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, res)
			}
			if res.Archive {
				fmt.Fprintf(out, "Archive search %s to %s\n", from, valueOr(to, "today"))
			}
			renderArticles(out, res.Articles)
			renderFailures(cmd.ErrOrStderr(), res.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&keywords, "keywords", "k", "", "search terms; the archive defaults to parliament OR minister OR policy OR government")
	cmd.Flags().StringVarP(&category, "category", "c", "", "restrict to a category")
	cmd.Flags().StringVar(&from, "from", "", "archive start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "archive end date (YYYY-MM-DD), default today")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of articles to show")
	return cmd
}

func newSourcesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the enabled news sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := opts.pipeline.Registry.Describe()
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), sources)
			}
			renderSources(cmd.OutOrStdout(), sources)
			return nil
		},
	}
}

func newParliamentariansCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parliamentarians",
		Short: "Fetch the surnames used to spot political stories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.deadline(cmd)
			defer cancel()

			set, err := opts.pipeline.Roster.Refresh(ctx)
			if err != nil {
				return fmt.Errorf("fetching parliamentarians: %w", err)
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), set.Slice())
			}
			renderKeywords(cmd.OutOrStdout(), set.Slice())
			return nil
		},
	}
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
