package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
)

type searchFlags struct {
	kind     string
	category string
	minPrice float64
	maxPrice float64
	limit    int
	offset   int
	brand    string
	colors   []string
	belt     string
}

func newSearchCmd(c *cli) *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run an ad-hoc catalog search",
		Example: `  catalogctl search fossil --category mens_watch
  catalogctl search --kind range --category mens_watch --min 1000 --max 5000
  catalogctl search "blue diver watch" --kind vector --limit 5
  catalogctl search "gold watch" --kind hybrid --brand rolex --color gold`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			ctx := cmd.Context()

			comps, err := c.components(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = comps.Close(ctx) }()
			svc := comps.Search

			var (
				results []domain.SearchResult
				total   int
			)
			switch domain.OperationKind(f.kind) {
			case domain.KindKeyword:
				q := domain.KeywordQuery{Query: query, MaxResults: f.limit, Offset: f.offset, CategoryKey: f.category}
				if cmd.Flags().Changed("min") {
					q.MinPrice = domain.Float64(f.minPrice)
				}
				if cmd.Flags().Changed("max") {
					q.MaxPrice = domain.Float64(f.maxPrice)
				}
				res, err := svc.Search(ctx, q)
				if err != nil {
					return err
				}
				results, total = res.Items, res.Total
			case domain.KindRange:
				if !cmd.Flags().Changed("min") || !cmd.Flags().Changed("max") {
					return apperrors.InvalidInput("range search needs --min and --max")
				}
				res, err := svc.SearchRange(ctx, domain.RangeQuery{
					CategoryKey: f.category,
					MinPrice:    f.minPrice,
					MaxPrice:    f.maxPrice,
					MaxResults:  f.limit,
					Offset:      f.offset,
				})
				if err != nil {
					return err
				}
				results, total = res.Items, res.Total
			case domain.KindVector:
				if results, err = svc.VectorSearch(ctx, query, f.limit); err != nil {
					return err
				}
				total = len(results)
			case domain.KindHybrid:
				filters := domain.SearchFilters{
					Colors:      f.colors,
					Brand:       f.brand,
					BeltType:    f.belt,
					CategoryKey: f.category,
				}
				if cmd.Flags().Changed("min") {
					filters.MinPrice = domain.Float64(f.minPrice)
				}
				if cmd.Flags().Changed("max") {
					filters.MaxPrice = domain.Float64(f.maxPrice)
				}
				if results, err = svc.HybridSearch(ctx, query, filters, f.limit); err != nil {
					return err
				}
				total = len(results)
			default:
				return apperrors.InvalidInput(fmt.Sprintf("unknown search kind %q", f.kind))
			}

			if c.asJSON {
				return c.printJSON(map[string]any{"items": results, "total_found": total})
			}
			return printResults(c, results, total)
		},
	}

	cmd.Flags().StringVarP(&f.kind, "kind", "k", string(domain.KindKeyword), "keyword, range, vector or hybrid")
	cmd.Flags().StringVar(&f.category, "category", "", "category key, e.g. mens_watch")
	cmd.Flags().Float64Var(&f.minPrice, "min", 0, "minimum price")
	cmd.Flags().Float64Var(&f.maxPrice, "max", 0, "maximum price")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 10, "number of results")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "skip this many results (keyword and range)")
	cmd.Flags().StringVar(&f.brand, "brand", "", "hybrid brand filter")
	cmd.Flags().StringSliceVar(&f.colors, "color", nil, "hybrid color filter, repeatable")
	cmd.Flags().StringVar(&f.belt, "belt", "", "hybrid belt type filter")
	return cmd
}

func printResults(c *cli, results []domain.SearchResult, total int) error {
	if len(results) == 0 {
		fmt.Fprintln(c.out, "no products found")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY\tSCORE")
	for _, r := range results {
		score := "-"
		if r.Score > 0 {
			score = fmt.Sprintf("%.3f", r.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Price.String(), r.CategoryKey, score)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d of %d\n", len(results), total)
	return nil
}
