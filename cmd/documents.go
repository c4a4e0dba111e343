package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/fee-web/internal/analysis"
	"github.com/ziadkadry99/fee-web/internal/api"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List the documents uploaded to Fee",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		docs, err := newClient(cfg, log).GetDocuments(context.Background())
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintln(os.Stderr, "No documents yet. Upload one with `fee upload`.")
			return nil
		}
		for _, d := range docs {
			uploaded := ""
			if !d.UploadedAt.IsZero() {
				uploaded = d.UploadedAt.Format("Jan 2, 2006")
			}
			fmt.Printf("%-6s %-40s %s\n", d.ID, d.Title, uploaded)
		}
		return nil
	},
}

var analysisCmd = &cobra.Command{
	Use:   "analysis <analysis-id>",
	Short: "Show a stored analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		rec, err := newClient(cfg, log).GetAnalysis(context.Background(), api.ID(args[0]))
		if err != nil {
			return err
		}
		printAnalysis(rec)
		return nil
	},
}

func printAnalysis(rec *api.AnalysisRecord) {
	ov := analysis.BuildOverview(&rec.FeePerspectiveAnalysis)
	pv := analysis.BuildPerspective(&rec.FeePerspectiveAnalysis)

	fmt.Printf("Analysis %s (document %s)\n", rec.ID, rec.Document)
	fmt.Printf("Inclusivity score: %s - %s\n", ov.Percent, ov.Tier.Message)
	if ov.Justification != "" {
		fmt.Printf("\n%s\n", ov.Justification)
	}
	printList("Major concerns", ov.MajorConcerns)
	printList("Positive aspects", ov.PositiveAspects)
	printList("Recommendations", pv.Recommendations)
	for _, f := range pv.Facets {
		fmt.Printf("\n%s\n%s\n", f.Label, strings.Repeat("-", len(f.Label)))
		for _, c := range f.Categories {
			printList(c.Label, c.Items)
		}
	}
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(analysisCmd)
}
