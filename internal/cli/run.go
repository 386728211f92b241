package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nhle/jobtracker/internal/classify"
	"github.com/nhle/jobtracker/internal/credential"
	"github.com/nhle/jobtracker/internal/mailbox"
	"github.com/nhle/jobtracker/internal/model"
	"github.com/nhle/jobtracker/internal/pipeline"
	"github.com/nhle/jobtracker/internal/report"
)

func newRunCommand() *cobra.Command {
	var (
		days      int
		maxCount  int
		batchSize int
		csvPath   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch and classify recent job application emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if days > 0 {
				cfg.Fetch.WindowDays = days
			}
			if cmd.Flags().Changed("max") {
				cfg.Fetch.MaxCount = maxCount
			}
			if batchSize > 0 {
				cfg.AI.BatchSize = batchSize
			}

			creds, err := credential.Load()
			if err != nil {
				return err
			}

			fetcher := mailbox.NewClient(
				cfg.Mailbox.Host, cfg.Mailbox.Port, cfg.Mailbox.Folder,
				creds.Address, creds.Password,
			)
			classifier := classify.NewBatchClassifier(creds.APIKey, cfg.AI)

			p := pipeline.New(fetcher, classifier, cfg.Fetch, cfg.AI.BatchSize)

			result, err := p.Run(context.Background())
			if err != nil {
				return err
			}

			printSummary(result)

			if csvPath != "" {
				if err := exportCSV(csvPath, result.Records); err != nil {
					return err
				}
				log.Info().Str("path", csvPath).Msg("CSV export written")
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "fetch window in days (default from config)")
	cmd.Flags().IntVar(&maxCount, "max", 0, "maximum number of messages to fetch")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "emails per classification request")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the classified records to a CSV file")

	return cmd
}

func printSummary(result *pipeline.Result) {
	counts := report.Summary(result.Records)

	fmt.Printf("Classified %d emails", len(result.Records))
	if result.Dropped > 0 {
		fmt.Printf(" (%d dropped)", result.Dropped)
	}
	fmt.Println()

	for _, cat := range model.Categories() {
		fmt.Printf("  %-10s %d\n", cat, counts[cat])
	}

	if len(result.ProviderFailures) > 0 {
		fmt.Printf("\n%d batch(es) used rule-based fallback\n", len(result.ProviderFailures))
	}

	if len(result.Records) == 0 {
		return
	}

	if timeline := report.Timeline(result.Records); len(timeline) > 1 {
		fmt.Println("\nDaily trend:")
		for _, day := range timeline {
			total := 0
			for _, n := range day.Counts {
				total += n
			}
			fmt.Printf("  %s  %d email(s)\n", day.Day.Format(time.DateOnly), total)
		}
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tCATEGORY\tFROM\tSUBJECT\tACTION")
	for _, r := range result.Records {
		date := ""
		if !r.Date.IsZero() {
			date = r.Date.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			date, r.Category, clip(r.Sender, 30), clip(r.Subject, 50), r.SuggestedAction,
		)
	}
	w.Flush()
}

func exportCSV(path string, records []model.ClassifiedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV file %s: %w", path, err)
	}
	defer f.Close()

	return report.WriteCSV(f, records)
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
