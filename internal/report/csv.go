package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/nhle/jobtracker/internal/model"
)

// csvHeader is the stable column order for exports.
var csvHeader = []string{
	"From", "Subject", "Date", "Category", "Summary", "Suggested Action",
}

// WriteCSV serializes records as flat rows, one per record, with a
// header row, preserving record order.
func WriteCSV(w io.Writer, records []model.ClassifiedRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, r := range records {
		date := ""
		if !r.Date.IsZero() {
			date = r.Date.Format(time.RFC3339)
		}
		row := []string{
			r.Sender,
			r.Subject,
			date,
			string(r.Category),
			r.Summary,
			r.SuggestedAction,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
