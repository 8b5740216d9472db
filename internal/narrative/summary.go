package narrative

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"

	"bopcli/pkg/contracts/domain"
)

// DefaultMaxRows bounds the dataset excerpt sent to a model
const DefaultMaxRows = 40

// Summarize renders the first maxRows non-flag records as an aligned text table
func Summarize(records []domain.Record, maxRows int) string {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "date\tdescription\tvalue\tfiscal_year")

	n := 0
	for _, rec := range records {
		if n == maxRows {
			break
		}
		if domain.IsFlag(rec.Description) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
			rec.Date.Format(domain.DateLayout),
			rec.Description,
			strconv.FormatFloat(rec.Value, 'f', -1, 64),
			rec.FiscalYear)
		n++
	}
	tw.Flush()

	return fmt.Sprintf("Here are the first %d rows of the current account data:\n%s", n, buf.String())
}
