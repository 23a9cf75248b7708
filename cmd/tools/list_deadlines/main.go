// Lists tracked deadlines with their computed urgency, soonest first.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	storedb "github.com/david/rfp-tracker/internal/db"
	"github.com/david/rfp-tracker/internal/urgency"
)

func main() {
	activeOnly := flag.Bool("active", false, "only incomplete deadlines on active RFPs")
	rfpID := flag.String("rfp", "", "limit to one RFP id")
	flag.Parse()

	godotenv.Load()

	ctx := context.Background()
	pool, err := storedb.Connect(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	store := storedb.NewStore(pool)
	deadlines, err := store.ListDeadlines(ctx, storedb.ListDeadlinesParams{
		RFPID:      *rfpID,
		ActiveOnly: *activeOnly,
	})
	if err != nil {
		log.Fatal(err)
	}

	now := time.Now()
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Date", "Time", "Label", "RFP", "Status", "Urgency"})

	for _, d := range deadlines {
		at := "all day"
		if d.Time != nil {
			at = *d.Time
		}
		t.AppendRow(table.Row{
			d.Date.String(), at, d.Label, d.RFPName, d.RFPStatus,
			urgency.Classify(d.Date, d.Completed, now),
		})
	}
	t.Render()
}
