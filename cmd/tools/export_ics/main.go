// Exports incomplete deadlines on active RFPs to an ICS file.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/david/rfp-tracker/internal/calendar"
	storedb "github.com/david/rfp-tracker/internal/db"
	"github.com/david/rfp-tracker/internal/models"
)

func main() {
	out := flag.String("out", "rfp-deadlines.ics", "output path")
	name := flag.String("name", "RFP Deadline Tracker", "calendar display name")
	flag.Parse()

	godotenv.Load()

	ctx := context.Background()
	pool, err := storedb.Connect(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	store := storedb.NewStore(pool)
	deadlines, err := store.ListDeadlines(ctx, storedb.ListDeadlinesParams{ActiveOnly: true})
	if err != nil {
		log.Fatal(err)
	}

	events, err := calendar.BuildEvents(toCalendarDeadlines(deadlines))
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if err := calendar.EncodeICS(f, *name, events); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %d events to %s", len(events), *out)
}

func toCalendarDeadlines(deadlines []models.DeadlineWithRFP) []calendar.Deadline {
	result := make([]calendar.Deadline, 0, len(deadlines))
	for _, d := range deadlines {
		cd := calendar.Deadline{Date: d.Date, Label: d.Label, RFPName: d.RFPName}
		if d.Time != nil {
			cd.Time = *d.Time
		}
		if d.Context != nil {
			cd.Context = *d.Context
		}
		result = append(result, cd)
	}
	return result
}
