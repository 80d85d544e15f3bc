package main

import (
	"log/slog"
	"time"

	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/models"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/store"
	"github.com/FerdinandTheCyberDuck/Conversational-Surveys/internal/util"
)

// seedDemoConcert inserts a sample concert so the service can be exercised
// without seeding through the API first.
func seedDemoConcert(st store.Store) error {
	concert := models.Concert{
		ID:           util.GenerateConcertID(),
		Title:        "Spring Symphony Concert",
		Date:         time.Date(2026, time.March, 15, 19, 30, 0, 0, time.Local),
		Venue:        "Symphony Hall",
		Organization: "City Symphony Orchestra",
		IsActive:     true,
		CreatedAt:    time.Now(),
		Program: []models.ProgramItem{
			{
				ID:            "piece-1",
				Composer:      "Ludwig van Beethoven",
				ComposerDates: "1770-1827",
				WorkTitle:     "Symphony No. 5 in C minor, Op. 67",
				Movements: []string{
					"I. Allegro con brio",
					"II. Andante con moto",
					"III. Scherzo: Allegro",
					"IV. Allegro",
				},
				Duration: 35,
				Order:    1,
			},
			{
				ID:            "piece-2",
				Composer:      "Johannes Brahms",
				ComposerDates: "1833-1897",
				WorkTitle:     "Violin Concerto in D major, Op. 77",
				Movements: []string{
					"I. Allegro non troppo",
					"II. Adagio",
					"III. Allegro giocoso, ma non troppo vivace",
				},
				Duration: 40,
				Soloist:  "Sarah Chang, violin",
				Order:    2,
			},
			{
				ID:            "piece-3",
				Composer:      "Antonín Dvořák",
				ComposerDates: "1841-1904",
				WorkTitle:     "Symphony No. 9 in E minor, Op. 95 'From the New World'",
				Movements: []string{
					"I. Adagio - Allegro molto",
					"II. Largo",
					"III. Scherzo: Molto vivace",
					"IV. Allegro con fuoco",
				},
				Duration: 45,
				Order:    3,
			},
		},
	}

	if err := st.SaveConcert(concert); err != nil {
		return err
	}
	slog.Info("Demo concert seeded", "concertID", concert.ID, "title", concert.Title)
	return nil
}
