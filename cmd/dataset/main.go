package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"jordanella.com/aim-loop-go/internal/database"
)

func main() {
	dbPath := flag.String("db", "bin/dataset.db", "Path to the dataset index")
	list := flag.Int("list", 10, "Number of recent frames to list")
	pruneOlder := flag.Duration("prune", 0, "Delete index rows for frames older than this (e.g. 720h)")
	vacuum := flag.Bool("vacuum", false, "Compact the database after pruning")
	flag.Parse()

	db, err := database.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if *pruneOlder > 0 {
		cutoff := time.Now().Add(-*pruneOlder)
		n, err := db.DeleteFramesBefore(cutoff)
		if err != nil {
			log.Fatalf("Failed to prune frames: %v", err)
		}
		log.Printf("Pruned %d frames captured before %s", n, cutoff.Format(time.RFC3339))
	}
	if *vacuum {
		if err := db.Vacuum(); err != nil {
			log.Fatalf("Failed to vacuum: %v", err)
		}
	}

	stats, err := db.Stats()
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}
	fmt.Printf("=== Dataset %s (%.1f KiB) ===\n", db.Path(), float64(stats.Bytes)/1024)
	fmt.Printf("Frames:   %d\n", stats.Frames)
	fmt.Printf("Labelled: %d\n\n", stats.Labelled)

	counts, err := db.CountByClass()
	if err != nil {
		log.Fatalf("Failed to count labels: %v", err)
	}
	if len(counts) > 0 {
		fmt.Println("Labels per class:")
		for _, c := range counts {
			fmt.Printf("  %3d %-20s %d\n", c.ClassID, c.ClassName, c.Count)
		}
		fmt.Println()
	}

	frames, err := db.ListFrames(*list)
	if err != nil {
		log.Fatalf("Failed to list frames: %v", err)
	}
	fmt.Println("Recent frames:")
	for _, f := range frames {
		label := "-"
		if f.Label != nil {
			label = fmt.Sprintf("%s %.2f", f.Label.ClassName, f.Label.Confidence)
		}
		fmt.Printf("  %s  %s  %dx%d  %s\n", f.CapturedAt.Format("2006-01-02 15:04:05"), f.ID, f.Width, f.Height, label)
	}
}
