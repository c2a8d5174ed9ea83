package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/config"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/httpclient"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/models"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/sources"
	"github.com/cdaniela3026/Proyecto-El-Deber-Metricas/internal/storage"
	"github.com/joho/godotenv"
)

// probe hits the real upstreams once with whatever credentials and snapshots
// are configured, so a deployment can be sanity-checked by hand.
func main() {
	video := flag.String("video", "", "YouTube URL or video ID to probe")
	user := flag.String("user", "", "TikTok username to probe")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client := httpclient.New(cfg.HTTPTimeout, cfg.RetryMax, cfg.RetryBackoff)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *video != "" {
		source := sources.NewYouTubeSource(cfg.YouTubeAPIKey, cfg.YouTubeAPIBase, client)
		if !source.IsEnabled() {
			fmt.Println("YouTube: DISABLED (missing API key)")
		} else {
			printRecord("YouTube", source.Fetch(ctx, *video))
		}
	}

	if *user != "" {
		store, err := storage.NewLocalStore(cfg.SnapshotDir)
		if err != nil {
			log.Fatalf("Failed to open snapshot store: %v", err)
		}
		source := sources.NewTikTokSource(store, cfg.SnapshotDefault, cfg.SnapshotURL, client)
		printRecord("TikTok", source.FetchUser(ctx, *user, true))
	}

	if *video == "" && *user == "" {
		fmt.Println("Usage: probe -video <url-or-id> and/or -user <tiktok-user>")
	}
}

func printRecord(name string, record *models.MetricsRecord) {
	fmt.Printf("%s (%s):\n", name, record.Status)
	data, _ := json.MarshalIndent(record, "  ", "  ")
	fmt.Printf("  %s\n", data)
}
