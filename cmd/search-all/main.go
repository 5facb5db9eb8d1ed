package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/intent-feedx/feedx/internal/app"
	"github.com/intent-feedx/feedx/internal/config"
	"github.com/intent-feedx/feedx/internal/models"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit
func run() int {
	keyword := flag.String("keyword", "", "search a single keyword instead of running the daily job")
	source := flag.String("source", string(models.SourceTwitter), "source type for -keyword")
	dryRun := flag.Bool("dry-run", false, "with -keyword, print results without saving them")
	output := flag.String("output", "", "write the daily report, or the -keyword search run, as JSON to this file")
	timeout := flag.Duration("timeout", 30*time.Minute, "overall timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}
	if !cfg.Debug {
		logrus.SetLevel(logrus.WarnLevel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	feed, err := app.New(ctx, cfg)
	if err != nil {
		log.Printf("Failed to initialize: %v", err)
		return 1
	}
	defer feed.Close()

	if *keyword != "" {
		return searchOne(ctx, feed, *keyword, models.SourceType(*source), !*dryRun, *output)
	}

	fmt.Println("🔍 Intent Feed - Daily Search")
	fmt.Println(strings.Repeat("=", 50))

	report, err := feed.Ingest.RunDailySearch(ctx)
	if report != nil {
		printReport(report)
		if *output != "" {
			writeJSON(*output, report)
		}
	}
	if err != nil {
		fmt.Printf("\n❌ Daily search failed: %v\n", err)
		return 1
	}
	return 0
}

func searchOne(ctx context.Context, feed *app.App, keyword string, sourceType models.SourceType, save bool, output string) int {
	fmt.Printf("🔸 Searching %q on %s... ", keyword, sourceType)

	result, saved, err := feed.Ingest.SearchNow(ctx, keyword, sourceType, save)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return 1
	}

	fmt.Printf("✅ %d retrieved, %d skipped", result.RetrievedCount, result.SkippedCount)
	if saved != nil {
		fmt.Printf(", %d saved", *saved)
	}
	fmt.Println()

	for _, c := range result.Contents {
		fmt.Printf("   📝 %s\n      %s\n", c.Title, c.URL)
	}

	if output != "" {
		writeJSON(output, result)
	}
	return 0
}

func printReport(report *models.DailyReport) {
	for _, r := range report.Results {
		status := "✅"
		if r.Error != "" {
			status = "❌"
		}
		fmt.Printf("%s %-30s %-8s retrieved=%d saved=%d\n", status, r.Keyword, r.SourceType, r.Retrieved, r.Saved)
		if r.Error != "" {
			fmt.Printf("   ⚠️  %s\n", r.Error)
		}
	}

	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("📈 Searches: %d\n", len(report.Results))
	fmt.Printf("💾 Saved:    %d\n", report.TotalSaved)
	fmt.Printf("❌ Failed:   %d\n", report.FailedCount)
	fmt.Printf("🕒 Took:     %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
}

func writeJSON(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Failed to encode report: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Failed to write report: %v", err)
		return
	}
	fmt.Printf("\n📁 Report saved to %s\n", path)
}
