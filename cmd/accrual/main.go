// cmd/accrual/main.go
//
// accrual runs the daily accrual batch once and prints the run report as JSON.
// When REDIS_ADDR is set it takes the same day lease as the API's scheduler and skips
// the run if another process holds it. Without Redis there is no lease; repeated or
// overlapping runs still pay each position at most once per day because every due
// position is re-read under a row lock before it is paid.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	app "yieldwallet/internal"
	"yieldwallet/internal/domain"
	"yieldwallet/internal/util"
)

func main() {
	date := flag.String("date", "", "run date as YYYY-MM-DD (defaults to today in APP_TIMEZONE)")
	flag.Parse()
	os.Exit(run(*date))
}

// run returns 0 on a clean run, 1 on errors, 2 on bad flags and 3 when positions were left due.
func run(date string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.NewApplication()
	if err := application.Initialize(ctx); err != nil {
		application.Logger.Error("Failed to initialize application", zap.Error(err))
		return 1
	}
	defer func() { _ = application.Shutdown(context.Background()) }()

	runDate := util.SystemClock{Location: application.Config.Location}.Now()
	if date != "" {
		day, err := domain.ParseDate(date)
		if err != nil {
			application.Logger.Error("Invalid -date flag", zap.String("date", date), zap.Error(err))
			return 2
		}
		runDate = day
	}

	// An interrupt stops new positions from starting; the partial report is still printed.
	report, err := application.Scheduler.RunOnce(ctx, runDate)
	if err != nil {
		application.Logger.Error("Accrual run failed", zap.Error(err))
		return 1
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		application.Logger.Error("Failed to encode report", zap.Error(err))
		return 1
	}
	fmt.Println(string(out))

	if len(report.Failures) > 0 || report.Interrupted {
		return 3
	}
	return 0
}
