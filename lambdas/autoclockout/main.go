package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"gorm.io/gorm"
	"sitecrew.com.au/sitecrew/core"
	"sitecrew.com.au/sitecrew/infrastructure/communication"
	"sitecrew.com.au/sitecrew/lambdas/common"
	"sitecrew.com.au/sitecrew/timeclock"
)

type SweepEvent struct {
	Env string `json:"env"`
	// ThresholdHours overrides the default auto clock-out threshold.
	ThresholdHours int `json:"thresholdHours"`
}

type SweepStats struct {
	Closed int `json:"closed"`
	Warned int `json:"warned"`
}

func RunSweep(ctx context.Context, dsn string, threshold time.Duration) (*SweepStats, error) {
	dm, err := core.New(dsn, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	dm.LogLevel = core.LogLevelError
	defer dm.Close()

	sink := &timeclock.Sink{}
	if mailer, err := communication.NewSESMailer(ctx); err != nil {
		fmt.Printf("[WARN] SES mailer unavailable, admin emails disabled: %v\n", err)
	} else {
		sink.Mailer = mailer
	}
	engine := timeclock.NewEngine(sink)

	stats := &SweepStats{}
	err = dm.Exec(ctx, func(db *gorm.DB) error {
		now := time.Now()

		closed, err := engine.RunAutoCloseSweep(ctx, db, now, threshold)
		if err != nil {
			return fmt.Errorf("auto close sweep failed: %w", err)
		}
		stats.Closed = len(closed)
		for _, entry := range closed {
			fmt.Printf("[INFO] auto clocked out entry %s (open since %s)\n",
				entry.EntryID, entry.ClockInAt.Format(time.RFC3339))
		}

		warned, err := engine.WarnLongShifts(ctx, db, now, timeclock.DefaultWarnThreshold, threshold)
		if err != nil {
			return fmt.Errorf("long shift warning pass failed: %w", err)
		}
		stats.Warned = warned
		return nil
	})
	if err != nil {
		return nil, err
	}

	fmt.Printf("[INFO] sweep finished: closed=%d warned=%d\n", stats.Closed, stats.Warned)
	return stats, nil
}

func HandleRequest(ctx context.Context, event SweepEvent) (*SweepStats, error) {
	eventJson, _ := json.Marshal(event)
	fmt.Printf("[INFO] Event: %s\n", string(eventJson))

	dsn, err := common.ResolveDSN(ctx, event.Env)
	if err != nil {
		return nil, err
	}

	threshold := timeclock.DefaultAutoCloseThreshold
	if event.ThresholdHours > 0 {
		threshold = time.Duration(event.ThresholdHours) * time.Hour
	}

	stats, err := RunSweep(ctx, dsn, threshold)
	if err != nil {
		if slackErr := communication.ConnectSlack().Error(
			fmt.Sprintf("auto clock-out sweep failed (%s): %v", event.Env, err)); slackErr != nil {
			fmt.Printf("[WARN] failed to post Slack alert: %v\n", slackErr)
		}
		return nil, err
	}
	return stats, nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(HandleRequest)
	} else {
		stats, err := RunSweep(context.Background(), os.Getenv("DSN"), timeclock.DefaultAutoCloseThreshold)
		if err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			os.Exit(1)
		}
		resJson, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Printf("[SUCCESS] Results:\n%s\n", string(resJson))
	}
}
