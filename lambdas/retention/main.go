package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"gorm.io/gorm"
	"sitecrew.com.au/sitecrew/core"
	"sitecrew.com.au/sitecrew/infrastructure/communication"
	"sitecrew.com.au/sitecrew/infrastructure/filesystem"
	"sitecrew.com.au/sitecrew/lambdas/common"
	"sitecrew.com.au/sitecrew/retention"
)

type RetentionEvent struct {
	Env         string   `json:"env"`
	DryRun      bool     `json:"dryRun"`
	Collections []string `json:"collections"`
}

func RunRetention(ctx context.Context, dsn string, opts retention.RunOptions) (*retention.Report, error) {
	dm, err := core.New(dsn, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	dm.LogLevel = core.LogLevelError
	defer dm.Close()

	sweeper := retention.NewSweeper()
	if bucket := os.Getenv("SITECREW_ARCHIVE_BUCKET"); bucket != "" {
		archiver, err := filesystem.NewS3Archiver(ctx, bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to init archive bucket: %w", err)
		}
		sweeper.Archiver = archiver
	}

	var report *retention.Report
	err = dm.Exec(ctx, func(db *gorm.DB) error {
		var runErr error
		report, runErr = sweeper.Run(ctx, db, opts)
		return runErr
	})
	if err != nil {
		return report, err
	}
	return report, nil
}

func HandleRequest(ctx context.Context, event RetentionEvent) (*retention.Report, error) {
	eventJson, _ := json.Marshal(event)
	fmt.Printf("[INFO] Event: %s\n", string(eventJson))

	dsn, err := common.ResolveDSN(ctx, event.Env)
	if err != nil {
		return nil, err
	}

	opts := retention.RunOptions{DryRun: event.DryRun, Collections: event.Collections}
	report, err := RunRetention(ctx, dsn, opts)
	if err != nil {
		if slackErr := communication.ConnectSlack().Error(
			fmt.Sprintf("retention sweep failed (%s): %v", event.Env, err)); slackErr != nil {
			fmt.Printf("[WARN] failed to post Slack alert: %v\n", slackErr)
		}
		return report, err
	}

	if report != nil && !opts.DryRun && report.TotalDeleted > 0 {
		if slackErr := communication.ConnectSlack().Info(
			fmt.Sprintf("retention sweep (%s): deleted %d rows across %d tables",
				event.Env, report.TotalDeleted, len(report.Results))); slackErr != nil {
			fmt.Printf("[WARN] failed to post Slack summary: %v\n", slackErr)
		}
	}
	return report, nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(HandleRequest)
	} else {
		dryRun := true
		report, err := RunRetention(context.Background(), os.Getenv("DSN"),
			retention.RunOptions{DryRun: dryRun})
		if err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			os.Exit(1)
		}
		resJson, _ := json.MarshalIndent(report, "", "  ")
		fmt.Printf("[SUCCESS] Results:\n%s\n", string(resJson))
	}
}
