package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"sitecrew.com.au/sitecrew/core"
	"sitecrew.com.au/sitecrew/infrastructure/communication"
	"sitecrew.com.au/sitecrew/infrastructure/filesystem"
	"sitecrew.com.au/sitecrew/retention"
	"sitecrew.com.au/sitecrew/timeclock"
	handlers "sitecrew.com.au/sitecrew/web/handlers/timeclock"
	"sitecrew.com.au/sitecrew/web/middlewares"
)

func main() {
	r := gin.Default()
	dsn := os.Getenv("DSN")
	fmt.Printf("using DSN: %s\n", dsn)
	region := os.Getenv("AWS_REGION")
	fmt.Printf("using REGION: %s\n", region)

	dm, err := core.New(dsn, 10)
	if err != nil {
		log.Fatal(err)
	}
	defer dm.Close()

	base64Secret := os.Getenv("SITECREW_SIGNING_SECRET")
	jwtSecret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		log.Fatal("Failed to decode JWT secret:", err)
	}

	sink := &timeclock.Sink{}
	if region != "" {
		mailer, err := communication.NewSESMailer(context.Background())
		if err != nil {
			log.Printf("[WARN] SES mailer unavailable, admin emails disabled: %v", err)
		} else {
			sink.Mailer = mailer
		}
	}
	engine := timeclock.NewEngine(sink)

	sweeper := retention.NewSweeper()
	if bucket := os.Getenv("SITECREW_ARCHIVE_BUCKET"); bucket != "" {
		archiver, err := filesystem.NewS3Archiver(context.Background(), bucket)
		if err != nil {
			log.Fatal("Failed to init archive bucket:", err)
		}
		sweeper.Archiver = archiver
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	protected := r.Group("/api/sitecrew/v1.0")
	protected.Use(middlewares.Authentication(jwtSecret))
	{
		protected.GET("/hello", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"message": "Hello device!",
				"claims":  middlewares.Session(c),
			})
		})
		handlers.Register(protected, dm, engine, sweeper)
	}

	if err := r.Run(); err != nil {
		log.Fatal(err)
	}
}
