package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"sitecrew.com.au/sitecrew/client"
	"sitecrew.com.au/sitecrew/client/queue"
	"sitecrew.com.au/sitecrew/core/model"
)

var (
	clockInJob int32
	clockInLat float64
	clockInLng float64
)

var clockInCmd = &cobra.Command{
	Use:   "clockin",
	Short: "Clock in on a job",
	Args:  cobra.NoArgs,
	RunE:  runClockIn,
}

func init() {
	clockInCmd.Flags().Int32Var(&clockInJob, "job", 0, "Job id")
	clockInCmd.Flags().Float64Var(&clockInLat, "lat", 0, "Latitude")
	clockInCmd.Flags().Float64Var(&clockInLng, "lng", 0, "Longitude")
	_ = clockInCmd.MarkFlagRequired("job")
}

func runClockIn(cmd *cobra.Command, args []string) error {
	now := time.Now()

	dto := client.ClockInDTO{
		JobID:         clockInJob,
		ClockInAt:     now,
		ClientEventID: uuid.NewString(),
		DeviceID:      deviceID(),
		Origin:        model.OriginOffline,
	}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
		dto.Geo = &client.GeoDTO{Lat: clockInLat, Lng: clockInLng}
	}

	q, err := openQueue()
	if err != nil {
		return err
	}
	if _, err := q.Enqueue(queue.OpClockIn, "", dto); err != nil {
		return err
	}
	fmt.Printf("Clock-in queued for job %d at %s\n", clockInJob, now.Format("15:04:05"))

	drainBestEffort(cmd, q)
	return nil
}

func deviceID() string {
	if id := os.Getenv("SITECREW_DEVICE_ID"); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
