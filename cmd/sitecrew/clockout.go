package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"sitecrew.com.au/sitecrew/client"
	"sitecrew.com.au/sitecrew/client/queue"
)

var (
	clockOutJob int32
	clockOutLat float64
	clockOutLng float64
)

var clockOutCmd = &cobra.Command{
	Use:   "clockout",
	Short: "Clock out of a job",
	Args:  cobra.NoArgs,
	RunE:  runClockOut,
}

func init() {
	clockOutCmd.Flags().Int32Var(&clockOutJob, "job", 0, "Job id")
	clockOutCmd.Flags().Float64Var(&clockOutLat, "lat", 0, "Latitude")
	clockOutCmd.Flags().Float64Var(&clockOutLng, "lng", 0, "Longitude")
	_ = clockOutCmd.MarkFlagRequired("job")
}

func runClockOut(cmd *cobra.Command, args []string) error {
	now := time.Now()

	dto := client.ClockOutDTO{
		JobID:         clockOutJob,
		ClockOutAt:    now,
		ClientEventID: uuid.NewString(),
		DeviceID:      deviceID(),
	}
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
		dto.Geo = &client.GeoDTO{Lat: clockOutLat, Lng: clockOutLng}
	}

	q, err := openQueue()
	if err != nil {
		return err
	}
	if _, err := q.Enqueue(queue.OpClockOut, "", dto); err != nil {
		return err
	}
	fmt.Printf("Clock-out queued for job %d at %s\n", clockOutJob, now.Format("15:04:05"))

	drainBestEffort(cmd, q)
	return nil
}
