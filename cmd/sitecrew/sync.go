package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"sitecrew.com.au/sitecrew/client"
	"sitecrew.com.au/sitecrew/client/queue"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Submit queued clock events to the server",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	q, err := openQueue()
	if err != nil {
		return err
	}
	api, err := newClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	stats, err := q.Drain(ctx, apiSender(api))
	if err != nil {
		return err
	}

	pending, err := q.Pending()
	if err != nil {
		return err
	}

	fmt.Printf("Synced %d event(s), %d parked, %d still pending.\n",
		stats.Sent, stats.Parked, pending)
	if stats.Failed > 0 {
		fmt.Println("Server unreachable; remaining events will be retried on the next sync.")
	}

	// Heartbeat is best-effort: a failed probe never fails the sync.
	if _, err := api.TimeClock.Probe(ctx, int32(pending)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: sync probe failed: %v\n", err)
	}
	return nil
}

// apiSender routes a queued operation to its API endpoint.
func apiSender(api *client.SiteCrewClient) queue.SenderFunc {
	return func(ctx context.Context, item *queue.Item) error {
		switch item.OperationType {
		case queue.OpClockIn:
			var dto client.ClockInDTO
			if err := json.Unmarshal([]byte(item.Payload), &dto); err != nil {
				return fmt.Errorf("corrupt payload: %w", err)
			}
			_, err := api.TimeClock.ClockIn(ctx, &dto)
			return err
		case queue.OpClockOut:
			var dto client.ClockOutDTO
			if err := json.Unmarshal([]byte(item.Payload), &dto); err != nil {
				return fmt.Errorf("corrupt payload: %w", err)
			}
			_, err := api.TimeClock.ClockOut(ctx, &dto)
			return err
		case queue.OpEdit:
			var dto client.EditEntryDTO
			if err := json.Unmarshal([]byte(item.Payload), &dto); err != nil {
				return fmt.Errorf("corrupt payload: %w", err)
			}
			_, err := api.TimeClock.Edit(ctx, item.TargetID, &dto)
			return err
		default:
			return fmt.Errorf("unknown operation type %q", item.OperationType)
		}
	}
}

// drainBestEffort tries an immediate sync after enqueueing. Offline is
// fine; the event stays queued.
func drainBestEffort(cmd *cobra.Command, q *queue.Queue) {
	api, err := newClient()
	if err != nil {
		fmt.Println("Not configured for sync; event stored locally.")
		return
	}
	stats, err := q.Drain(cmd.Context(), apiSender(api))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: sync failed: %v\n", err)
		return
	}
	if stats.Sent > 0 {
		fmt.Printf("Synced %d event(s).\n", stats.Sent)
	} else if stats.Failed > 0 {
		fmt.Println("Server unreachable; event stored locally.")
	}
}
