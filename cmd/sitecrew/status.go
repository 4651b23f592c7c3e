package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local queue state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	q, err := openQueue()
	if err != nil {
		return err
	}

	pending, err := q.Pending()
	if err != nil {
		return err
	}
	dead, err := q.Dead()
	if err != nil {
		return err
	}

	if pending == 0 && len(dead) == 0 {
		fmt.Println("Queue is empty. All clock events submitted.")
		return nil
	}

	fmt.Printf("Pending: %d event(s)\n", pending)
	if len(dead) > 0 {
		fmt.Printf("Parked: %d event(s) need attention:\n", len(dead))
		for _, item := range dead {
			fmt.Printf("  #%d %s (attempt %d): %s\n",
				item.ID, item.OperationType, item.RetryCount, item.LastError)
		}
	}
	return nil
}
