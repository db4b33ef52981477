package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"bookora/internal/domain/models"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func logsCmd() *cobra.Command {
	var user, action, resource, since string
	var stats bool

	command := &cobra.Command{
		Use:     "logs",
		Short:   "show the activity log",
		Example: "bookctl logs -u writer@bookora.dev -a create -r book --since 24h",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := models.ActivityFilter{
				UserEmail:    strings.ToLower(user),
				Action:       models.Action(action),
				ResourceType: models.ResourceType(resource),
			}
			if since != "" {
				d, err := time.ParseDuration(since)
				if err != nil {
					return fmt.Errorf("invalid --since: %w", err)
				}
				start := time.Now().Add(-d)
				filter.Start = &start
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if stats {
				st := s.svc.Activity.Stats()
				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"Total", "Creates", "Updates", "Deletes"})
				table.Append([]string{fmt.Sprint(st.Total), fmt.Sprint(st.Creates), fmt.Sprint(st.Updates), fmt.Sprint(st.Deletes)})
				table.Render()
				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Time", "User", "Action", "Resource", "Name"})
			for _, e := range s.svc.Activity.Filter(filter) {
				table.Append([]string{
					e.Timestamp.Local().Format(time.DateTime),
					e.UserEmail,
					string(e.Action),
					string(e.ResourceType) + ":" + e.ResourceID,
					e.ResourceName,
				})
			}
			table.Render()
			return nil
		},
	}

	command.Flags().StringVarP(&user, "user", "u", "", "user email")
	command.Flags().StringVarP(&action, "action", "a", "", "create, update or delete")
	command.Flags().StringVarP(&resource, "resource", "r", "", "book, feed, page or user")
	command.Flags().StringVar(&since, "since", "", "only entries newer than this duration")
	command.Flags().BoolVar(&stats, "stats", false, "print counts by action instead")
	command.Flags().SortFlags = false
	command.SilenceUsage = true

	return command
}
