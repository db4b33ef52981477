package main

import (
	"os"
	"path"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "raw document store access",
}

func listStoreCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     "ls [dir]",
		Short:   "list documents under the data prefix",
		Example: "bookctl store ls users",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			dir := s.cfg.DataPrefix
			if len(args) == 1 {
				dir = path.Join(dir, args[0])
			}
			entries, err := s.opened.Store.List(cmd.Context(), dir)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Name", "Type", "Size", "SHA"})
			for _, e := range entries {
				table.Append([]string{e.Name, e.Type, strconv.FormatInt(e.Size, 10), e.SHA})
			}
			table.Render()
			return nil
		},
	}
	command.SilenceUsage = true
	return command
}
