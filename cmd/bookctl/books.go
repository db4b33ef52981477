package main

import (
	"os"
	"strconv"

	"bookora/internal/domain/services"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "inspect the library index",
}

func listBooksCmd() *cobra.Command {
	var filter services.BookFilter

	command := &cobra.Command{
		Use:     "list",
		Short:   "list books from the index",
		Example: "bookctl books list -q lantern -g Fantasy -s newest -l 10",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			list := s.svc.Books.List(filter)

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Title", "Author", "Genre", "Pages", "Views", "Downloads"})
			for _, b := range list.Books {
				table.Append([]string{
					b.ID,
					b.Title,
					b.Author,
					b.Genre,
					strconv.Itoa(b.PageCount),
					strconv.Itoa(b.ViewCount),
					strconv.Itoa(b.DownloadCount),
				})
			}
			table.SetFooter([]string{"", "", "", "", "", "Total", strconv.Itoa(list.Total)})
			table.Render()
			return nil
		},
	}

	command.Flags().StringVarP(&filter.Query, "query", "q", "", "match title or author")
	command.Flags().StringVarP(&filter.Genre, "genre", "g", "", "genre, or All")
	command.Flags().StringVarP(&filter.Sort, "sort", "s", services.SortNewest, "newest, mostViewed or mostDownloaded")
	command.Flags().IntVarP(&filter.Limit, "limit", "l", 0, "maximum rows")
	command.Flags().SortFlags = false
	command.SilenceUsage = true

	return command
}
