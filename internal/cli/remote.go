package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tabula/internal/spreadsheet"
)

// NewRemoteCmd создаёт группу команд для таблиц на сервере tabula-api.
func NewRemoteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Work with sheets hosted by tabula-api",
	}

	cmd.AddCommand(
		newRemoteListCmd(clientFn, outputFn),
		newRemoteCreateCmd(clientFn, outputFn),
		newRemoteShowCmd(clientFn, outputFn),
		newRemoteGetCmd(clientFn, outputFn),
		newRemoteSetCmd(clientFn, outputFn),
		newRemoteSaveCmd(clientFn, outputFn),
		newRemoteDeleteCmd(clientFn, outputFn),
		newRemotePushCmd(clientFn, outputFn),
		newRemotePullCmd(clientFn, outputFn),
	)

	return cmd
}

func newRemoteListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sheets, err := client.ListSheets()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "CELLS", "UPDATED"}
			rows := make([][]string, len(sheets))
			for i, s := range sheets {
				rows[i] = []string{s.ID, s.Name, strconv.Itoa(s.Cells), s.UpdatedAt}
			}

			out.Print(headers, rows, sheets)
			return nil
		},
	}
}

func newRemoteCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sheet, err := client.CreateSheet(CreateSheetRequest{Name: name})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Sheet created: %s", sheet.ID))
			out.Print([]string{"ID", "NAME"}, [][]string{{sheet.ID, sheet.Name}}, sheet)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Sheet name")

	return cmd
}

func newRemoteShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print all non-empty cells of a sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			sheet, err := client.GetSheet(args[0])
			if err != nil {
				return err
			}

			if sheet.Changed {
				out.Success("Sheet has unsaved changes")
			}
			out.Cells(sheet.Cells, sheet)
			return nil
		},
	}
}

func newRemoteGetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID CELL",
		Short: "Print contents and value of a cell",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			cell, err := client.GetCell(args[0], args[1])
			if err != nil {
				return err
			}

			out.Cells([]CellResponse{*cell}, cell)
			return nil
		},
	}
}

func newRemoteSetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "set ID CELL INPUT",
		Short: "Set cell contents and print recalculated cells",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			resp, err := client.SetCell(args[0], args[1], args[2])
			if err != nil {
				return err
			}

			out.Cells(resp.Recalculated, resp)
			return nil
		},
	}
}

func newRemoteSaveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "save ID",
		Short: "Persist the sheet to the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			resp, err := client.SaveSheet(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Sheet saved: %s (%d cells)", resp.ID, resp.Cells))
			return nil
		},
	}
}

func newRemoteDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteSheet(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Sheet deleted: %s", args[0]))
			return nil
		},
	}
}

func newRemotePushCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Upload a sheet file as a new sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateSheetRequest{Name: name, Cells: map[string]string{}}
			err := withSheet(cmd.Context(), args[0], false, func(sheet *spreadsheet.Spreadsheet) error {
				for cell, c := range sheet.Document().Cells {
					req.Cells[cell] = c.StringForm
				}
				return nil
			})
			if err != nil {
				return err
			}

			sheet, err := client.CreateSheet(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Sheet created: %s (%d cells)", sheet.ID, len(sheet.Cells)))
			out.Print([]string{"ID", "NAME"}, [][]string{{sheet.ID, sheet.Name}}, sheet)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Sheet name")

	return cmd
}

func newRemotePullCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "pull ID FILE",
		Short: "Download a sheet into a local file (overwrites FILE)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			doc, err := client.GetDocument(args[0])
			if err != nil {
				return err
			}

			path := args[1]
			lock, err := lockSheet(cmd.Context(), path, true)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			sheet := spreadsheet.New(nil)
			if err := sheet.FromDocument(doc); err != nil {
				return err
			}
			if err := sheet.Save(path); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Sheet %s written to %s (%d cells)", args[0], path, len(doc.Cells)))
			return nil
		},
	}
}
