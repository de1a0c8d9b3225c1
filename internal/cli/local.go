package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/shaiso/Tabula/internal/formula"
	"github.com/shaiso/Tabula/internal/spreadsheet"
)

// lockTimeout — сколько ждать блокировку файла таблицы.
var lockTimeout = 5 * time.Second

// ErrLockTimeout — файл таблицы занят другим процессом.
var ErrLockTimeout = errors.New("timeout waiting for sheet lock")

// lockSheet берёт блокировку FILE.lock: exclusive для записи,
// разделяемую для чтения. Вызывающий обязан вызвать Unlock.
func lockSheet(ctx context.Context, path string, exclusive bool) (*flock.Flock, error) {
	lock := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if exclusive {
		locked, err = lock.TryLockContext(ctx, 100*time.Millisecond)
	} else {
		locked, err = lock.TryRLockContext(ctx, 100*time.Millisecond)
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", path, ErrLockTimeout)
	}
	return lock, nil
}

// withSheet загружает таблицу из path под блокировкой и вызывает fn.
//
// Для записи (exclusive) отсутствующий файл даёт пустую таблицу, а
// после fn таблица сохраняется, если она изменилась. Ошибка fn
// отменяет сохранение.
func withSheet(ctx context.Context, path string, exclusive bool, fn func(sheet *spreadsheet.Spreadsheet) error) error {
	lock, err := lockSheet(ctx, path, exclusive)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	sheet := spreadsheet.New(nil)
	if err := sheet.Load(path); err != nil {
		if !exclusive || !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if err := fn(sheet); err != nil {
		return err
	}

	if exclusive && sheet.Changed() {
		return sheet.Save(path)
	}
	return nil
}

// localCell собирает CellResponse из локальной таблицы.
func localCell(sheet *spreadsheet.Spreadsheet, name string) (CellResponse, error) {
	content, err := sheet.GetCellContents(name)
	if err != nil {
		return CellResponse{}, err
	}
	value, err := sheet.GetCellValue(name)
	if err != nil {
		return CellResponse{}, err
	}

	name, _ = spreadsheet.NormalizeName(name)
	c := CellResponse{
		Cell:        name,
		Contents:    content.String(),
		ContentKind: content.Kind.String(),
		Value:       value.String(),
		ValueKind:   value.Kind.String(),
	}
	if value.IsError() {
		c.Error = value.Err.Reason
	}
	return c, nil
}

// NewSetCmd создаёт команду изменения ячеек файла.
func NewSetCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "set FILE CELL INPUT [CELL INPUT...]",
		Short: "Set cell contents in a sheet file and print recalculated cells",
		Long: `Set one or more cells. INPUT is a number, text, or a formula starting with "=".
An empty INPUT clears the cell. The file is created if it does not exist.
If any edit fails, the file is left untouched.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 || (len(args)-1)%2 != 0 {
				return fmt.Errorf("expected FILE followed by CELL INPUT pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			path := args[0]

			var cells []CellResponse
			err := withSheet(cmd.Context(), path, true, func(sheet *spreadsheet.Spreadsheet) error {
				seen := make(map[string]int)
				for i := 1; i < len(args); i += 2 {
					order, err := sheet.SetContentsOfCell(args[i], args[i+1])
					if err != nil {
						return err
					}
					for _, name := range order {
						c, _ := localCell(sheet, name)
						if idx, ok := seen[name]; ok {
							cells[idx] = c
							continue
						}
						seen[name] = len(cells)
						cells = append(cells, c)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			out.Cells(cells, cells)
			return nil
		},
	}
}

// NewGetCmd создаёт команду чтения одной ячейки.
func NewGetCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "get FILE CELL",
		Short: "Print contents and value of a cell",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			var cell CellResponse
			err := withSheet(cmd.Context(), args[0], false, func(sheet *spreadsheet.Spreadsheet) error {
				var err error
				cell, err = localCell(sheet, args[1])
				return err
			})
			if err != nil {
				return err
			}

			out.Cells([]CellResponse{cell}, cell)
			return nil
		},
	}
}

// NewShowCmd создаёт команду вывода всех непустых ячеек.
func NewShowCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Print all non-empty cells of a sheet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			var cells []CellResponse
			err := withSheet(cmd.Context(), args[0], false, func(sheet *spreadsheet.Spreadsheet) error {
				for _, name := range sheet.NamesOfNonEmptyCells() {
					c, err := localCell(sheet, name)
					if err != nil {
						return err
					}
					cells = append(cells, c)
				}
				return nil
			})
			if err != nil {
				return err
			}

			out.Cells(cells, cells)
			return nil
		},
	}
}

// NewDepsCmd создаёт команду вывода ячеек, которые ссылаются на CELL.
func NewDepsCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "deps FILE CELL",
		Short: "List cells whose formulas reference CELL directly",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			var dependents []string
			err := withSheet(cmd.Context(), args[0], false, func(sheet *spreadsheet.Spreadsheet) error {
				var err error
				dependents, err = sheet.DirectDependents(args[1])
				return err
			})
			if err != nil {
				return err
			}

			rows := make([][]string, len(dependents))
			for i, d := range dependents {
				rows[i] = []string{d}
			}
			out.Print([]string{"DEPENDENT"}, rows, dependents)
			return nil
		},
	}
}

// NewEvalCmd создаёт команду вычисления выражения без ячеек.
func NewEvalCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "eval EXPR",
		Short: "Evaluate an arithmetic expression and print its canonical form and value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			f, err := formula.New(args[0])
			if err != nil {
				return err
			}

			v, evalErr := f.Evaluate(nil)
			if evalErr != nil {
				return fmt.Errorf("%s: %s", f, evalErr.Reason)
			}

			result := struct {
				Formula string `json:"formula"`
				Value   string `json:"value"`
			}{f.String(), formula.FormatNumber(v)}

			out.Print([]string{"FORMULA", "VALUE"}, [][]string{{result.Formula, result.Value}}, result)
			return nil
		},
	}
}
