package topics

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/bdchat/internal/core/domain"
)

// LoadXLSX reads topic names from column A and reference text from column B.
// The sheet has no header row. An empty sheet name selects the first sheet.
func LoadXLSX(path, sheet string) (*Store, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open topics workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("topics workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read topics sheet %q: %w", sheet, err)
	}

	entries := make([]domain.Topic, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		entry := domain.Topic{Name: row[0]}
		if len(row) > 1 {
			entry.Reference = row[1]
		}
		entries = append(entries, entry)
	}
	return NewStore(entries), nil
}
