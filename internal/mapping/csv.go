package mapping

import (
	"fmt"

	"solum-sync-service/internal/model"
)

// CSVCodec maps delimiter-separated rows to spaces and back. Columns is the
// ordered list of local field keys; the first column is the unique id.
type CSVCodec struct {
	Columns []string
}

func NewCSVCodec(columns []string) (*CSVCodec, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("csv codec needs at least one column (the id)")
	}
	return &CSVCodec{Columns: columns}, nil
}

// Header returns the column row written at the top of exported files.
func (c *CSVCodec) Header() []string {
	return append([]string(nil), c.Columns...)
}

// ParseRows decodes CSV records into spaces. Rows shorter than the column
// list are padded with empty fields; a row with an empty id is an error.
func (c *CSVCodec) ParseRows(rows [][]string) ([]*model.Space, error) {
	spaces := make([]*model.Space, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if row[0] == "" {
			return nil, fmt.Errorf("row %d: missing id in first column", i+1)
		}

		sp := &model.Space{
			ID:   row[0],
			Data: make(map[string]string, len(c.Columns)),
		}
		for col := 1; col < len(c.Columns); col++ {
			if col < len(row) && row[col] != "" {
				sp.Data[c.Columns[col]] = row[col]
			}
		}
		spaces = append(spaces, sp)
	}
	return spaces, nil
}

// FormatRows encodes spaces as CSV records in column order.
func (c *CSVCodec) FormatRows(spaces []*model.Space) [][]string {
	rows := make([][]string, 0, len(spaces))
	for _, sp := range spaces {
		row := make([]string, len(c.Columns))
		row[0] = sp.ID
		for col := 1; col < len(c.Columns); col++ {
			row[col] = sp.Data[c.Columns[col]]
		}
		rows = append(rows, row)
	}
	return rows
}
