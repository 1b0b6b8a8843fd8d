package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"audiotoc/audiobook"
)

// Alignment selects how a table column is aligned.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// RenderTable renders headers and rows as a rounded-corner table. Rows
// shorter than the header are padded with empty cells.
func RenderTable(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// TrackTable renders the reading order as a table. When any track has been
// probed, a measured-duration column is included so drift is visible next to
// the declared value.
func TrackTable(book *audiobook.Audiobook) string {
	probed := false
	for _, track := range book.Manifest.ReadingOrder {
		if track.ActualDuration != 0 {
			probed = true
			break
		}
	}

	headers := []string{"#", "Title", "Href", "Duration", "H:MM:SS"}
	aligns := []Alignment{AlignRight, AlignLeft, AlignLeft, AlignRight, AlignRight}
	if probed {
		headers = append(headers, "Measured")
		aligns = append(aligns, AlignRight)
	}

	rows := make([][]string, 0, len(book.Manifest.ReadingOrder))
	for i, track := range book.Manifest.ReadingOrder {
		row := []string{
			fmt.Sprintf("%d", i),
			track.Title,
			track.Href,
			formatSeconds(track.Duration),
			SecondsToHMS(track.Duration),
		}
		if probed {
			measured := ""
			if track.ActualDuration != 0 {
				measured = formatSeconds(track.ActualDuration)
			}
			row = append(row, measured)
		}
		rows = append(rows, row)
	}

	return RenderTable(headers, rows, aligns)
}

// TimelineTable renders the resolved timeline as a table, one row per ToC
// entry with nesting shown by indentation.
func TimelineTable(book *audiobook.Audiobook) string {
	headers := []string{"#", "Entry", "Starts", "Segments", "Duration", "H:MM:SS"}
	aligns := []Alignment{AlignRight, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight}

	rows := make([][]string, 0, len(book.Entries))
	for i, entry := range book.Entries {
		start := fmt.Sprintf("track %d @ %s", entry.TrackIndex, formatSeconds(entry.StartOffset))
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			strings.Repeat("  ", entry.Depth) + entry.Title,
			start,
			fmt.Sprintf("%d", len(entry.Segments)),
			formatSeconds(entry.Duration),
			SecondsToHMS(entry.Duration),
		})
	}

	return RenderTable(headers, rows, aligns)
}
