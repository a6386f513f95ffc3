package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"mrimark/internal/rules"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// labelHeader marks the columns whose cells are series labels.
const labelHeader = "Label"

// renderTable draws rows under headers. Short rows are padded. When colorize
// is set, headers are bold and label cells that drop or park a series are
// highlighted.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment, colorize bool) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(toRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i, header := range headers {
		cfg := table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if i < len(aligns) && aligns[i] == alignRight {
			cfg.Align = text.AlignRight
		}
		if colorize && header == labelHeader {
			cfg.Transformer = labelTransformer
		}
		configs = append(configs, cfg)
	}
	tw.SetColumnConfigs(configs)
	if colorize {
		tw.Style().Color.Header = text.Colors{text.Bold, text.FgBlue}
	}
	return tw.Render()
}

func toRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = ""
		}
	}
	return row
}

func labelTransformer(val any) string {
	label, _ := val.(string)
	switch label {
	case rules.LabelDelete:
		return text.FgRed.Sprint(label)
	case rules.LabelOthers, displayLabel(""):
		return text.FgYellow.Sprint(label)
	default:
		return label
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
