package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/noteql/noteql/pkg/query"
	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// renderResult writes a query result in the shape the query asked for:
// a table, a bullet list or a task checklist.
func renderResult(w io.Writer, res *query.Result) {
	switch res.Shape {
	case types.ShapeTable:
		renderTable(w, res)
	case types.ShapeTask:
		renderTasks(w, res)
	default:
		renderList(w, res)
	}
}

func renderTable(w io.Writer, res *query.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(res.Columns)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)

	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = value.ToString(cell)
		}
		table.Append(cells)
	}
	table.Render()
	fmt.Fprintf(w, "%d result(s)\n", res.Len())
}

func renderList(w io.Writer, res *query.Result) {
	for _, row := range res.Rows {
		if len(row) > 1 && row[1].Kind() != value.KindNull {
			fmt.Fprintf(w, "- %s: %s\n", value.ToString(row[0]), value.ToString(row[1]))
		} else {
			fmt.Fprintf(w, "- %s\n", value.ToString(row[0]))
		}
	}
	fmt.Fprintf(w, "%d result(s)\n", res.Len())
}

func renderTasks(w io.Writer, res *query.Result) {
	for _, row := range res.Rows {
		if task, ok := row[0].(*value.Task); ok {
			renderTask(w, task, 0)
		}
	}
	fmt.Fprintf(w, "%d result(s)\n", res.Len())
}

func renderTask(w io.Writer, task *value.Task, depth int) {
	marker := " "
	if task.Completed {
		marker = "x"
	}
	fmt.Fprintf(w, "%s- [%s] %s\n", strings.Repeat("  ", depth), marker, task.Text)
	for _, child := range task.Children {
		renderTask(w, child, depth+1)
	}
}
