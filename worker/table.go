package main

import (
	"strconv"

	"Reco/services"
	"Reco/shared/format"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const maxCellWidth = 60

func resultRows(results []services.ImportResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "updated"
		switch {
		case !r.OK():
			status = "failed: " + format.Preview(r.Err.Error(), maxCellWidth)
		case r.Created:
			status = "created"
		}
		titleID := ""
		if r.OK() {
			titleID = r.TitleID.String()
		}
		rows = append(rows, []string{strconv.Itoa(r.ExternalID), r.MediaKind, format.Preview(r.Name, maxCellWidth), titleID, status})
	}
	return rows
}

func renderResults(results []services.ImportResult) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"TMDB ID", "Kind", "Name", "Title ID", "Status"})
	for _, row := range resultRows(results) {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		tw.AppendRow(r)
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func countFailed(results []services.ImportResult) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
