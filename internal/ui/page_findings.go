package ui

import (
	"querywatch/internal/domain"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

type findingRowData struct {
	Filter      string
	UserName    string
	Time        string
	AnomalyType domain.AnomalyType
	QueryText   string
	Details     string
	RunID       string
}

func findingsPage(rows []findingRowData, page domain.PageRequest, total int64) gomponents.Node {
	if len(rows) == 0 {
		return appPage(
			"Findings",
			"findings",
			emptyStateCard("No findings recorded. Either no run has executed yet or every query looked normal."),
		)
	}

	tableRows := make([]gomponents.Node, 0, len(rows))
	for i := range rows {
		row := rows[i]
		tableRows = append(tableRows, html.Tr(
			data.Show(containsExpr(row.Filter)),
			html.Td(gomponents.Text(row.UserName)),
			html.Td(gomponents.Text(row.Time)),
			html.Td(statusLabel(string(row.AnomalyType), anomalyTone(row.AnomalyType))),
			html.Td(html.Code(gomponents.Text(row.QueryText))),
			html.Td(gomponents.Text(row.Details)),
			html.Td(html.Class(mutedClass()), gomponents.Text(shortID(row.RunID))),
		))
	}

	return appPage(
		"Findings",
		"findings",
		html.Div(
			data.Signals(map[string]any{"q": ""}),
			quickFilterCard("Filter by user, type, or query text"),
			html.Div(
				html.Class(cardClass("table-wrap")),
				html.Table(
					html.THead(html.Tr(
						html.Th(gomponents.Text("User")),
						html.Th(gomponents.Text("Time")),
						html.Th(gomponents.Text("Type")),
						html.Th(gomponents.Text("Query")),
						html.Th(gomponents.Text("Details")),
						html.Th(gomponents.Text("Run")),
					)),
					html.TBody(gomponents.Group(tableRows)),
				),
			),
		),
		paginationCard("/ui/findings", page, total),
	)
}
