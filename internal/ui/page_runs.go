package ui

import (
	"strconv"

	"querywatch/internal/domain"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

type runRowData struct {
	ID       string
	Status   string
	Trigger  string
	Started  string
	Duration string
	Records  string
	Users    string
	Findings int64
}

func runsPage(rows []runRowData, page domain.PageRequest, total int64) gomponents.Node {
	if len(rows) == 0 {
		return appPage(
			"Runs",
			"runs",
			emptyStateCard("No detection runs yet. Trigger one with POST /v1/runs or `querywatch detect`."),
		)
	}

	tableRows := make([]gomponents.Node, 0, len(rows))
	for i := range rows {
		row := rows[i]
		tableRows = append(tableRows, html.Tr(
			data.Show(containsExpr(row.ID+" "+row.Status+" "+row.Trigger)),
			html.Td(html.Code(gomponents.Text(shortID(row.ID)))),
			html.Td(statusLabel(row.Status, runStatusTone(row.Status))),
			html.Td(gomponents.Text(row.Trigger)),
			html.Td(gomponents.Text(row.Started)),
			html.Td(gomponents.Text(row.Duration)),
			html.Td(gomponents.Text(row.Records)),
			html.Td(gomponents.Text(row.Users)),
			html.Td(html.A(
				html.Href("/ui/findings?run_id="+row.ID),
				gomponents.Text(strconv.FormatInt(row.Findings, 10)),
			)),
		))
	}

	return appPage(
		"Runs",
		"runs",
		html.Div(
			data.Signals(map[string]any{"q": ""}),
			quickFilterCard("Filter by run ID, status, or trigger"),
			html.Div(
				html.Class(cardClass("table-wrap")),
				html.Table(
					html.THead(html.Tr(
						html.Th(gomponents.Text("Run")),
						html.Th(gomponents.Text("Status")),
						html.Th(gomponents.Text("Trigger")),
						html.Th(gomponents.Text("Started")),
						html.Th(gomponents.Text("Duration")),
						html.Th(gomponents.Text("Records (hist/recent)")),
						html.Th(gomponents.Text("Baseline users")),
						html.Th(gomponents.Text("Findings")),
					)),
					html.TBody(gomponents.Group(tableRows)),
				),
			),
		),
		paginationCard("/ui/runs", page, total),
	)
}
