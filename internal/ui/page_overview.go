package ui

import (
	"strconv"

	"querywatch/internal/domain"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

type overviewData struct {
	LastRun       *domain.DetectionRun
	TotalRuns     int64
	TotalFindings int64
	TotalQueries  int64
}

func overviewPage(d overviewData) gomponents.Node {
	return appPage(
		"Overview",
		"home",
		lastRunCard(d.LastRun),
		html.Div(
			html.Class("grid"),
			statCard("Detection runs", d.TotalRuns, "/ui/runs"),
			statCard("Stored findings", d.TotalFindings, "/ui/findings"),
			statCard("Query-log records", d.TotalQueries, ""),
		),
	)
}

func lastRunCard(run *domain.DetectionRun) gomponents.Node {
	if run == nil {
		return emptyStateCard("No detection runs yet. Trigger one with POST /v1/runs or `querywatch detect`.")
	}
	return html.Div(
		html.Class(cardClass()),
		html.H2(gomponents.Text("Last run")),
		html.P(
			statusLabel(run.Status, runStatusTone(run.Status)),
			gomponents.Text(" started "+formatTime(run.StartedAt)+", took "+formatDuration(*run)),
		),
		html.P(html.Class(mutedClass()), gomponents.Text(
			strconv.FormatInt(run.HistoricalCount, 10)+" historical records, "+
				strconv.FormatInt(run.RecentCount, 10)+" recent, "+
				strconv.FormatInt(run.BaselineUsers, 10)+" baseline users",
		)),
		html.P(
			gomponents.Text(strconv.FormatInt(run.FindingCount, 10)+" findings. "),
			html.A(html.Href("/ui/findings?run_id="+run.ID), gomponents.Text("View findings ->")),
		),
	)
}

func statCard(title string, value int64, href string) gomponents.Node {
	link := gomponents.Node(nil)
	if href != "" {
		link = html.A(html.Href(href), gomponents.Text("Browse ->"))
	}
	return html.Div(
		html.Class(cardClass("stat")),
		html.H2(gomponents.Text(title)),
		html.P(html.Class("stat-value"), gomponents.Text(strconv.FormatInt(value, 10))),
		link,
	)
}
