package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/bizledger/bizledger/internal/billing"
	"github.com/bizledger/bizledger/internal/dashboard"
	"github.com/bizledger/bizledger/internal/dashboard/chart"
)

// Renderer converts an HTML document to PDF.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// PDFExporter renders the dashboard report through a Renderer.
type PDFExporter struct {
	Renderer Renderer
	Money    Money
	Location *time.Location
}

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"money": func(m Money, v float64) string { return m.Format(v) },
}).Parse(`<html><head><meta charset="utf-8"><style>
body{font-family:sans-serif;margin:24px;color:#0f172a}h1{font-size:20px}h2{font-size:15px;margin-top:24px}
table{width:100%;border-collapse:collapse;margin-bottom:16px}th,td{border:1px solid #e2e8f0;padding:5px;text-align:right;font-size:11px}
th{background:#f8fafc}td.label,th.label{text-align:left}.overdue{color:#e11d48}
</style></head><body>
<h1>Monthly report {{.Metrics.Period}}</h1>
<table><tbody>
{{range .Cards}}<tr><td class="label">{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}</tbody></table>
{{if .Chart}}<h2>Daily revenue and profit</h2>{{.Chart}}{{end}}
{{if .Metrics.CategoryBreakdown}}<h2>Profit by category</h2><table><tbody>
{{range .Metrics.CategoryBreakdown}}<tr><td class="label">{{.Name}}</td><td>{{money $.Money .Value}}</td></tr>
{{end}}</tbody></table>{{end}}
{{if .Alerts}}<h2>Receivables</h2><table><thead><tr><th class="label">Customer</th><th>Installment</th><th>Due</th><th>Value</th></tr></thead><tbody>
{{range .Alerts}}<tr{{if .Overdue}} class="overdue"{{end}}><td class="label">{{.CustomerName}}</td><td>{{.InstallmentNumber}}/{{.TotalInstallments}}</td><td>{{.Due}}</td><td>{{.Value}}</td></tr>
{{end}}</tbody></table>{{end}}
</body></html>`))

type card struct {
	Label string
	Value string
}

type alertRow struct {
	billing.Alert
	Due   string
	Value string
}

type pdfView struct {
	Metrics dashboard.Metrics
	Money   Money
	Cards   []card
	Chart   template.HTML
	Alerts  []alertRow
}

// BuildHTML renders the report document.
func (p *PDFExporter) BuildHTML(m dashboard.Metrics) (string, error) {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	view := pdfView{
		Metrics: m,
		Money:   p.Money,
		Cards: []card{
			{"Revenue", p.Money.Format(m.Revenue)},
			{"Cost", p.Money.Format(m.Cost)},
			{"Net profit", p.Money.Format(m.NetProfit)},
			{"Margin", p.Money.Percent(m.Margin)},
			{"Received", p.Money.Format(m.ReceivedMonth)},
			{"Pending this month", p.Money.Format(m.PendingMonth)},
			{"Pending total", p.Money.Format(m.PendingTotal)},
			{"Stock value", p.Money.Format(m.StockValue)},
		},
	}
	if len(m.Daily) > 0 {
		labels := make([]string, len(m.Daily))
		revenue := make([]float64, len(m.Daily))
		profit := make([]float64, len(m.Daily))
		for i, d := range m.Daily {
			labels[i] = d.Day[len(d.Day)-2:]
			revenue[i] = d.Revenue
			profit[i] = d.Profit
		}
		svg, err := chart.Bars(0, 0, labels, []chart.Series{
			{Label: "Revenue", Values: revenue},
			{Label: "Profit", Values: profit},
		}, chart.Options{Title: "Daily revenue and profit"})
		if err != nil {
			return "", fmt.Errorf("daily chart: %w", err)
		}
		view.Chart = svg
	}
	for _, a := range m.Alerts {
		view.Alerts = append(view.Alerts, alertRow{
			Alert: a,
			Due:   a.DueDate.In(loc).Format("02/01/2006"),
			Value: p.Money.Format(a.Value),
		})
	}
	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderDashboard builds the report HTML and converts it to PDF.
func (p *PDFExporter) RenderDashboard(ctx context.Context, m dashboard.Metrics) ([]byte, error) {
	if p == nil || p.Renderer == nil {
		return nil, errors.New("pdf exporter not initialised")
	}
	html, err := p.BuildHTML(m)
	if err != nil {
		return nil, err
	}
	return p.Renderer.RenderHTML(ctx, html)
}
