// Package views renders the server's HTML pages as templ components.
package views

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/inspections/internal/core"
)

// DashboardData is everything the dashboard shows.
type DashboardData struct {
	Analytics core.Analytics
	Recent    []core.Inspection
	Snapshot  *SnapshotInfo // nil when the server runs without snapshot files
}

// SnapshotInfo summarises the last snapshot load.
type SnapshotInfo struct {
	Source    string
	LoadedAt  string
	Drift     bool
	LastError string
}

// VehicleListData is the vehicle list page.
type VehicleListData struct {
	Rows      []core.VehicleRow
	Divisions []string
	Filter    core.VehicleFilter
}

// HistoryData is one vehicle's inspection history.
type HistoryData struct {
	Vehicle     core.Vehicle
	Inspections []core.Inspection
}

// writer collects the first write error so components can write freely.
type writer struct {
	w   io.Writer
	err error
}

func (p *writer) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *writer) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *writer) component(ctx context.Context, c templ.Component) {
	if p.err == nil {
		p.err = c.Render(ctx, p.w)
	}
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(title)
		p.raw(` | Vehicle Inspections</title></head><body>`)
		p.raw(`<nav><a href="/">Dashboard</a> <a href="/vehicles">Vehicles</a></nav><main>`)
		p.component(ctx, body)
		p.raw(`</main></body></html>`)
		return p.err
	})
}

// Dashboard shows the summary counts and the latest inspections.
func Dashboard(d DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.raw(`<h1>Dashboard</h1><section class="stats">`)
		stat(p, "Total vehicles", d.Analytics.TotalVehicles)
		stat(p, "Total inspections", d.Analytics.TotalInspections)
		stat(p, "Passed", d.Analytics.PassedInspections)
		stat(p, "Action required", d.Analytics.ActionRequiredInspections)
		stat(p, "Vehicles inspected", d.Analytics.TotalVehiclesInspected)
		stat(p, "Not inspected", d.Analytics.TotalVehiclesNotInspected)
		p.raw(`</section>`)

		p.raw(`<section><h2>Recent activity</h2>`)
		if len(d.Recent) == 0 {
			p.raw(`<p class="empty">No inspections recorded yet.</p>`)
		} else {
			p.raw(`<table><thead><tr><th>Inspection</th><th>Door No.</th><th>Plate No.</th><th>Date</th><th>Inspector</th><th>Status</th></tr></thead><tbody>`)
			for _, in := range d.Recent {
				p.raw(`<tr><td>`)
				p.text(in.InspectionID)
				p.raw(`</td><td>`)
				p.text(in.DoorNo)
				p.raw(`</td><td>`)
				p.text(in.PlateNo)
				p.raw(`</td><td>`)
				p.text(in.InspectionDate)
				p.raw(`</td><td>`)
				p.text(in.InspectorName)
				p.raw(`</td><td>`)
				badge(p, in.OverallStatus)
				p.raw(`</td></tr>`)
			}
			p.raw(`</tbody></table>`)
		}
		p.raw(`</section>`)

		if s := d.Snapshot; s != nil {
			p.raw(`<footer class="snapshot">Data from `)
			p.text(s.Source)
			p.raw(`, loaded `)
			p.text(s.LoadedAt)
			if s.Drift {
				p.raw(`. <strong>Stored analytics did not match the records; counts above are recomputed.</strong>`)
			}
			if s.LastError != "" {
				p.raw(`. Last reload failed: `)
				p.text(s.LastError)
			}
			p.raw(`</footer>`)
		}
		return p.err
	})
}

func stat(p *writer, label string, n int) {
	p.raw(`<div class="stat"><span class="label">`)
	p.text(label)
	p.raw(`</span><span class="value">`)
	p.raw(strconv.Itoa(n))
	p.raw(`</span></div>`)
}

func badge(p *writer, s core.Status) {
	class := "status-none"
	switch s {
	case core.StatusPassed:
		class = "status-passed"
	case core.StatusActionRequired:
		class = "status-action"
	}
	p.raw(`<span class="badge ` + class + `">`)
	p.text(string(s))
	p.raw(`</span>`)
}

// VehicleList shows the filter form and the matching vehicles.
func VehicleList(d VehicleListData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.raw(`<h1>Vehicles</h1><form method="get" action="/vehicles">`)
		p.raw(`<input type="search" name="search" placeholder="Door or plate number" value="`)
		p.text(d.Filter.Search)
		p.raw(`"><select name="division"><option value="">All divisions</option>`)
		for _, div := range d.Divisions {
			p.raw(`<option value="`)
			p.text(div)
			p.raw(`"`)
			if div == d.Filter.Division {
				p.raw(` selected`)
			}
			p.raw(`>`)
			p.text(div)
			p.raw(`</option>`)
		}
		p.raw(`</select><button type="submit">Filter</button></form>`)

		if len(d.Rows) == 0 {
			p.raw(`<p class="empty">No vehicles match.</p>`)
			return p.err
		}

		p.raw(`<table><thead><tr><th>Door No.</th><th>Plate No.</th><th>Division / Unit</th><th>Type</th><th>Size</th><th>Last inspection</th><th>Status</th><th></th></tr></thead><tbody>`)
		for _, row := range d.Rows {
			p.raw(`<tr><td>`)
			p.text(row.DoorNo)
			p.raw(`</td><td>`)
			p.text(row.PlateNo)
			p.raw(`</td><td>`)
			p.text(row.DivisionUnit())
			p.raw(`</td><td>`)
			p.text(row.VehicleType)
			p.raw(`</td><td>`)
			p.text(row.VehicleSize.Label())
			p.raw(`</td><td>`)
			p.text(row.LastInspectionDate)
			p.raw(`</td><td>`)
			badge(p, row.LastStatus)
			p.raw(`</td><td><a href="`)
			p.text(historyURL(row.ID))
			p.raw(`">History</a></td></tr>`)
		}
		p.raw(`</tbody></table>`)
		return p.err
	})
}

func historyURL(id int64) string {
	return "/vehicles/" + url.PathEscape(strconv.FormatInt(id, 10)) + "/history"
}

// History shows the inspections of one vehicle, newest first.
func History(d HistoryData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		v := d.Vehicle
		p.raw(`<h1>Inspection history</h1><dl>`)
		field(p, "Door No.", v.DoorNo)
		field(p, "Plate No.", v.PlateNo)
		field(p, "Division / Unit", v.DivisionUnit())
		field(p, "Type", v.VehicleType)
		field(p, "Size", v.VehicleSize.Label())
		field(p, "Odometer", strconv.FormatInt(v.Odometer, 10))
		field(p, "Status", v.Status)
		p.raw(`</dl>`)

		if len(d.Inspections) == 0 {
			p.raw(`<p class="empty">This vehicle has not been inspected.</p>`)
			return p.err
		}

		for _, in := range d.Inspections {
			p.raw(`<article class="inspection"><header>`)
			p.text(in.InspectionID)
			p.raw(` · `)
			p.text(in.InspectionDate)
			p.raw(` `)
			badge(p, in.OverallStatus)
			p.raw(`</header><p>Inspector: `)
			p.text(in.InspectorName)
			p.raw(` · Supervisor: `)
			p.text(in.SupervisorName)
			p.raw(` · Issues: `)
			p.raw(strconv.Itoa(in.IssuesFound))
			p.raw(`</p>`)
			if in.VehicleCondition != nil && in.VehicleCondition.Observation != "" {
				p.raw(`<p class="observation">`)
				p.text(in.VehicleCondition.Observation)
				p.raw(`</p>`)
			}
			issues(p, in.SafetyEquipment)
			p.raw(`</article>`)
		}
		return p.err
	})
}

func field(p *writer, label, value string) {
	p.raw(`<dt>`)
	p.text(label)
	p.raw(`</dt><dd>`)
	p.text(value)
	p.raw(`</dd>`)
}

// issues lists the equipment items marked Action Required, in checklist order.
func issues(p *writer, equipment map[string]core.EquipmentCheck) {
	var open bool
	for _, item := range core.EquipmentItems {
		check, ok := equipment[item]
		if !ok || check.Condition != core.ConditionActionRequired {
			continue
		}
		if !open {
			p.raw(`<ul class="issues">`)
			open = true
		}
		p.raw(`<li>`)
		p.text(item)
		if check.Observation != "" {
			p.raw(`: `)
			p.text(check.Observation)
		}
		p.raw(`</li>`)
	}
	if open {
		p.raw(`</ul>`)
	}
}

// ErrorAlert is the error fragment returned to HTMX requests and error pages.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.raw(`<div class="alert alert-error" role="alert"><strong>`)
		p.text(message)
		p.raw(`</strong>`)
		if action != "" {
			p.raw(` <span>`)
			p.text(action)
			p.raw(`</span>`)
		}
		p.raw(fmt.Sprintf(` <code>%s</code></div>`, templ.EscapeString(code)))
		return p.err
	})
}
