// This file is part of glulxcore.
//
// glulxcore is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// glulxcore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with glulxcore.  If not, see <https://www.gnu.org/licenses/>.

package vmstats

import (
	"bytes"
	"encoding/json"
	"net/http"
	"text/template"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"github.com/erkyrath/glulxcore/internal/logger"
)

// Dashboard serves a live statsview page with the VM's counters
// alongside statsview's own Go-runtime graphs. Off by default; a host
// enables it explicitly (cmd/glulxrun's -stats flag).
type Dashboard struct {
	mgr *statsview.ViewManager
}

// Serve starts the dashboard on addr (eg. "localhost:18066") in its own
// goroutine and returns immediately.
func Serve(addr string, c *Counters) *Dashboard {
	viewer.SetConfiguration(viewer.WithAddr(addr))

	mgr := statsview.New()
	mgr.Register(
		newCounterViewer("glulx_paths", "Path cache", "count", []series{
			{"hits", c.PathHits},
			{"compiles", c.PathCompiles},
		}),
		newCounterViewer("glulx_heap", "Heap / undo", "count", []series{
			{"heap blocks", c.HeapBlocks},
			{"undo depth", c.UndoDepth},
		}),
	)

	go func() {
		if err := mgr.Start(); err != nil {
			logger.Logf("vmstats", "dashboard stopped: %v", err)
		}
	}()
	logger.Logf("vmstats", "dashboard listening on %s", addr)

	return &Dashboard{mgr: mgr}
}

// Stop shuts the dashboard down.
func (d *Dashboard) Stop() {
	d.mgr.Stop()
}

type series struct {
	name string
	read func() int64
}

// counterViewer implements viewer.Viewer over a fixed set of counter
// readers, in the same shape as statsview's built-in viewers: View
// describes the chart, Serve feeds it fresh values on each poll.
type counterViewer struct {
	name  string
	graph *charts.Line
	data  []series
	smgr  *viewer.StatsMgr
}

// newBasicView mirrors statsview's own (unexported) viewer.newBasicView,
// built from the package's exported pieces since that helper isn't part
// of its public API.
func newBasicView(route string) *charts.Line {
	graph := charts.NewLine()
	graph.SetGlobalOptions(
		charts.WithLegendOpts(opts.Legend{Show: true}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
	)
	graph.SetXAxis([]string{}).SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: true}))
	graph.AddJSFuncs(genViewTemplate(graph.ChartID, route))
	return graph
}

// genViewTemplate mirrors statsview's own (unexported) viewer.genViewTemplate,
// using only the package's exported template and configuration accessors.
func genViewTemplate(vid, route string) string {
	tpl, err := template.New("view").Parse(viewer.DefaultTemplate)
	if err != nil {
		panic("vmstats: failed to parse view template: " + err.Error())
	}

	c := struct {
		Interval  int
		MaxPoints int
		Addr      string
		Route     string
		ViewID    string
	}{
		Interval:  viewer.Interval(),
		MaxPoints: viewer.DefaultMaxPoints,
		Addr:      viewer.LinkAddr(),
		Route:     route,
		ViewID:    vid,
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, c); err != nil {
		panic("vmstats: failed to execute view template: " + err.Error())
	}
	return buf.String()
}

func newCounterViewer(name, title, yname string, data []series) *counterViewer {
	graph := newBasicView(name)
	graph.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithYAxisOpts(opts.YAxis{Name: yname}),
	)
	for _, s := range data {
		graph.AddSeries(s.name, []opts.LineData{})
	}
	return &counterViewer{name: name, graph: graph, data: data}
}

func (v *counterViewer) SetStatsMgr(smgr *viewer.StatsMgr) {
	v.smgr = smgr
}

func (v *counterViewer) Name() string {
	return v.name
}

func (v *counterViewer) View() *charts.Line {
	return v.graph
}

func (v *counterViewer) Serve(w http.ResponseWriter, _ *http.Request) {
	values := make([]float64, len(v.data))
	for i, s := range v.data {
		values[i] = float64(s.read())
	}
	metrics := viewer.Metrics{
		Values: values,
		Time:   time.Now().Format(time.RFC3339),
	}

	b, _ := json.Marshal(metrics)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}
