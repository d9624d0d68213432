package web

import (
	"html/template"
	"io"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sweeney/bandswitch/internal/logic"
	"github.com/sweeney/bandswitch/internal/status"
)

type indexData struct {
	status.Snapshot
	Bands []bandRow
}

type bandRow struct {
	Name     string
	Selected bool
}

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		return humanize.RelTime(time.Time{}, time.Time{}.Add(d), "", "")
	},
	"since": func(start, now time.Time) string {
		return humanize.RelTime(start, now, "ago", "from now")
	},
	"count": func(n int) string {
		return humanize.Comma(int64(n))
	},
	"ms": func(ms int64) string {
		return (time.Duration(ms) * time.Millisecond).String()
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Amp Band Switch</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.selected { color: green; font-weight: bold; }
.idle { color: #888; }
.alarm { color: red; font-weight: bold; }
.ok { color: green; }
</style>
</head>
<body>
<h1>Amp Band Switch</h1>

<h2>State</h2>
<table>
<tr><th>Band</th><td id="band" class="selected">{{.Band}}</td></tr>
<tr><th>Mode</th><td id="mode">{{if .CATAuto}}CAT{{else}}manual{{end}}</td></tr>
<tr><th>Transmitting</th><td class="{{if .Transmitting}}alarm{{else}}idle{{end}}">{{if .Transmitting}}yes{{else}}no{{end}}</td></tr>
<tr><th>Heatsink</th><td id="temp" class="{{if .Safe}}ok{{else}}alarm{{end}}">{{.TemperatureC}}&deg;C{{if not .Safe}} OVER TEMPERATURE{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .Initialized}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Filters</h2>
<table>
{{range .Bands}}<tr><th>{{.Name}}</th><td class="{{if .Selected}}selected{{else}}idle{{end}}">{{if .Selected}}selected{{else}}-{{end}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}ok{{else}}alarm{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Band changes</th><td>{{count .Counts.BandChanges}}</td></tr>
<tr><th>CAT mode toggles</th><td>{{count .Counts.CATToggles}}</td></tr>
<tr><th>Temperature alarms</th><td>{{count .Counts.TempAlarms}}</td></tr>
<tr><th>Factory resets</th><td>{{count .Counts.FactoryResets}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}} ({{since .StartTime .Now}})</td></tr>
<tr><th>Poll</th><td>{{ms .Config.PollMs}}</td></tr>
<tr><th>Button refresh</th><td>{{ms .Config.RefreshMs}}</td></tr>
<tr><th>Long press</th><td>{{ms .Config.LongPressMs}}</td></tr>
<tr><th>Safety check</th><td>{{ms .Config.SafetyIntervalMs}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{ms .Config.HeartbeatMs}}{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := indexData{Snapshot: snap}
	for b := logic.Band160; b < logic.NumBands; b++ {
		data.Bands = append(data.Bands, bandRow{Name: b.String(), Selected: b == snap.Band})
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render: %v", err)
	}
}
