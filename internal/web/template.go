package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/supercycler/internal/history"
	"github.com/sweeney/supercycler/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateClass": func(s string) string {
		switch s {
		case "ON":
			return "on"
		case "OFF":
			return "off"
		}
		return "unknown"
	},
	"stamp": func(t time.Time) string {
		return t.Format("02/01/2006 15:04")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Supercycler</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.error { color: red; }
</style>
</head>
<body>
<h1>Supercycler</h1>

<h2>Light</h2>
<table>
<tr><th>State</th><td id="state" class="{{stateClass .State}}">{{.State}}</td></tr>
{{with .Report.Next}}<tr><th>Next</th><td>{{.State}} at {{stamp .Instant}} in {{.WholeHours}}h ({{printf "%.2f" .HoursRemaining}}h)</td></tr>{{end}}
{{if .Evaluated}}<tr><th>Flowering day</th><td>{{.Report.FloweringDay}} (week {{.Report.FloweringWeek}})</td></tr>
{{if not .Report.Start.IsZero}}<tr><th>Started</th><td>{{stamp .Report.Start}}</td></tr>{{end}}{{end}}
{{if .Report.CycleKnown}}<tr><th>Cycle</th><td>{{.Report.Cycle.OnHours}}h on / {{.Report.Cycle.OffHours}}h off ({{.Report.VirtualDayLength}}h day)</td></tr>{{end}}
{{if .LastError}}<tr><th>Error</th><td class="error">{{.LastError}}</td></tr>{{end}}
{{range .Report.Problems}}<tr><th>Warning</th><td class="unknown">{{.}}</td></tr>{{end}}
</table>

<h2>Commands</h2>
<table>
{{range .History}}<tr><th>{{stamp .At}}</th><td class="{{stateClass (printf "%s" .State)}}">{{.State}} ({{.Mode}}){{if not .OK}} <span class="error">failed: {{.Error}}</span>{{end}}</td></tr>
{{else}}<tr><td>none yet</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>Device</th><td>{{.Config.Device}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Events file</th><td>{{.Config.EventsFile}}</td></tr>
<tr><th>Timezone</th><td>{{.Config.Timezone}}</td></tr>
<tr><th>Schedule</th><td>{{.Config.Schedule}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/history.json">History</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, entries []history.Entry) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	state := string(snap.Report.Current)
	if !snap.Evaluated || state == "" {
		state = "UNKNOWN"
	}
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		State   string
		History []history.Entry
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		State:    state,
		History:  entries,
	}
	return indexTmpl.Execute(w, data)
}
