package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/keller/digital-inputs/internal/input"
	"github.com/keller/digital-inputs/internal/status"
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
	"function": func(f int) string {
		return functionName(f)
	},
	"isCounter": func(f int) bool {
		return f == input.FunctionCounter
	},
	"isSensor": func(f int) bool {
		return f == input.FunctionLevelSensor
	},
	"volume": func(v float64) string {
		return input.FormatVolume(v)
	},
	"onOff": func(b bool) string {
		if b {
			return "active"
		}
		return "inactive"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Digital Inputs</title>
<style>
body { font-family: monospace; max-width: 700px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.active { color: green; font-weight: bold; }
.inactive { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Digital Inputs</h1>

<h2>Lines</h2>
{{if .Lines}}
<table>
<tr><th>#</th><th>Device</th><th>Function</th><th>Count</th><th>Value</th></tr>
{{range .Lines}}
<tr>
<td>{{.Line}}</td>
<td>{{.Path}}</td>
<td>{{function .Function}}{{if .Inverted}} (inverted){{end}}</td>
<td>{{.Count}}</td>
<td>{{if isCounter .Function}}{{volume .Aggregate}}{{else if isSensor .Function}}<span class="{{onOff .State}}">{{onOff .State}}</span> — {{.Type}}{{end}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No inputs enabled.</p>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Service base</th><td>{{.Config.ServiceBase}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Save interval</th><td>{{.Config.SaveInterval}}</td></tr>
<tr><th>Source</th><td>{{if .Config.Debug}}simulated{{else}}hardware{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> — <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
