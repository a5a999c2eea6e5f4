package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/mh106/internal/compose"
	"github.com/sweeney/mh106/internal/shiftreg"
	"github.com/sweeney/mh106/internal/signal"
	"github.com/sweeney/mh106/internal/status"
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
	"level": func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>MH106</title>
<style>
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 30%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.pins td { text-align: center; }
.pins th { width: auto; }
</style>
</head>
<body>
<h1>MH106 emulator</h1>

<h2>Loop</h2>
<table>
<tr><th>State</th><td class="{{if .Running}}on{{else}}off{{end}}">{{if .Running}}running{{else}}stopped{{end}}</td></tr>
{{if .LastError}}<tr><th>Last error</th><td class="disconnected">{{.LastError}}</td></tr>{{end}}
<tr><th>Iterations</th><td>{{.Iterations}}</td></tr>
<tr><th>Rate</th><td>{{printf "%.0f" .Rate}}/s</td></tr>
<tr><th>Frame</th><td>{{.FrameHex}} ({{.FrameBits}})</td></tr>
<tr><th>CAL</th><td class="{{if .CAL}}on{{else}}off{{end}}">{{level .CAL}}</td></tr>
<tr><th>STROBE_OUT</th><td class="{{if .Strobe}}on{{else}}off{{end}}">{{level .Strobe}}</td></tr>
</table>

<h2>Inputs</h2>
<table class="pins">
<tr>{{range .InputRows}}<th>{{.Name}}<br>GPIO{{.Pin}}</th>{{end}}</tr>
<tr>{{range .InputRows}}<td class="{{if .On}}on{{else}}off{{end}}">{{level .On}}</td>{{end}}</tr>
</table>

<h2>Registers</h2>
{{range .Registers}}
<table class="pins">
<tr><th>R{{.N}}</th>{{range .Pins}}<th>Q{{.Q}}<br>{{.Name}}</th>{{end}}</tr>
<tr><td></td>{{range .Pins}}<td class="{{if .On}}on{{else}}off{{end}}">{{level .On}}</td>{{end}}</tr>
</table>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Backend</th><td>{{.Config.Backend}}</td></tr>
<tr><th>Wiring</th><td>{{.Config.Wiring}}</td></tr>
<tr><th>Logic</th><td>{{.Config.Logic}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

type pinView struct {
	Q    int
	Pin  int
	Name string
	On   bool
}

type registerView struct {
	N    int
	Pins []pinView
}

// registerViews lays the frame out by physical register pin. Register 1 is
// the one fed by the data line.
func registerViews(f shiftreg.Frame, w *compose.Wiring) []registerView {
	regs := make([]registerView, shiftreg.Registers)
	for r := range regs {
		regs[r].N = r + 1
		for q := 0; q < 8; q++ {
			pos := shiftreg.FrameBits - 1 - (r*8 + q)
			name := fmt.Sprintf("bit %d", pos)
			if w != nil {
				name = w.At(pos).String()
			}
			regs[r].Pins = append(regs[r].Pins, pinView{Q: q, Name: name, On: f[pos]})
		}
	}
	return regs
}

func renderHTML(w io.Writer, snap status.Snapshot, wiring *compose.Wiring) {
	var inputs []pinView
	for _, in := range signal.Inputs() {
		inputs = append(inputs, pinView{Pin: in.Pin(), Name: in.String(), On: snap.Inputs.Get(in)})
	}
	cal, strobe := snap.Direct()

	// Snapshot has methods but the template is easier to read with fields.
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		Rate      float64
		FrameHex  string
		FrameBits string
		CAL       bool
		Strobe    bool
		InputRows []pinView
		Registers []registerView
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		Rate:      snap.Rate(),
		FrameHex:  snap.Frame.String(),
		FrameBits: snap.Frame.Bits(),
		CAL:       cal,
		Strobe:    strobe,
		InputRows: inputs,
		Registers: registerViews(snap.Frame, wiring),
	}
	indexTmpl.Execute(w, data)
}
