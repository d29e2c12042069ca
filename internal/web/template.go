package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/pir-monitor/internal/mqtt"
	"github.com/sweeney/pir-monitor/internal/status"
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
	"door": status.DoorText,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>PIR Monitor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.indicator { display: inline-block; width: 48px; height: 48px; border-radius: 50%; vertical-align: middle; }
.indicator.active { background: red; }
.indicator.idle { background: #888; }
.open { color: orange; font-weight: bold; }
.closed { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>PIR Monitor{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<p><span id="motion" class="indicator {{if .Sensor.MotionActive}}active{{else}}idle{{end}}" title="motion"></span></p>
<p id="door" class="{{if .Sensor.DoorOpen}}open{{else}}closed{{end}}">Door {{door .Sensor.DoorOpen}}</p>
<p>PIR events since reset: <span id="count">{{.Sensor.EventCount}}</span></p>
<p id="gpio">{{.GPIOStatus}}</p>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Pins</th><td>motion {{.Config.Pins.Motion}}, led {{.Config.Pins.LED}}, door {{.Config.Pins.Door}}, reset {{.Config.Pins.Reset}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Config.WSBroker}}
<script src="{{.ScriptURL}}"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "{{.StateTopic}}";
  var dot = document.getElementById("live-dot");
  var motionEl = document.getElementById("motion");
  var doorEl = document.getElementById("door");
  var countEl = document.getElementById("count");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (msg.state) {
        motionEl.className = "indicator " + (msg.state.motion === "ACTIVE" ? "active" : "idle");
        doorEl.className = msg.state.door === "OPEN" ? "open" : "closed";
        doorEl.textContent = "Door " + msg.state.door;
        countEl.textContent = msg.state.event_count;
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, scriptURL string) error {
	// Snapshot has an Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime     time.Duration
		StateTopic string
		ScriptURL  string
	}{
		Snapshot:   snap,
		Uptime:     snap.Uptime(),
		StateTopic: mqtt.TopicState,
		ScriptURL:  scriptURL,
	}
	return indexTmpl.Execute(w, data)
}
