package api

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/banshee-data/wallwatch/internal/dashboard"
	"github.com/banshee-data/wallwatch/internal/httputil"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.SiteTitle}}</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 0; background: #fafafa; }
  header { padding: 12px 16px; background: #263238; color: #eceff1; }
  form { display: flex; gap: 16px; align-items: center; padding: 12px 16px; flex-wrap: wrap; }
  label { display: flex; gap: 6px; align-items: center; }
  input[type=text] { width: 280px; }
  input[type=number] { width: 70px; }
  iframe { width: 100%; height: 840px; border: none; }
</style>
</head>
<body>
<header><h2>{{.SiteTitle}}</h2></header>
<form id="controls" onsubmit="return false">
  <label>Walls <input id="names" type="text" value="{{.Inputs.NameFilter}}" placeholder="comma separated"></label>
  <label>Days <input id="days" type="number" min="1" step="1" value="{{.Inputs.Days}}"></label>
  <label><input id="percent" type="checkbox"{{if .Inputs.UsePercent}} checked{{end}}> Percent full</label>
  <a id="png" href="/chart.png?{{.Query}}">PNG</a>
  <a id="json" href="/api/chart?{{.Query}}">JSON</a>
</form>
<iframe id="chart" src="/chart?{{.Query}}"></iframe>
<script>
(function () {
  var names = document.getElementById('names');
  var days = document.getElementById('days');
  var percent = document.getElementById('percent');
  var timer = null;

  function refresh() {
    var d = parseInt(days.value, 10);
    if (!(d >= 1)) { return; }
    var q = new URLSearchParams({names: names.value, days: String(d), percent: percent.checked ? 'true' : 'false'}).toString();
    document.getElementById('chart').src = '/chart?' + q;
    document.getElementById('png').href = '/chart.png?' + q;
    document.getElementById('json').href = '/api/chart?' + q;
  }

  names.addEventListener('input', function () {
    clearTimeout(timer);
    timer = setTimeout(refresh, {{.DebounceMillis}});
  });
  days.addEventListener('input', refresh);
  percent.addEventListener('change', refresh);
})();
</script>
</body>
</html>
`))

// debounceMillis delays chart reloads while the wall filter is being typed.
const debounceMillis = 500

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.NotFound(w, fmt.Sprintf("no route for %s", r.URL.Path))
		return
	}
	if !httputil.RequireGET(w, r) {
		return
	}
	in, err := s.parseInputs(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	q := url.Values{}
	q.Set("names", in.NameFilter)
	q.Set("days", strconv.Itoa(in.Days))
	q.Set("percent", strconv.FormatBool(in.UsePercent))

	site := s.pipeline.SiteTitle
	if site == "" {
		site = dashboard.DefaultSiteTitle
	}

	var buf bytes.Buffer
	err = indexTemplate.Execute(&buf, map[string]interface{}{
		"SiteTitle":      site,
		"Inputs":         in,
		"Query":          template.URL(q.Encode()),
		"DebounceMillis": debounceMillis,
	})
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render page: %v", err))
		return
	}
	httputil.WriteHTML(w, buf.Bytes())
}
