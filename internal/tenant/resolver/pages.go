package resolver

import (
	"html/template"
	"net/http"
)

// Resolver failures render server-side pages, not JSON: the audience is a
// person who typed a marketplace URL, not an API consumer.

var notRegisteredPage = template.Must(template.New("not_registered").Parse(`<!DOCTYPE html>
<html>
<head><title>Marketplace Not Found</title></head>
<body>
  <h1>This marketplace is not registered</h1>
  <p>There is no marketplace at <strong>{{.Subdomain}}</strong>.{{if .Subdomain}} Check the address, or contact your institution's program administrator.{{end}}</p>
</body>
</html>
`))

var unavailablePage = template.Must(template.New("unavailable").Parse(`<!DOCTYPE html>
<html>
<head><title>Temporarily Unavailable</title></head>
<body>
  <h1>{{.Name}} is temporarily unavailable</h1>
  <p>This marketplace is not accepting visitors right now. Please try again later.</p>
</body>
</html>
`))

// writeNotRegistered renders the 404 page for an unknown subdomain. This is
// deliberately distinct from falling back to the default tenant: an unknown
// subdomain must never see another tenant's data.
func writeNotRegistered(w http.ResponseWriter, subdomain string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_ = notRegisteredPage.Execute(w, struct{ Subdomain string }{Subdomain: subdomain})
}

// writeUnavailable renders the 503 page for a pending or inactive tenant.
// The tenant exists, so the page says "unavailable", never "not found".
func writeUnavailable(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = unavailablePage.Execute(w, struct{ Name string }{Name: name})
}
