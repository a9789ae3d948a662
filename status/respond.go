package status

import (
	"net/http"
	"net/url"
)

// Response is the transport-free shape of an error response: the host
// copies these fields onto whatever connection object it owns.
type Response struct {
	StatusCode  int
	ContentType string
	Location    string
	Body        []byte
}

// Respond applies the redirect-on-error policy. A `default` query parameter
// (or the deprecated `errorredirect` alias) names a redirect destination;
// the literal value "1" reuses the originally requested upstream URL, and a
// host-configured default image applies when the request names nothing.
// Only absolute http(s) URLs redirect; the JSON error body is attached in
// every case.
func Respond(st *Status, query url.Values, upstreamURL, defaultImage string) Response {
	resp := Response{
		StatusCode:  st.Code.HTTPStatus(),
		ContentType: "application/json",
		Body:        st.Body(),
	}

	redirect := query.Get("default")
	if redirect == "" {
		redirect = query.Get("errorredirect")
	}
	if redirect == "" {
		redirect = defaultImage
	}
	if redirect == "" {
		return resp
	}

	dest := redirect
	if redirect == "1" {
		dest = upstreamURL
	}
	if u, err := url.Parse(dest); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		resp.Location = u.String()
		resp.StatusCode = http.StatusFound
	}
	return resp
}
