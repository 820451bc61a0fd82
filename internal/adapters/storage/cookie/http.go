package cookie

import (
	"net/http"
	"strings"
)

// HTTPDocument exposes a request's cookies as a Document. Writes are sent as
// Set-Cookie headers and are visible to later reads in the same request.
type HTTPDocument struct {
	w   http.ResponseWriter
	jar *Jar
}

var _ Document = (*HTTPDocument)(nil)

func NewHTTPDocument(w http.ResponseWriter, r *http.Request) *HTTPDocument {
	jar := NewJar(nil)
	for _, header := range r.Header.Values("Cookie") {
		for _, part := range strings.Split(header, ";") {
			part = strings.TrimSpace(part)
			eq := strings.IndexByte(part, '=')
			if eq <= 0 {
				continue
			}
			if _, seen := jar.entries[part[:eq]]; seen {
				continue
			}
			jar.set(part[:eq], jarEntry{value: part[eq+1:]})
		}
	}

	return &HTTPDocument{w: w, jar: jar}
}

func (d *HTTPDocument) Cookie() string {
	return d.jar.Cookie()
}

func (d *HTTPDocument) SetCookie(raw string) {
	d.w.Header().Add("Set-Cookie", raw)
	d.jar.SetCookie(raw)
}
