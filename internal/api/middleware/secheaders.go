package middleware

import (
	"net/http"
	"strings"
)

// cspDirectives mirror the policy the frontend was built against: inline
// styles plus the Tailwind/FontAwesome CDNs, and the OpenAI API as the only
// external connect target.
var cspDirectives = []string{
	"default-src 'self'",
	"style-src 'self' 'unsafe-inline' https://cdn.tailwindcss.com https://cdnjs.cloudflare.com https://use.fontawesome.com",
	"script-src 'self' 'unsafe-inline' https://cdn.tailwindcss.com",
	"img-src 'self' data: https:",
	"font-src 'self' https://fonts.gstatic.com https://cdnjs.cloudflare.com https://use.fontawesome.com",
	"connect-src 'self' https://api.openai.com",
	"frame-src 'none'",
	"object-src 'none'",
}

var cspHeader = strings.Join(cspDirectives, "; ")

// SecurityHeaders sets the CSP and the standard hardening headers on every
// response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", cspHeader)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
