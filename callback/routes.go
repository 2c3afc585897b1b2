package callback

import (
	"fmt"
	"html"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	closePage = `<!doctype html><html><body><p>%s</p><p>You can close this window and return to Dashboarrd.</p></body></html>`
)

func (s *Server) initRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.LoggingMiddleware)
	s.router.Use(FrameSecurityMiddleware)

	s.RegisterRouteFunc(http.MethodGet, s.path, s.RedirectHandler())
	s.RegisterRouteFunc(http.MethodPost, s.path, s.RedirectHandler()) // For form_post response mode
}

// RedirectHandler captures the first redirect. Later hits are answered but ignored.
func (s *Server) RedirectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue works for both query params and POST form data
		res := Result{
			Code:             r.FormValue("code"),
			State:            r.FormValue("state"),
			Error:            r.FormValue("error"),
			ErrorDescription: r.FormValue("error_description"),
		}

		if res.Code == "" && res.Error == "" {
			http.Error(w, "Missing code parameter", http.StatusBadRequest)
			return
		}

		s.once.Do(func() {
			s.results <- res
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := res.Err(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, closePage, html.EscapeString(err.Error()))
			return
		}
		_, _ = fmt.Fprintf(w, closePage, "Login received, finishing sign-in in Dashboarrd.")
	}
}

func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.env == "DEV" {
			logRoute(r.Method, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

func FrameSecurityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent embedding on other sites
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'self'")
		next.ServeHTTP(w, r)
	})
}
