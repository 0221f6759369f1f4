package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/log"
	"shopledger/internal/session"
)

// page is the data envelope every template receives.
type page struct {
	Username string
	Role     core.Role
	IsAdmin  bool
	Error    string
	Notice   string
	Data     any
}

func (s *Server) pageData(sess *session.Session, data any) page {
	p := page{Data: data}
	if sess != nil {
		p.Username = sess.Username
		p.Role = sess.Role
		p.IsAdmin = sess.IsAdmin()
	}
	return p
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data page) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "template execution failed",
			log.FieldError, err.Error(), "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// confirmField is one hidden input replayed by the confirmation form.
type confirmField struct {
	Name  string
	Value string
}

type confirmPage struct {
	Prompt string
	Action string
	Fields []confirmField
}

// renderConfirm shows the blocking confirmation page. Submitting it replays
// the original form values to the same action with confirmed=true added.
func (s *Server) renderConfirm(w http.ResponseWriter, r *http.Request, sess *session.Session, prompt, action string) {
	data := confirmPage{Prompt: prompt, Action: action}
	for name, values := range r.PostForm {
		if name == "confirmed" || len(values) == 0 {
			continue
		}
		data.Fields = append(data.Fields, confirmField{Name: name, Value: values[0]})
	}
	data.Fields = append(data.Fields, confirmField{Name: "confirmed", Value: "true"})
	s.render(w, r, "confirm.html", s.pageData(sess, data))
}

func postOnly(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return false
	}
	return true
}

func formValue(r *http.Request, name string) string {
	return sanitizeInput(r.PostFormValue(name))
}

func confirmed(r *http.Request) bool {
	return r.PostFormValue("confirmed") == "true"
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseProductQuery builds a validated-later product query from the URL.
func parseProductQuery(r *http.Request) ports.ProductQuery {
	q := r.URL.Query()
	pq := ports.ProductQuery{
		Search:   strings.TrimSpace(q.Get("search")),
		Category: strings.TrimSpace(q.Get("category")),
		Status:   core.ProductStatus(q.Get("status")),
		SortBy:   q.Get("sortBy"),
		Order:    q.Get("order"),
	}
	if v := strings.TrimSpace(q.Get("minPrice")); v != "" {
		if n, err := core.ParseAmount(v); err == nil {
			pq.MinPrice = &n
		} else {
			neg := int64(-1)
			pq.MinPrice = &neg // force a validation error downstream
		}
	}
	if v := strings.TrimSpace(q.Get("maxPrice")); v != "" {
		if n, err := core.ParseAmount(v); err == nil {
			pq.MaxPrice = &n
		} else {
			neg := int64(-1)
			pq.MaxPrice = &neg
		}
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		pq.Page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		pq.Limit = n
	}
	return pq
}

// userMessage turns an error into text fit for the page. Upstream failures
// show the server-supplied message when there is one.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *ports.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func urlEscape(s string) string {
	return url.QueryEscape(s)
}

func (s *Server) redirectWithError(w http.ResponseWriter, r *http.Request, target string, err error) {
	if err != nil {
		target += "?error=" + urlEscape(userMessage(err))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// parseDate parses a YYYY-MM-DD form date, defaulting to now.
func parseDate(s string) time.Time {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC()
	}
	return time.Now().UTC()
}
