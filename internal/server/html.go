package server

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"accentscope/internal/api"
	"accentscope/internal/logging"
	"accentscope/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"percent": func(v float64) string { return fmt.Sprintf("%.2f%%", v) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

type pageData struct {
	MaxUploadMB int
	Extensions  []string
	TokenNeeded bool
	Result      *api.AnalysisResponse
	Error       *api.ErrorResponse
}

func (s *Server) basePage() pageData {
	return pageData{
		MaxUploadMB: s.cfg.Media.MaxUploadMB,
		Extensions:  s.cfg.Media.AllowedExtensions,
		TokenNeeded: s.cfg.Paths.APIToken != "",
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "index.html", s.basePage())
}

func (s *Server) handleAnalyzeForm(w http.ResponseWriter, r *http.Request) {
	ctx, requestID := withRequestID(r.Context())
	page := s.basePage()

	req, cleanup, err := s.readRequest(w, r)
	defer cleanup()
	if token := strings.TrimSpace(s.cfg.Paths.APIToken); token != "" {
		presented := bearerToken(r)
		if presented == "" {
			presented = strings.TrimSpace(r.FormValue("token"))
		}
		if !tokenMatches(token, presented) {
			denied := unauthorizedResponse()
			denied.Hint = "enter the access token configured for this server"
			denied.RequestID = requestID
			page.Error = &denied
			s.render(w, http.StatusUnauthorized, "result.html", page)
			return
		}
	}
	if err == nil {
		report, analyzeErr := s.analyzer.Analyze(ctx, req, nil)
		if analyzeErr == nil {
			dto := api.FromReport(report)
			page.Result = &dto
			s.render(w, http.StatusOK, "result.html", page)
			return
		}
		err = analyzeErr
	}
	dto := api.FromError(err, requestID)
	page.Error = &dto
	s.render(w, statusForCategory(services.Category(dto.Category)), "result.html", page)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render template", logging.String("template", name), logging.Error(err))
	}
}
