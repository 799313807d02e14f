package http

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"boss-timer-api/internal/config"

	"github.com/PuerkitoBio/goquery"
)

// ClientConfig is the runtime configuration handed to the browser page as
// window.CONFIG. The remote access key is never exposed.
type ClientConfig struct {
	UseServerStorage bool   `json:"useServerStorage"`
	SyncInterval     int64  `json:"syncInterval"` // milliseconds
	EnableRealtime   bool   `json:"enableRealtime"`
	APIBase          string `json:"apiBase"`
	EventsPath       string `json:"eventsPath"`
}

// Page serves the static entry page with the client config injected into <head>.
type Page struct {
	path string
	cfg  ClientConfig
}

func NewPage(cfg config.Config) *Page {
	return &Page{
		path: cfg.IndexPage,
		cfg: ClientConfig{
			UseServerStorage: cfg.UseServerStorage,
			SyncInterval:     cfg.SyncInterval.Milliseconds(),
			EnableRealtime:   cfg.EnableRealtime,
			APIBase:          "/api",
			EventsPath:       "/api/events",
		},
	}
}

// Assets serves the files next to the entry page.
func (p *Page) Assets() http.Handler {
	return http.FileServer(http.Dir(filepath.Dir(p.path)))
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	html, err := p.Render()
	if os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("page: render %s: %v", p.path, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

// Render reads the entry page and returns it with the config script appended
// to its head.
func (p *Page) Render() (string, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", err
	}

	raw, err := json.Marshal(p.cfg)
	if err != nil {
		return "", err
	}
	doc.Find("head").AppendHtml(fmt.Sprintf(`<script id="boss-timer-config">window.CONFIG = %s;</script>`, raw))

	return doc.Html()
}
