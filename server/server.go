package server

import (
	"crypto/tls"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"

	"github.com/tomal-majumder/news-rag-agent/handlers"
)

type Config struct {
	Domains      []string
	CertCacheDir string
	HTTPPort     string
	HTTPSPort    string
}

func SetupRoutes(ask *handlers.AskHandler, articles *handlers.ArticlesHandler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/ask", ask.Ask).Methods("POST")
	r.HandleFunc("/ask-stream", ask.AskStream).Methods("POST")

	r.HandleFunc("/articles", articles.List).Methods("GET")
	r.HandleFunc("/topics", articles.Topics).Methods("GET")
	r.HandleFunc("/stats", articles.Stats).Methods("GET")

	return r
}

// ServeProduction serves HTTPS with autocert-managed certificates and
// redirects plain HTTP to it.
func ServeProduction(n *negroni.Negroni, cfg Config, logger *slog.Logger) {
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.Domains...),
		Cache:      autocert.DirCache(cfg.CertCacheDir),
	}

	// Port 80 answers ACME challenges and redirects everything else.
	go func() {
		srv := &http.Server{
			Addr:         ":80",
			Handler:      autocertManager.HTTPHandler(nil),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		err := srv.ListenAndServe()
		log.Fatal(err)
	}()

	tlsConfig := &tls.Config{
		GetCertificate:   autocertManager.GetCertificate,
		CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPSPort,
		Handler:      n,
		TLSConfig:    tlsConfig,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	logger.Info("Serving HTTPS", slog.String("port", cfg.HTTPSPort))
	err := srv.ListenAndServeTLS("", "") // Key and cert provided automatically by autocert.
	log.Fatal(err)
}

// ServeDevelopment serves plain HTTP.
func ServeDevelopment(s *http.Server) {
	log.Fatal(s.ListenAndServe())
}
