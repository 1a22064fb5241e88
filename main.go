package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"tienda-web/apiclient"
	"tienda-web/config"
	"tienda-web/core"
	"tienda-web/designer"
	"tienda-web/handlers/api/admin"
	"tienda-web/handlers/api/catalog"
	"tienda-web/handlers/api/designs"
	"tienda-web/handlers/api/kv"
	"tienda-web/handlers/auth"
	"tienda-web/handlers/websocket"
	appMiddleware "tienda-web/middleware"
	"tienda-web/stores"
	"tienda-web/surface"
	"tienda-web/validation"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

//go:embed all:frontend
var ui embed.FS

// adminPages are the client routes only an admin may open.
var adminPages = []string{
	"/admin",
	"/admin/products/new",
	"/admin/products/{id}/edit",
	"/admin/images/orphaned",
}

// handleUI serves the embedded page shell. Unknown paths without an
// extension are client routes and get index.html.
func handleUI() http.HandlerFunc {
	sub, err := fs.Sub(ui, "frontend")
	if err != nil {
		panic(err)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}

		f, err := sub.Open(name)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) || strings.Contains(path.Base(name), ".") {
				http.NotFound(w, r)
				return
			}
			name = "index.html"
			if f, err = sub.Open(name); err != nil {
				http.Error(w, "File not found", http.StatusNotFound)
				return
			}
		}
		defer f.Close()

		content, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "Error reading file", http.StatusInternalServerError)
			return
		}

		contentType := mime.TypeByExtension(path.Ext(name))
		if contentType == "" {
			contentType = http.DetectContentType(content)
		}
		w.Header().Set("Content-Type", contentType)
		if _, err := w.Write(content); err != nil {
			logrus.WithError(err).WithField("path", name).Warn("Failed to serve file")
		}
	}
}

type app struct {
	cfg      *config.Config
	store    stores.Store
	clients  *apiclient.Factory
	assets   *designer.Assets
	fonts    *designer.FontLoader
	sessions *designer.Registry
	validate *validation.Validator
}

func setupRouter(a *app) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(appMiddleware.Recover)
	r.Use(appMiddleware.Visitor)

	requireAdmin := appMiddleware.RequireAdmin(a.store)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           300, // Maximum value not ignored by any of major browsers
		}))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalog.HandleListProducts(a.clients))
			r.Get("/featured", catalog.HandleFeatured(a.clients))
			r.Get("/search", catalog.HandleSearch(a.clients))
			r.Get("/{id}", catalog.HandleGetProduct(a.clients, a.cfg.Contact, a.cfg.SiteURL))
		})
		r.Get("/catalog/filters", catalog.HandleFilters)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", auth.HandleLogin(a.clients, a.validate))
			r.Post("/logout", auth.HandleLogout(a.clients))
			r.Get("/session", auth.HandleSession(a.clients))
		})

		r.Route("/kv", func(r chi.Router) {
			r.Get("/", kv.HandleListItems(a.store))
			r.Route("/{key}", func(r chi.Router) {
				r.Get("/", kv.HandleGetItem(a.store))
				r.Put("/", kv.HandleSaveItem(a.store))
				r.Delete("/", kv.HandleDeleteItem(a.store))
			})
		})

		r.Route("/designer", func(r chi.Router) {
			r.Get("/templates", designs.HandleTemplates(a.assets))
			r.Get("/colors", designs.HandleColors(a.assets))
			r.Get("/fonts", designs.HandleFonts(a.assets, a.fonts))
			r.Get("/sessions", designs.HandleSessions(a.sessions))
			r.Post("/export", designs.HandleExport(a.sessions, a.store, a.cfg.Contact, a.cfg.SiteURL))
			r.Get("/exports/{id}", designs.HandleGetExport(a.store))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Route("/products", func(r chi.Router) {
				r.Get("/", admin.HandleListProducts(a.clients))
				r.Post("/", admin.HandleCreateProduct(a.clients, a.validate))
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", admin.HandleGetProduct(a.clients))
					r.Patch("/", admin.HandleUpdateProduct(a.clients, a.validate))
					r.Delete("/", admin.HandleDeleteProduct(a.clients))
				})
			})
			r.Post("/upload", admin.HandleUpload(a.clients))
			r.Route("/images", func(r chi.Router) {
				r.Get("/orphaned", admin.HandleListOrphaned(a.clients))
				r.Delete("/{filename}", admin.HandleDeleteImage(a.clients))
			})
		})
	})

	shell := handleUI()
	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		for _, page := range adminPages {
			r.Get(page, shell)
		}
	})
	r.NotFound(shell)

	return r
}

func waitForShutdown(srv *http.Server, ioo *socketio.Server, store core.ItemStore, cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signals
	logrus.WithField("signal", s.String()).Info("Shutting down")

	cancel()
	ioo.Close(nil)

	ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Failed to shut down HTTP server")
	}
	if c, ok := store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close store")
		}
	}
}

func main() {
	listenAddress := flag.String("listen", "", "The address to listen on (overrides LISTEN_ADDR).")
	logLevel := flag.String("loglevel", "", "The log level (debug, info, warn, error).")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	if *listenAddress != "" {
		cfg.ListenAddr = *listenAddress
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	store := stores.GetStore(cfg.Storage)

	a := &app{
		cfg:      cfg,
		store:    store,
		clients:  apiclient.NewFactory(apiclient.Options{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout}, store),
		assets:   designer.MustLoadAssets(),
		fonts:    designer.NewFontLoader(&http.Client{Timeout: cfg.APITimeout}),
		sessions: designer.NewRegistry(),
		validate: validation.New(),
	}

	go func() {
		if err := a.fonts.Preload(ctx, a.assets.Fonts); err != nil {
			logrus.WithError(err).Warn("Font preload interrupted")
		}
	}()

	r := setupRouter(a)

	ioo := websocket.SetupSocketIO(websocket.Options{
		Items:    store,
		Assets:   a.assets,
		Loader:   surface.HTTPLoader{Client: &http.Client{Timeout: cfg.APITimeout}, BaseURL: cfg.AssetBaseURL},
		Sessions: a.sessions,
		Origins:  cfg.CORSOrigins,
	})
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}
	logrus.WithFields(logrus.Fields{"addr": cfg.ListenAddr, "api": cfg.APIBaseURL}).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	waitForShutdown(srv, ioo, store, cancel)
}
