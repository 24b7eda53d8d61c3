package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"musicbox/config"
	"musicbox/handlers"
	"musicbox/middleware"
	"musicbox/services"
	"musicbox/websocket"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	watcherDebounce = 500 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

// server bundles the components owned by one serve process
type server struct {
	cfg     *config.Config
	hub     websocket.Hub
	store   services.PlayerStore
	files   services.FileService
	library services.Library
	watcher *services.LibraryWatcher
}

func serveCmd(opts *rootOptions) *cobra.Command {
	var (
		port     int
		musicDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("music-dir") {
				cfg.MusicDir = musicDir
			}
			return StartWebServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8000, "Port to listen on")
	cmd.Flags().StringVarP(&musicDir, "music-dir", "m", "", "Music library directory")

	return cmd
}

// newServer wires the services together. The library root must exist.
func newServer(cfg *config.Config, files services.FileService) (*server, error) {
	root, err := services.ValidateLibraryRoot(cfg.MusicDir)
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub()
	return &server{
		cfg:     cfg,
		hub:     hub,
		store:   services.NewPlayerStore(hub),
		files:   files,
		library: services.NewLibrary(files, root),
	}, nil
}

// StartWebServer runs the server until ctx is cancelled
func StartWebServer(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(cfg.GinMode)

	workers := cfg.ScanWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	s, err := newServer(cfg, services.NewFileService(workers))
	if err != nil {
		return err
	}

	watcher, err := services.NewLibraryWatcher(s.hub, watcherDebounce)
	if err != nil {
		log.Warn().Err(err).Msg("Library watcher disabled")
	} else {
		defer watcher.Close()
		if err := watcher.Watch(s.library.Root()); err != nil {
			log.Warn().Err(err).Msg("Cannot watch music directory")
		}
		s.watcher = watcher
		go watcher.Run(ctx)
	}

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: s.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Int("port", cfg.Port).
			Str("music_dir", s.library.Root()).
			Msg("Musicbox web server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("start server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

// router builds the gin engine with every route
func (s *server) router() *gin.Engine {
	fileHandler := handlers.NewFileHandler(s.library, s.files)
	searchHandler := handlers.NewSearchHandler(s.library)
	healthHandler := handlers.NewHealthHandler(s.hub, s.library)
	playerHandler := handlers.NewPlayerHandler(s.store)
	relayHandler := handlers.NewRelayHandler(s.hub, s.store)
	settingsHandler := handlers.NewSettingsHandler(s.library, s.cfg, s.onRootChanged)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.CORS(s.cfg.CORSOrigins))
	r.Use(middleware.Logging())

	setupRoutes(r, fileHandler, searchHandler, healthHandler, playerHandler, relayHandler, settingsHandler)
	return r
}

// onRootChanged moves the watcher to the new library root
func (s *server) onRootChanged(root string) {
	if s.watcher == nil {
		return
	}
	if err := s.watcher.Watch(root); err != nil {
		log.Warn().Err(err).Str("music_dir", root).Msg("Cannot watch music directory")
	}
}

// setupRoutes configures all the HTTP routes
func setupRoutes(
	r *gin.Engine,
	fileHandler *handlers.FileHandler,
	searchHandler *handlers.SearchHandler,
	healthHandler *handlers.HealthHandler,
	playerHandler *handlers.PlayerHandler,
	relayHandler *handlers.RelayHandler,
	settingsHandler *handlers.SettingsHandler,
) {
	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// Relay endpoint for browsers and the hardware bridge
	r.GET("/ws", relayHandler.HandleWebSocket)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Library
		apiGroup.GET("/songs", fileHandler.ListSongs)
		apiGroup.GET("/albums", fileHandler.ListAlbums)
		apiGroup.GET("/search", searchHandler.Search)
		apiGroup.GET("/stream/*path", fileHandler.StreamFile)

		// Player state
		playerGroup := apiGroup.Group("/player")
		{
			playerGroup.POST("/update", playerHandler.UpdateState)
			playerGroup.GET("/state", playerHandler.GetState)
		}

		// Settings endpoints
		apiGroup.GET("/settings", settingsHandler.GetSettings)
		apiGroup.POST("/settings", settingsHandler.UpdateSettings)
	}
}
