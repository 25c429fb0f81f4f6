package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/selfire1/gridtip-sub000/internal/auth"
	"github.com/selfire1/gridtip-sub000/internal/cache"
	"github.com/selfire1/gridtip-sub000/internal/config"
	"github.com/selfire1/gridtip-sub000/internal/handlers"
	"github.com/selfire1/gridtip-sub000/internal/logger"
	"github.com/selfire1/gridtip-sub000/internal/repository"
	"github.com/selfire1/gridtip-sub000/internal/services"
	"github.com/selfire1/gridtip-sub000/internal/websocket"
	"github.com/selfire1/gridtip-sub000/pkg/jolpica"
)

const (
	statusInterval  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// App holds all application dependencies
type App struct {
	log         logger.Logger
	handlers    *handlers.Handlers
	repo        *repository.Repository
	cache       cache.Cache
	settings    *services.SettingsService
	sync        *services.SyncService
	syncEvery   time.Duration
	cancelLoops context.CancelFunc
}

// New creates and initializes a new application instance
func New(log logger.Logger, cfg *config.Config, client jolpica.Client, adminAuth *auth.Auth) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	c, err := newCache(cfg)
	if err != nil {
		repo.Close()
		return nil, err
	}

	settingsService := services.NewSettingsService(log, repo, services.Defaults{
		Season:        cfg.Season,
		CutoffMinutes: cfg.DefaultCutoffMinutes,
		F1APIURL:      cfg.F1APIURL,
	})
	if err := settingsService.SeedDefaults(context.Background()); err != nil {
		c.Close()
		repo.Close()
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}

	// A URL changed from the admin API outlives restarts
	if url, err := settingsService.GetSetting(context.Background(), services.SettingF1APIURL); err == nil && url != "" {
		client.SetBaseURL(url)
	}

	leaderboardService := services.NewLeaderboardService(log, repo, settingsService, c, cfg.CacheTTL)
	settingsService.SetInvalidator(leaderboardService)
	tippingService := services.NewTippingService(log, repo, settingsService, leaderboardService)
	groupService := services.NewGroupService(log, repo, settingsService, leaderboardService)
	syncService := services.NewSyncService(log, repo, client, leaderboardService)

	// Initialize WebSocket hub with DI
	hub := websocket.New(log, tippingService)
	hub.Start()
	leaderboardService.SetBroadcaster(hub)

	// Background loops stop on Close
	ctx, cancel := context.WithCancel(context.Background())
	go hub.StartStatusTicker(ctx, statusInterval)

	h := handlers.New(
		tippingService,
		leaderboardService,
		groupService,
		syncService,
		settingsService,
		adminAuth,
		hub,
		log,
	)
	h.SetErrorLogger(log)

	a := &App{
		log:         log,
		handlers:    h,
		repo:        repo,
		cache:       c,
		settings:    settingsService,
		sync:        syncService,
		syncEvery:   cfg.SyncInterval,
		cancelLoops: cancel,
	}
	if a.syncEvery > 0 {
		go a.syncLoop(ctx)
	}
	return a, nil
}

// newCache picks redis when configured and the in-process cache otherwise
func newCache(cfg *config.Config) (cache.Cache, error) {
	if !cfg.UseRedis() {
		return cache.NewMemoryCache(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := cache.NewRedisCache(ctx, cfg.RedisAddr, "", cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return c, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// SyncNow imports results of every finished race that has none yet
func (a *App) SyncNow(ctx context.Context) {
	season, err := a.settings.CurrentSeason(ctx)
	if err != nil {
		a.log.Warn("Failed to read current season", "error", err)
		return
	}
	synced, err := a.sync.SyncPendingResults(ctx, season)
	if err != nil {
		a.log.Warn("Result sync failed", "season", season, "error", err)
		return
	}
	for _, res := range synced {
		a.log.Info("Results synced", "season", res.Season, "round", res.Round, "status", res.Status)
	}
}

// syncLoop polls for finished races until ctx is done
func (a *App) syncLoop(ctx context.Context) {
	ticker := time.NewTicker(a.syncEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.SyncNow(ctx)
		}
	}
}

// Close performs graceful shutdown of app resources
func (a *App) Close() {
	if a.cancelLoops != nil {
		a.cancelLoops()
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.repo != nil {
		a.repo.Close()
	}
}

// Run serves HTTP on addr until ctx is cancelled, then drains open requests
func (a *App) Run(ctx context.Context, addr string) error {
	// Set default base URL if not configured, using detected LAN IP
	ip := getPreferredIP(realNetworkProvider{})
	baseURL := fmt.Sprintf("http://%s%s", ip, addr)
	a.setDefaultBaseURL(baseURL)

	srv := &http.Server{Addr: addr, Handler: a.Router()}
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()
	a.log.Info("Server starting", "url", baseURL)

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-serverErr; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// setDefaultBaseURL sets the base URL setting if not already configured
// or if current value uses localhost (which isn't useful for QR codes)
func (a *App) setDefaultBaseURL(baseURL string) {
	ctx := context.Background()
	existing, _ := a.settings.GetBaseURL(ctx)

	if existing == "" || strings.Contains(existing, "localhost") {
		if err := a.settings.SetBaseURL(ctx, baseURL); err != nil {
			a.log.Warn("Failed to set default base_url", "error", err)
		} else {
			a.log.Info("Default base URL set", "url", baseURL)
		}
	}
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider lists network interfaces
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the best IPv4 address for LAN access, preferring private ranges.
// Falls back to localhost if no suitable address is found.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		if ip.IsPrivate() {
			return ip.String()
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}
