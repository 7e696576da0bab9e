// cmd/web/main.go
//
// hemo – browser-facing shell.
//
// Start-up
// --------
//
//  1. Load configuration (defaults → .env → conf/hemo.yaml → HEMO_ env).
//
//  2. Start the rotating logger (tees to console when running in a TTY).
//
//  3. Open the session backend named by session.backend.
//
//  4. Build the tenant resolver and the shared subdomain validator.
//
//  5. Build the chi router (see internal/web) and serve until SIGINT or
//     SIGTERM, then drain in-flight requests.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/yanizio/hemo/internal/auth"
	"github.com/yanizio/hemo/internal/client"
	"github.com/yanizio/hemo/internal/config"
	"github.com/yanizio/hemo/internal/logger"
	"github.com/yanizio/hemo/internal/nav"
	"github.com/yanizio/hemo/internal/server"
	"github.com/yanizio/hemo/internal/session"
	"github.com/yanizio/hemo/internal/tenant"
	"github.com/yanizio/hemo/internal/web"
)

// validatorEntries bounds how many subdomain answers stay cached.
const validatorEntries = 1024

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Configuration and logger ────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.Log.Tee = cfg.Log.Tee || runningInTTY()
	logOut, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer logOut.Sync()

	//
	// ── 2.  Session backend ─────────────────────────────────────────────
	//
	sessions, err := session.NewFactory(ctx, cfg.Session)
	if err != nil {
		logOut.Fatalw("open session backend", "backend", cfg.Session.Backend, "err", err)
	}
	defer sessions.Close()
	logOut.Infow("session backend online", "backend", sessions.Backend())

	//
	// ── 3.  Tenant resolver and validator ───────────────────────────────
	//
	// check-subdomain is anonymous, so the checker's client needs no real
	// session or navigation.
	resolver := tenant.NewResolver(tenant.NewPolicy(cfg.Tenant.RootDomain, cfg.Tenant.Scheme))
	checker := client.New(session.NewMemory(), nav.NewMemory(nav.Root), cfg.Client)
	validator := tenant.NewValidator(auth.SubdomainChecker(checker), cfg.Tenant.ValidationTTL, validatorEntries)

	//
	// ── 4.  Router and server ───────────────────────────────────────────
	//
	handler := web.New(web.Options{
		Resolver:   resolver,
		Validator:  validator,
		Sessions:   sessions,
		Client:     cfg.Client,
		ForceHTTPS: cfg.HTTP.ForceHTTPS,
	})

	if err := server.Run(ctx, server.New(cfg.HTTP, handler)); err != nil {
		logOut.Errorw("http server", "err", err)
	}
	validator.Wait()
}
