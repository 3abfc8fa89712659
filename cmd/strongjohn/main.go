package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/strongjohn/internal/cache"
	memcache "github.com/dropDatabas3/strongjohn/internal/cache/memory"
	rediscache "github.com/dropDatabas3/strongjohn/internal/cache/redis"
	"github.com/dropDatabas3/strongjohn/internal/config"
	"github.com/dropDatabas3/strongjohn/internal/domain/repository"
	"github.com/dropDatabas3/strongjohn/internal/email"
	adminctrl "github.com/dropDatabas3/strongjohn/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/strongjohn/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/strongjohn/internal/http/controllers/health"
	adminsvc "github.com/dropDatabas3/strongjohn/internal/http/services/admin"
	authsvc "github.com/dropDatabas3/strongjohn/internal/http/services/auth"
	"github.com/dropDatabas3/strongjohn/internal/http/router"
	"github.com/dropDatabas3/strongjohn/internal/observability/logger"
	"github.com/dropDatabas3/strongjohn/internal/rate"
	"github.com/dropDatabas3/strongjohn/internal/security/secretbox"
	memstore "github.com/dropDatabas3/strongjohn/internal/store/memory"
	pgstore "github.com/dropDatabas3/strongjohn/internal/store/pg"
	"github.com/dropDatabas3/strongjohn/internal/session"
)

func main() {
	_ = godotenv.Load(".env")

	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "ruta del config YAML")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		// logger todavía no inicializado
		panic("config load: " + err.Error())
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Store ----
	var store repository.Store
	switch cfg.Storage.Driver {
	case "postgres":
		pg, err := pgstore.Connect(ctx, cfg.Storage.DSN)
		if err != nil {
			log.Fatal("postgres connect failed", logger.Err(err))
		}
		store = pg
		log.Info("storage ready", logger.String("driver", "postgres"))
	default:
		store = memstore.New()
		log.Info("storage ready", logger.String("driver", "memory"))
	}

	// ---- Cache ----
	var cacheClient cache.Client
	switch cfg.Cache.Kind {
	case "redis":
		cacheClient = rediscache.NewFromClient(rdb.NewClient(&rdb.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		}), cfg.Cache.Redis.Prefix)
		log.Info("cache ready", logger.String("kind", "redis"))
	default:
		ttl, _ := time.ParseDuration(cfg.Cache.Memory.DefaultTTL)
		cacheClient = memcache.New(ttl)
		log.Info("cache ready", logger.String("kind", "memory"))
	}
	defer func() { _ = cacheClient.Close() }()

	// ---- Secret codec ----
	masterKey := cfg.Security.SecretBoxMasterKey
	if masterKey == "" {
		// dev sin llave: generar una efímera (los secretos no sobreviven reinicios)
		log.Warn("secretbox master key missing, using ephemeral key")
		masterKey = secretbox.EphemeralKeyB64()
	}
	codec, err := secretbox.New(masterKey)
	if err != nil {
		log.Fatal("secretbox init failed", logger.Err(err))
	}

	// ---- Email ----
	var sender email.Sender = email.NoopSender{}
	if cfg.SMTP.Host != "" {
		smtp := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		smtp.TLSMode = cfg.SMTP.TLS
		smtp.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
		sender = smtp
	}
	notifier := email.NewNotifier(sender, cfg.App.Name)

	// ---- WebAuthn ----
	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.WebAuthn.RPDisplayName,
		RPID:          cfg.WebAuthn.RPID,
		RPOrigins:     cfg.WebAuthn.RPOrigins,
	})
	if err != nil {
		log.Fatal("webauthn init failed", logger.Err(err))
	}

	// ---- Sessions ----
	sessions := session.NewManager(cacheClient, session.Config{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.SessionTTL(),
		Domain:     cfg.Session.Domain,
		Secure:     cfg.Session.Secure,
	})

	// ---- Services ----
	passwords := authsvc.NewPasswordAuthenticator(store)
	devices := authsvc.NewTrustedDeviceService(store, cfg.TrustedDevice.SigningKey, cfg.TrustedDeviceTTL(), cfg.TrustedDevice.Enabled)
	totpSvc := authsvc.NewTOTPService(authsvc.TOTPDeps{
		Store:         store,
		Codec:         codec,
		Notifier:      notifier,
		Issuer:        cfg.MFA.TOTPIssuer,
		Skew:          cfg.MFA.TOTPSkew,
		RecoveryCount: cfg.MFA.RecoveryCodeCount,
	})
	webauthnSvc := authsvc.NewWebAuthnService(authsvc.WebAuthnDeps{
		Store:    store,
		Verifier: wa,
		Notifier: notifier,
	})
	confirmSvc := authsvc.NewConfirmService(authsvc.ConfirmDeps{
		Store:    store,
		WebAuthn: webauthnSvc,
	})
	loginSvc := authsvc.NewLoginService(authsvc.LoginDeps{
		Store:     store,
		Passwords: passwords,
		TOTP:      totpSvc,
		WebAuthn:  webauthnSvc,
		Devices:   devices,
	})
	usersSvc := adminsvc.NewUsersService(store)

	// ---- Rate limiters ----
	var loginLim, mfaLim, confirmLim rate.Limiter
	if cfg.Rate.Enabled {
		parse := func(s string) time.Duration { d, _ := time.ParseDuration(s); return d }
		if cfg.Cache.Kind == "redis" {
			client := rdb.NewClient(&rdb.Options{
				Addr:     cfg.Cache.Redis.Addr,
				Password: cfg.Cache.Redis.Password,
				DB:       cfg.Cache.Redis.DB,
			})
			loginLim = rate.NewRedisLimiter(client, "rl:login:", cfg.Rate.Login.Limit, parse(cfg.Rate.Login.Window))
			mfaLim = rate.NewRedisLimiter(client, "rl:mfa:", cfg.Rate.MFAVerify.Limit, parse(cfg.Rate.MFAVerify.Window))
			confirmLim = rate.NewRedisLimiter(client, "rl:confirm:", cfg.Rate.Confirm.Limit, parse(cfg.Rate.Confirm.Window))
		} else {
			loginLim = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, parse(cfg.Rate.Login.Window))
			mfaLim = rate.NewMemoryLimiter(cfg.Rate.MFAVerify.Limit, parse(cfg.Rate.MFAVerify.Window))
			confirmLim = rate.NewMemoryLimiter(cfg.Rate.Confirm.Limit, parse(cfg.Rate.Confirm.Window))
		}
	}

	// ---- Controllers ----
	controllers := &authctrl.Controllers{
		Login: authctrl.NewLoginController(loginSvc, devices, sessions,
			cfg.TrustedDevice.CookieName, cfg.Session.Domain, cfg.Session.Secure),
		MFA:      authctrl.NewMFAController(totpSvc, confirmSvc, sessions),
		WebAuthn: authctrl.NewWebAuthnController(webauthnSvc, loginSvc, confirmSvc, sessions),
		Confirm:  authctrl.NewConfirmController(confirmSvc, sessions),
	}

	var adminController *adminctrl.UsersController
	if u := os.Getenv("ADMIN_BASIC_USER"); u != "" {
		adminController = adminctrl.NewUsersController(usersSvc, u, os.Getenv("ADMIN_BASIC_PASS"))
	}

	handler := router.New(router.Deps{
		Sessions:           sessions,
		Auth:               controllers,
		Health:             healthctrl.NewController(store, cacheClient),
		Admin:              adminController,
		TwoFactorChecker:   loginSvc,
		LoginLimiter:       loginLim,
		MFALimiter:         mfaLim,
		ConfirmLimiter:     confirmLim,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", logger.Err(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Err(err))
	}
}
