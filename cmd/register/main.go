package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"

	"github.com/tendant/simple-register/pkg/accounts"
	"github.com/tendant/simple-register/pkg/authprovider"
	"github.com/tendant/simple-register/pkg/config"
	"github.com/tendant/simple-register/pkg/notification"
	"github.com/tendant/simple-register/pkg/ratelimit"
	"github.com/tendant/simple-register/pkg/registerform"
	"github.com/tendant/simple-register/pkg/signup"
	"github.com/tendant/simple-register/pkg/uiflags"
	"github.com/tendant/simple-register/pkg/viewsession"
	"github.com/tendant/simple-register/pkg/web"
)

const pageDescription = "Luo tili ja vahvista sähköpostiosoitteesi."

// providers is the account backend selected by AUTH_PROVIDER
type providers struct {
	creator   authprovider.AccountCreator
	confirmer authprovider.Confirmer
	pool      *pgxpool.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to read configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting register service",
		"env", cfg.Environment(),
		"provider", cfg.AuthProvider,
		"baseURL", cfg.BaseURL)

	p, err := newProviders(cfg)
	if err != nil {
		slog.Error("Failed to initialize account provider", "provider", cfg.AuthProvider, "error", err)
		os.Exit(1)
	}
	if p.pool != nil {
		defer p.pool.Close()
	}

	formatDate, err := signup.NewDateFormatter(cfg.Signup.DOBLocale)
	if err != nil {
		slog.Error("Unsupported date of birth locale", "locale", cfg.Signup.DOBLocale, "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	workflow := signup.NewWorkflow(p.creator,
		signup.WithTimeout(cfg.Signup.Timeout),
		signup.WithRedirectURL(cfg.CallbackURL()),
		signup.WithDateFormatter(formatDate),
		signup.WithMetrics(signup.NewMetrics(reg)),
	)

	schema := registerform.NewSchema(
		registerform.WithPasswordPolicy(cfg.PasswordComplexity.ToPasswordPolicy()),
	)
	sessions := viewsession.NewRegistry(
		func() *signup.Mount {
			return signup.NewMount(registerform.NewForm(schema), uiflags.NewStore())
		},
		viewsession.WithTTL(cfg.ViewSession.TTL),
		viewsession.WithSecureCookie(cfg.ViewSession.SecureCookie),
		viewsession.WithMaxSessions(cfg.ViewSession.MaxSessions),
	)

	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "register_view_sessions",
		Help: "Number of live registration view sessions.",
	}, func() float64 { return float64(sessions.Len()) }))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessions.Run(ctx, cfg.ViewSession.CleanupInterval)

	handleOpts := []web.Option{
		web.WithPageMeta(cfg.PageLang, cfg.PageTitle, pageDescription),
	}
	if p.confirmer != nil {
		handleOpts = append(handleOpts, web.WithConfirmer(p.confirmer))
	}
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewMiddleware(cfg.RateLimit.ToMiddlewareConfig(),
			ratelimit.WithSessionKey(viewsession.SessionID),
			ratelimit.WithLimitedHandler(web.LimitedPage),
		)
		defer limiter.Close()
		for _, kind := range []string{"global", "ip", "session"} {
			reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace:   "register",
				Name:        "ratelimit_buckets",
				Help:        "Number of active rate limit buckets.",
				ConstLabels: prometheus.Labels{"limiter": kind},
			}, func() float64 { return float64(limiter.GetStats()[kind].ActiveBuckets) }))
		}
		handleOpts = append(handleOpts, web.WithRateLimit(limiter))
		slog.Info("Rate limiting enabled",
			"perIP", cfg.RateLimit.PerIPCapacity,
			"perSession", cfg.RateLimit.PerSessionCapacity)
	}
	handle := web.NewHandle(sessions, workflow, handleOpts...)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)
	server.R.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server.R.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		handle.Routes(r)
	})

	slog.Info("Register service ready", "callback", cfg.CallbackURL())
	server.Run()
}

func newProviders(cfg config.Config) (*providers, error) {
	switch cfg.AuthProvider {
	case config.ProviderGoTrue:
		client, err := authprovider.NewGoTrueClient(authprovider.GoTrueConfig{
			URL:            cfg.GoTrue.URL,
			APIKey:         cfg.GoTrue.APIKey,
			RetryMax:       cfg.GoTrue.RetryMax,
			RequestTimeout: cfg.GoTrue.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		// GoTrue confirms links itself and redirects with ?code= to /auth/callback.
		return &providers{creator: client}, nil

	case config.ProviderLocal:
		pool, err := dbutils.NewDbPool(context.Background(), cfg.Database.ToDbConfig())
		if err != nil {
			return nil, err
		}
		slog.Info("Database connected", "host", cfg.Database.Host, "database", cfg.Database.Database)
		local, err := newLocalProvider(cfg, accounts.NewPostgresAccountRepository(pool))
		if err != nil {
			pool.Close()
			return nil, err
		}
		return &providers{creator: local, confirmer: local, pool: pool}, nil

	default:
		slog.Warn("Using in-memory account store, accounts are lost on restart")
		local, err := newLocalProvider(cfg, accounts.NewInMemoryAccountRepository())
		if err != nil {
			return nil, err
		}
		return &providers{creator: local, confirmer: local}, nil
	}
}

func newLocalProvider(cfg config.Config, repo accounts.AccountRepository) (*accounts.LocalProvider, error) {
	var notifier notification.Notifier = &notification.MockNotifier{}
	if cfg.Email.Enabled {
		emailNotifier, err := notification.NewEmailNotifier(cfg.Email.ToSMTPConfig())
		if err != nil {
			return nil, err
		}
		notifier = emailNotifier
		slog.Info("Email notifier configured", "host", cfg.Email.Host, "port", cfg.Email.Port)
	} else {
		slog.Info("Email disabled, confirmation notices are captured in memory")
	}

	tokens := accounts.NewTokenIssuer(cfg.ConfirmToken.Secret, cfg.ConfirmToken.Expiry)
	return accounts.NewLocalProvider(repo, tokens, accounts.WithNotifier(notifier)), nil
}
