// Binario principal del servicio de cuentas.
//
//	cuentas serve    -- levanta el servidor HTTP
//	cuentas migrate  -- aplica migraciones pendientes
//	cuentas seed     -- crea el rol default
//	cuentas keygen   -- genera el par de claves RSA para firmas
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/cuentas/internal/bootstrap"
	"github.com/dropDatabas3/cuentas/internal/cache"
	"github.com/dropDatabas3/cuentas/internal/config"
	"github.com/dropDatabas3/cuentas/internal/email"
	authctrl "github.com/dropDatabas3/cuentas/internal/http/controllers/auth"
	apierr "github.com/dropDatabas3/cuentas/internal/http/errors"
	"github.com/dropDatabas3/cuentas/internal/http/router"
	"github.com/dropDatabas3/cuentas/internal/http/server"
	authsvc "github.com/dropDatabas3/cuentas/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/cuentas/internal/jwt"
	"github.com/dropDatabas3/cuentas/internal/observability/logger"
	"github.com/dropDatabas3/cuentas/internal/rate"
	"github.com/dropDatabas3/cuentas/internal/security/signature"
	"github.com/dropDatabas3/cuentas/internal/store/pg"
	migrations "github.com/dropDatabas3/cuentas/migrations/postgres"
)

var version = "dev"

func main() {
	// .env es opcional; en prod todo viene del entorno real.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:          "cuentas",
		Short:        "Servicio de cuentas y autenticación",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "ruta al YAML de configuración")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(migrateCmd(&configPath))
	root.AddCommand(seedCmd(&configPath))
	root.AddCommand(keygenCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			logger.Init(logger.Config{
				Env:         cfg.Env,
				Level:       cfg.Log.Level,
				ServiceName: "cuentas",
				Version:     version,
			})
			defer func() { _ = logger.Sync() }()
			log := logger.L()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := pg.Connect(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
			if err != nil {
				return err
			}
			defer store.Close()
			log.Info("postgres conectado")

			signer, err := loadSigner(cfg)
			if err != nil {
				return err
			}

			issuer := jwtx.NewIssuer(cfg.JWT.Issuer,
				[]byte(cfg.JWT.AccessSecret), []byte(cfg.JWT.RefreshSecret),
				cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

			roles := cache.NewRoleCache(store.Roles, 5*time.Minute)
			mailer := email.NewSMTPSender(cfg.SMTP)

			svc := authsvc.NewService(authsvc.Deps{
				Users:    store.Users,
				Roles:    roles,
				OTPs:     store.OTPs,
				Sessions: store.Sessions,
				Signer:   signer,
				Issuer:   issuer,
				Mailer:   mailer,
				OTPTTL:   cfg.OTP.TTL,
			})

			limiters, redisClient := buildLimiters(cfg)
			if redisClient != nil {
				defer redisClient.Close()
				log.Info("rate limiting con redis", logger.String("addr", cfg.Redis.Addr))
			} else {
				log.Warn("redis no configurado, rate limiting deshabilitado")
			}

			handler := router.New(router.Deps{
				Auth:     authctrl.New(svc),
				Issuer:   issuer,
				Limiters: limiters,
				Health:   healthHandler(store),
			})

			// Janitor: barre OTPs vencidos para que la tabla no crezca.
			go otpJanitor(ctx, store, cfg.OTP.TTL)

			srv := server.New(cfg.Server.Addr, handler)
			log.Info("servidor escuchando", logger.String("addr", cfg.Server.Addr))
			return srv.Run(ctx)
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := pg.Connect(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
			if err != nil {
				return err
			}
			defer store.Close()

			applied, err := pg.Migrate(ctx, store.Pool(), migrations.FS)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Println("esquema al día, nada que aplicar")
				return nil
			}
			fmt.Printf("migraciones aplicadas: %v\n", applied)
			return nil
		},
	}
}

func seedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Crea el rol default si no existe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := pg.Connect(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
			if err != nil {
				return err
			}
			defer store.Close()

			created, err := bootstrap.SeedDefaultRole(ctx, store.Pool())
			if err != nil {
				return err
			}
			if created {
				fmt.Println("rol default creado")
			} else {
				fmt.Println("rol default ya existía")
			}
			return nil
		},
	}
}

func keygenCmd() *cobra.Command {
	var (
		dir  string
		bits int
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Genera el par de claves RSA para las firmas",
		RunE: func(_ *cobra.Command, _ []string) error {
			pub, priv, err := signature.GenerateKeyPair(bits)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return err
			}
			pubPath := filepath.Join(dir, "signature_public.pem")
			privPath := filepath.Join(dir, "signature_private.pem")
			if err := os.WriteFile(pubPath, pub, 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(privPath, priv, 0o600); err != nil {
				return err
			}
			fmt.Printf("claves generadas en %s y %s\n", pubPath, privPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "keys", "directorio destino")
	cmd.Flags().IntVar(&bits, "bits", 2048, "tamaño de la clave RSA")
	return cmd
}

func loadSigner(cfg *config.Config) (*signature.Signer, error) {
	pubPEM, err := os.ReadFile(cfg.Signature.PublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("leer clave pública: %w", err)
	}
	privPEM, err := os.ReadFile(cfg.Signature.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("leer clave privada: %w", err)
	}
	return signature.New(pubPEM, privPEM)
}

// buildLimiters arma los limiters por acción. Sin Redis, todo pasa.
func buildLimiters(cfg *config.Config) (router.Limiters, *rdb.Client) {
	if cfg.Redis.Addr == "" {
		noop := rate.NoopLimiter{}
		return router.Limiters{
			SignIn: noop, SignUp: noop, VerifyOTP: noop,
			ResendOTP: noop, General: noop,
		}, nil
	}

	client := rdb.NewClient(&rdb.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return router.Limiters{
		SignIn:    rate.NewRedisLimiter(client, rate.Rule{Name: "sign-in", Max: 10, Window: 5 * time.Second}),
		SignUp:    rate.NewRedisLimiter(client, rate.Rule{Name: "sign-up", Max: 10, Window: 5 * time.Second}),
		VerifyOTP: rate.NewRedisLimiter(client, rate.Rule{Name: "verify-otp", Max: 3, Window: 18 * time.Second}),
		ResendOTP: rate.NewRedisLimiter(client, rate.Rule{Name: "resend-otp", Max: 1, Window: time.Minute}),
		General:   rate.NewRedisLimiter(client, rate.Rule{Name: "general", Max: 30, Window: 10 * time.Second}),
	}, client
}

func healthHandler(store *pg.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Pool().Ping(ctx); err != nil {
			apierr.WriteError(w, apierr.ErrServiceUnavailable.WithCause(err))
			return
		}
		apierr.WriteSuccess(w, apierr.CodeOK, "ok", nil)
	}
}

// otpJanitor borra periódicamente los OTPs vencidos.
func otpJanitor(ctx context.Context, store *pg.Store, ttl time.Duration) {
	log := logger.With(logger.Component("otp.janitor"))
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.OTPs.DeleteExpired(ctx, ttl)
			if err != nil {
				log.Warn("otp cleanup failed", logger.Err(err))
				continue
			}
			if n > 0 {
				log.Debug("expired otps removed", logger.Count(n))
			}
		}
	}
}
