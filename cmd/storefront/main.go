package main

import (
	"context"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jrsteele09/go-storefront-client/auth"
	"github.com/jrsteele09/go-storefront-client/gateway"
	"github.com/jrsteele09/go-storefront-client/internal/config"
	"github.com/jrsteele09/go-storefront-client/sessions"
	"github.com/jrsteele09/go-storefront-client/storefront"
	"github.com/jrsteele09/go-storefront-client/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Globals are the flags shared by every command
type Globals struct {
	APIBaseURL string        `help:"Base address of the storefront API." env:"API_BASE_URL" name:"api"`
	Email      string        `help:"Account email." env:"STOREFRONT_EMAIL"`
	Password   string        `help:"Account password." env:"STOREFRONT_PASSWORD"`
	Device     string        `help:"Device description sent at login." default:"storefront-cli"`
	Timeout    time.Duration `help:"Overall time limit for the command." default:"1m"`
	Debug      bool          `help:"Log gateway activity."`
}

type CLI struct {
	Globals

	Login   LoginCmd   `cmd:"" help:"Sign in and print the session user."`
	Whoami  WhoamiCmd  `cmd:"" help:"Print the user the credentials belong to."`
	Lots    LotsCmd    `cmd:"" help:"Browse and manage lots."`
	Reviews ReviewsCmd `cmd:"" help:"Read and write seller reviews."`
}

// app is the client stack a command runs against
type app struct {
	session *sessions.Store
	auth    *auth.Service
	shop    *storefront.Service
}

func newApp(ctx context.Context, g *Globals, cfg config.Config) (*app, error) {
	baseURL := g.APIBaseURL
	if baseURL == "" {
		baseURL = cfg.GetAPIBaseURL()
	}

	opts := append(gateway.ConfigOptions(cfg), gateway.WithLogger(log.Logger))
	var authOpts []auth.ServiceOption
	if jwksURL := cfg.GetJWKSURL(); jwksURL != "" {
		verifier := token.NewRemoteVerifier(ctx, cfg.GetTokenIssuer(), jwksURL)
		opts = append(opts, gateway.WithIdentityResolver(verifier))
		authOpts = append(authOpts, auth.WithIdentityResolver(verifier))
	}

	session := sessions.NewStore()
	factory, err := gateway.NewFactory(baseURL, session, opts...)
	if err != nil {
		return nil, err
	}
	return &app{
		session: session,
		auth:    auth.NewService(factory, authOpts...),
		shop:    storefront.NewService(factory, storefront.WithAttachCredential(cfg.GetAttachCredential())),
	}, nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("storefront"),
		kong.Description("Command line client for the auction storefront API."),
		kong.UsageOnError(),
	)

	level := zerolog.WarnLevel
	if cli.Debug {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(level)

	ctx, cancel := context.WithTimeout(context.Background(), cli.Timeout)
	defer cancel()

	a, err := newApp(ctx, &cli.Globals, config.New())
	kctx.FatalIfErrorf(err)

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.FatalIfErrorf(kctx.Run(&cli.Globals, a))
}
