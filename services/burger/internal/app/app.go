package app

import (
	"context"
	"time"

	"github.com/aquamarinepk/aqm"
	aqmevents "github.com/aquamarinepk/aqm/events"
	"github.com/aquamarinepk/aqm/middleware"

	"github.com/appetiteclub/burger/pkg"
	"github.com/appetiteclub/burger/pkg/event"
	"github.com/appetiteclub/burger/services/burger/internal/api"
	"github.com/appetiteclub/burger/services/burger/internal/auth"
	"github.com/appetiteclub/burger/services/burger/internal/burger"
	"github.com/appetiteclub/burger/services/burger/internal/feed"
	"github.com/appetiteclub/burger/services/burger/internal/mongo"
)

const (
	AppName    = "burger"
	AppVersion = "0.1.0"

	PublicFeed  = "public"
	ProfileFeed = "profile"

	defaultPublicFeedURL  = "wss://norma.education-services.ru/orders/all"
	defaultProfileFeedURL = "wss://norma.education-services.ru/orders"
	handshakeTimeout      = 10 * time.Second
	eventRetention        = 24 * time.Hour
)

// App wires the burger client engine into an aqm micro service.
type App struct {
	config *aqm.Config
	logger aqm.Logger
	micro  *aqm.Micro
}

func New(config *aqm.Config, logger aqm.Logger) (*App, error) {
	return &App{
		config: config,
		logger: logger,
	}, nil
}

func (a *App) Initialize(ctx context.Context) error {
	client := api.NewClient(api.OptionsFromConfig(a.config), a.logger)

	var lifecycles []interface{}

	// Credentials
	var repo auth.Repo = auth.NewMemoryRepo()
	if a.config.GetStringOrDef("auth.store", "memory") == "mongo" {
		credentialRepo := mongo.NewCredentialRepo(a.config, a.logger)
		lifecycles = append(lifecycles, credentialRepo)
		repo = credentialRepo
	}
	session := a.config.GetStringOrDef("auth.session", "default")
	manager := auth.NewManager(session, repo, client, a.logger)
	lifecycles = append(lifecycles, manager)

	// Events are optional
	var publisher aqmevents.Publisher
	natsURL, _ := a.config.GetString("nats.url")
	streamEnabled := a.config.GetStringOrDef("nats.stream.enabled", "false") == "true"
	switch {
	case natsURL != "" && streamEnabled:
		stream, err := pkg.NewNATSStream(ctx, pkg.NATSStreamConfig{
			URL:        natsURL,
			StreamName: event.StreamName,
			Subjects:   event.StreamSubjects,
			MaxAge:     eventRetention,
		}, a.logger)
		if err != nil {
			return err
		}
		publisher = stream
		lifecycles = append(lifecycles, aqm.LifecycleHooks{
			OnStop: func(context.Context) error { return stream.Close() },
		})
		a.logger.Info("NATS stream initialized for persistent events", "stream", event.StreamName)

	case natsURL != "":
		natsPublisher, err := pkg.NewNATSPublisher(natsURL)
		if err != nil {
			return err
		}
		publisher = natsPublisher
		lifecycles = append(lifecycles, aqm.LifecycleHooks{
			OnStop: func(context.Context) error { return natsPublisher.Close() },
		})
		a.logger.Info("NATS publisher initialized", "url", natsURL)
	}

	constructor := burger.NewConstructor(burger.ConstructorDeps{
		Catalog:     client,
		Orders:      client,
		Credentials: manager,
		Publisher:   publisher,
	}, a.logger)
	lifecycles = append(lifecycles, constructor)

	// Feeds
	autoConnect := a.config.GetStringOrDef("feeds.autoconnect", "false") == "true"
	dialer := feed.NewWebsocketDialer(handshakeTimeout)

	publicFeed := feed.NewEngine(feed.Config{
		Name:        PublicFeed,
		Endpoint:    a.config.GetStringOrDef("feeds.public.url", defaultPublicFeedURL),
		AutoConnect: autoConnect,
	}, feed.EngineDeps{
		Dialer:    dialer,
		Publisher: publisher,
	}, a.logger)

	profileFeed := feed.NewEngine(feed.Config{
		Name:         ProfileFeed,
		Endpoint:     a.config.GetStringOrDef("feeds.profile.url", defaultProfileFeedURL),
		RequiresAuth: true,
		AutoConnect:  autoConnect,
	}, feed.EngineDeps{
		Dialer:      dialer,
		Credentials: manager,
		Publisher:   publisher,
	}, a.logger)
	lifecycles = append(lifecycles, publicFeed, profileFeed)

	// HTTP handlers
	burgerHandler := burger.NewHandler(burger.HandlerDeps{
		Constructor: constructor,
		Orders:      client,
	}, a.config, a.logger)

	feedHandler := feed.NewHandler(feed.HandlerDeps{
		Feeds:   []*feed.Engine{publicFeed, profileFeed},
		Catalog: constructor,
	}, a.logger)

	authHandler := auth.NewHandler(manager, a.logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      a.logger,
		DisableCORS: true,
	})

	options := []aqm.Option{
		aqm.WithConfig(a.config),
		aqm.WithLogger(a.logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", burgerHandler, feedHandler, authHandler),
		aqm.WithLifecycle(lifecycles...),
		aqm.WithHealthChecks(AppName),
	}

	a.micro = aqm.NewMicro(options...)
	return nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.micro.Run(ctx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}
