package main

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/Karthikshettyhub/passwordless-auth/adapters/events"
	"github.com/Karthikshettyhub/passwordless-auth/adapters/session"
	memorystore "github.com/Karthikshettyhub/passwordless-auth/adapters/store/memory"
	"github.com/Karthikshettyhub/passwordless-auth/adapters/store/postgres"
	redisstore "github.com/Karthikshettyhub/passwordless-auth/adapters/store/redis"
	"github.com/Karthikshettyhub/passwordless-auth/adapters/verifier"
	"github.com/Karthikshettyhub/passwordless-auth/config"
	"github.com/Karthikshettyhub/passwordless-auth/logger"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
	"github.com/Karthikshettyhub/passwordless-auth/service"
	"github.com/Karthikshettyhub/passwordless-auth/transport/http"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.New(cfg.LogLevel)
	ctx := context.Background()

	var (
		identities  ports.IdentityStore
		credentials ports.CredentialStore
		challenges  ports.ChallengeStore
		sessions    ports.SessionStore
		db          http.Pinger
	)

	if cfg.Database.DSN != "" {
		conn, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			appLog.Fatal("failed to connect to database", "error", err)
		}
		defer conn.Close()

		identities = postgres.NewIdentityRepository(conn)
		credentials = postgres.NewCredentialRepository(conn)
		challenges = postgres.NewChallengeRepository(conn, cfg.ChallengeTTL)
		sessions = postgres.NewSessionRepository(conn)
		db = conn
	} else {
		store := memorystore.NewStore()
		identities = memorystore.NewIdentityStore(store)
		credentials = memorystore.NewCredentialStore(store)
		challenges = memorystore.NewChallengeStore(store, cfg.ChallengeTTL)
		sessions = memorystore.NewSessionStore(store)
		appLog.Info("no database DSN configured, using in-memory stores")
	}

	var publisher message.Publisher
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			appLog.Fatal("failed to parse Redis URL", "error", err)
		}
		redisClient := redis.NewClient(opts)

		// Redis takes over the TTL-governed state and event delivery.
		challenges = redisstore.NewChallengeStore(redisClient, cfg.ChallengeTTL)
		sessions = redisstore.NewSessionStore(redisClient)

		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			appLog.Fatal("failed to create Redis publisher", "error", err)
		}
	} else {
		publisher = gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	}

	ceremonies, err := verifier.NewWebAuthn(verifier.Config{
		RPID:      cfg.Relying.ID,
		RPName:    cfg.Relying.Name,
		RPOrigins: cfg.Relying.Origins,
	})
	if err != nil {
		appLog.Fatal("failed to configure webauthn", "error", err)
	}

	var issuer ports.SessionIssuer
	switch cfg.Session.Backend {
	case "jwt":
		issuer = session.NewJWTIssuer([]byte(cfg.Session.JWTSecret), sessions, cfg.Session.TTL)
	default:
		issuer = session.NewOpaqueIssuer(sessions, cfg.Session.TTL)
	}

	eventPub := events.NewWatermillPublisher(publisher)

	registration := service.NewRegistration(identities, credentials, challenges, ceremonies, issuer, eventPub, appLog)
	authentication := service.NewAuthentication(identities, credentials, challenges, ceremonies, issuer, eventPub, appLog)

	router := http.SetupRouter(registration, authentication, issuer, identities, db)

	appLog.Info("starting server", "addr", cfg.HTTP.Addr, "rp_id", cfg.Relying.ID)
	if err := router.Run(cfg.HTTP.Addr); err != nil {
		appLog.Fatal("server stopped", "error", err)
	}
}
