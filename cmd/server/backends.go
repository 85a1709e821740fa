package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mintylist/backend/internal/config"
	"mintylist/backend/internal/database"
	"mintylist/backend/internal/docstore"
	"mintylist/backend/internal/identity"
	"mintylist/backend/internal/services"
	"mintylist/backend/internal/session"

	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// backends are the external systems the server talks to, chosen by config.
type backends struct {
	identity identity.Provider
	docs     docstore.Store
	sessions session.Store
	closers  []func() error
}

func openBackends(ctx context.Context, cfg config.Config) (_ *backends, err error) {
	b := &backends{}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	var app *firebase.App
	if cfg.NeedsFirebase() {
		app, err = services.InitFirebase(ctx, cfg.KeyData, cfg.FirebaseProjectID)
		if err != nil {
			return nil, err
		}
	}

	switch cfg.IdentityBackend {
	case config.BackendFirebase:
		authClient, err := app.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting Auth client: %w", err)
		}
		b.identity, err = identity.NewFirebase(ctx, authClient, cfg.FirebaseAPIKey)
		if err != nil {
			return nil, err
		}
	default:
		slog.Warn("using in-memory identity provider; accounts are lost on restart")
		b.identity = identity.NewMemory(identity.WithSignInRate(rate.Limit(cfg.SignInRate), cfg.SignInBurst))
	}

	switch cfg.DocstoreBackend {
	case config.BackendFirestore:
		fs, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting Firestore client: %w", err)
		}
		b.docs = docstore.NewFirestore(fs)
	case config.BackendMongo:
		client, err := database.ConnectDB(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		b.docs = docstore.NewMongo(client, cfg.DBName)
	default:
		slog.Warn("using in-memory document store; notes are lost on restart")
		b.docs = docstore.NewMemory()
	}
	b.closers = append(b.closers, b.docs.Close)

	switch cfg.SessionBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		b.closers = append(b.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		b.sessions = session.NewRedisStore(rdb)
	default:
		b.sessions = session.NewMemoryStore()
	}
	return b, nil
}

func (b *backends) Close() {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	b.closers = nil
	if err := errors.Join(errs...); err != nil {
		slog.Error("closing backends", "error", err)
	}
}
