package systemtest

import (
	"context"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	internalhttp "github.com/simplebim/license-server/internal/api/http"
	"github.com/simplebim/license-server/internal/auth"
	"github.com/simplebim/license-server/internal/chat"
	"github.com/simplebim/license-server/internal/db"
	"github.com/simplebim/license-server/internal/email"
	"github.com/simplebim/license-server/internal/keys"
	"github.com/simplebim/license-server/internal/updates"
	"github.com/simplebim/license-server/systemtest/postgres"
	"github.com/simplebim/license-server/systemtest/tests"
)

const jwtSecret = "systemtest-secret"

func TestSystemIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.StartPostgres(ctx, "test", "test", "simplebim_test")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, postgres.TerminatePostgres(context.Background(), container))
	})

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := db.InitDB(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.RunMigrations(dbURL))

	authConfig := auth.Config{
		JWT:              auth.JWTConfig{Secret: jwtSecret, ExpiryMinutes: 60},
		OTPExpireMinutes: 10,
	}
	services := &internalhttp.Services{
		KeyService:    keys.NewService(pool),
		UpdateService: updates.NewService(pool),
		AuthService:   auth.NewService(pool, email.NewSender(email.Config{}), authConfig),
		ChatService:   chat.NewService(pool),
		QueryCache:    chat.NewQueryCache(chat.NewPGCacheStore(pool), chat.CacheConfig{}),
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	internalhttp.SetupRoute(engine, internalhttp.Config{JWTSecret: jwtSecret}, services)

	t.Run("KeyBinding", func(t *testing.T) { tests.TestKeyBinding(t, engine) })
	t.Run("ChatCacheAdmin", func(t *testing.T) { tests.TestChatCacheAdmin(t, engine) })
}
