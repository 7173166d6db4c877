// Package userapitest starts an in-process user API for tests.
package userapitest

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"authflow/internal/repository/sqlite"
	"authflow/internal/service"
	"authflow/internal/session"
	"authflow/internal/userapi"
)

// Secret signs session tokens issued by servers from NewServer.
const Secret = "userapitest-secret"

// NewServer serves the /user routes over a fresh sqlite database in a temp
// dir. The returned URL already includes the /user prefix. The server is
// closed through t.Cleanup.
func NewServer(tb testing.TB) (*httptest.Server, string) {
	tb.Helper()

	db, err := sqlite.Open(filepath.Join(tb.TempDir(), "users.db"))
	if err != nil {
		tb.Fatalf("open database: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	repo := sqlite.NewUserRepository(db)
	if err := repo.Init(context.Background()); err != nil {
		tb.Fatalf("init user repository: %v", err)
	}

	sessions, err := session.NewStore(Secret, time.Hour)
	if err != nil {
		tb.Fatalf("session store: %v", err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	userapi.NewHandler(service.NewUserService(repo, bcrypt.MinCost), sessions, "session", nil).RegisterRoutes(router)

	srv := httptest.NewServer(router)
	tb.Cleanup(srv.Close)
	return srv, srv.URL + "/user"
}
