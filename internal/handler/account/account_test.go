package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"accounthub/internal/api"
	"accounthub/internal/cache"
	"accounthub/internal/database"
	"accounthub/internal/middleware"
	"accounthub/internal/model"
	"accounthub/internal/service"
	"accounthub/internal/store"
	"accounthub/internal/worker"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubValidator struct{ err error }

func (s *stubValidator) Validate(i interface{}) error { return s.err }

func restore() {
	hashPassword = service.HashPassword
	getUserByID = store.GetUserByID
	updateUser = store.UpdateUser
	deleteUser = store.DeleteUser
}

func newMeCtx(e *echo.Echo, method, body string, claims *service.CustomClaims) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	if claims != nil {
		ctx.Set(middleware.ContextUserKey, claims)
	}
	return ctx, rec
}

// missCache 回應 cache miss，Del 記錄被刪除的 key
func missCache(deleted *[]string) *cache.FakeCache {
	return &cache.FakeCache{
		GetFn: func(context.Context, string) *redis.StringCmd {
			return redis.NewStringResult("", redis.Nil)
		},
		DelFn: func(_ context.Context, keys ...string) *redis.IntCmd {
			if deleted != nil {
				*deleted = append(*deleted, keys...)
			}
			return redis.NewIntResult(int64(len(keys)), nil)
		},
	}
}

var sampleUser = model.User{
	ID:           7,
	Name:         "Alice Smith",
	Gender:       "female",
	DateOfBirth:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	Email:        "a@b.com",
	PasswordHash: "stored-hash",
	CreatedAt:    time.Now().UTC(),
}

func TestGetMyAccountHandler(t *testing.T) {
	e := echo.New()
	claims := &service.CustomClaims{UserID: 7, Email: "a@b.com", Name: "Alice Smith"}

	t.Run("missing claims", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newMeCtx(e, http.MethodGet, "", nil)
		wp := worker.NewPool(1)
		defer wp.Stop()
		require.NoError(t, GetMyAccountHandler(nil, missCache(nil), wp)(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("cache hit skips store", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) {
			t.Fatal("store should not be hit")
			return nil, nil
		}
		cached, _ := json.Marshal(api.User{ID: 7, Name: "Alice Smith", Email: "a@b.com"})
		cch := &cache.FakeCache{
			GetFn: func(_ context.Context, key string) *redis.StringCmd {
				require.Equal(t, "user:7", key)
				return redis.NewStringResult(string(cached), nil)
			},
		}
		ctx, rec := newMeCtx(e, http.MethodGet, "", claims)
		wp := worker.NewPool(1)
		defer wp.Stop()
		require.NoError(t, GetMyAccountHandler(nil, cch, wp)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Alice Smith")
	})

	t.Run("record vanished after token issued", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) {
			return nil, fmt.Errorf("GetUserByID: %w", store.ErrUserNotFound)
		}
		ctx, rec := newMeCtx(e, http.MethodGet, "", claims)
		wp := worker.NewPool(1)
		defer wp.Stop()
		require.NoError(t, GetMyAccountHandler(nil, missCache(nil), wp)(ctx))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, rec.Body.String(), "User not found")
	})

	t.Run("store failure", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) {
			return nil, errors.New("db down")
		}
		ctx, rec := newMeCtx(e, http.MethodGet, "", claims)
		wp := worker.NewPool(1)
		defer wp.Stop()
		require.NoError(t, GetMyAccountHandler(nil, missCache(nil), wp)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("success fills cache in background", func(t *testing.T) {
		t.Cleanup(restore)
		u := sampleUser
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return &u, nil }
		var setKey string
		var setVal []byte
		cch := &cache.FakeCache{
			GetFn: func(context.Context, string) *redis.StringCmd {
				return redis.NewStringResult("", redis.Nil)
			},
			SetFn: func(_ context.Context, key string, val any, ttl time.Duration) *redis.StatusCmd {
				setKey = key
				setVal = val.([]byte)
				require.Equal(t, profileTTL, ttl)
				return redis.NewStatusResult("OK", nil)
			},
		}
		ctx, rec := newMeCtx(e, http.MethodGet, "", claims)
		wp := worker.NewPool(1)
		require.NoError(t, GetMyAccountHandler(nil, cch, wp)(ctx))
		wp.Stop()

		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"user"`)
		require.Contains(t, rec.Body.String(), "1990-01-01")
		// 密碼欄位絕不外流
		require.NotContains(t, rec.Body.String(), "password")
		require.NotContains(t, rec.Body.String(), "stored-hash")

		require.Equal(t, "user:7", setKey)
		require.NotContains(t, string(setVal), "stored-hash")
	})
}

func TestUpdateMyAccountHandler(t *testing.T) {
	e := echo.New()
	claims := &service.CustomClaims{UserID: 7}

	t.Run("bind error", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		ctx, rec := newMeCtx(e, http.MethodPut, "{bad", claims)
		require.NoError(t, UpdateMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validate error", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{err: errors.New("v")}
		ctx, rec := newMeCtx(e, http.MethodPut, `{"name":"Al"}`, claims)
		require.NoError(t, UpdateMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing claims", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		ctx, rec := newMeCtx(e, http.MethodPut, `{}`, nil)
		require.NoError(t, UpdateMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) {
			return nil, fmt.Errorf("GetUserByID: %w", store.ErrUserNotFound)
		}
		ctx, rec := newMeCtx(e, http.MethodPut, `{"name":"New Name"}`, claims)
		require.NoError(t, UpdateMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("name-only update keeps hash untouched", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		u := sampleUser
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return &u, nil }
		var saved *model.User
		updateUser = func(_ context.Context, _ database.DB, user *model.User) error {
			saved = user
			return nil
		}
		var deleted []string
		ctx, rec := newMeCtx(e, http.MethodPut, `{"name":"New Name"}`, claims)
		require.NoError(t, UpdateMyAccountHandler(nil, missCache(&deleted))(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "New Name", saved.Name)
		require.Equal(t, "a@b.com", saved.Email)
		require.Equal(t, "female", saved.Gender)
		require.Equal(t, "stored-hash", saved.PasswordHash)
		require.Equal(t, []string{"user:7"}, deleted)
		require.Contains(t, rec.Body.String(), "Account updated successfully")
		require.NotContains(t, rec.Body.String(), "stored-hash")
	})

	t.Run("whitespace password is ignored", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		u := sampleUser
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return &u, nil }
		hashPassword = func(string) (string, error) {
			t.Fatal("password must not be re-hashed on whitespace value")
			return "", nil
		}
		var saved *model.User
		updateUser = func(_ context.Context, _ database.DB, user *model.User) error {
			saved = user
			return nil
		}
		ctx, rec := newMeCtx(e, http.MethodPut, `{"password":"   "}`, claims)
		require.NoError(t, UpdateMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "stored-hash", saved.PasswordHash)
	})

	t.Run("new password is re-hashed", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		u := sampleUser
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return &u, nil }
		var saved *model.User
		updateUser = func(_ context.Context, _ database.DB, user *model.User) error {
			saved = user
			return nil
		}
		ctx, rec := newMeCtx(e, http.MethodPut, `{"password":"N3w!Secret"}`, claims)
		require.NoError(t, UpdateMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEqual(t, "stored-hash", saved.PasswordHash)
		require.NotEqual(t, "N3w!Secret", saved.PasswordHash)
		require.NoError(t, service.ComparePassword(saved.PasswordHash, "N3w!Secret"))
	})

	t.Run("failed update leaves credential untouched", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		u := sampleUser
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return &u, nil }
		// 整列更新是唯一的寫入；它失敗時不可能留下已改掉的密碼
		writes := 0
		updateUser = func(context.Context, database.DB, *model.User) error {
			writes++
			return fmt.Errorf("UpdateUser: %w", store.ErrEmailTaken)
		}
		ctx, rec := newMeCtx(e, http.MethodPut, `{"email":"taken@b.com","password":"N3w!Secret"}`, claims)
		require.NoError(t, UpdateMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "User already exists")
		require.Equal(t, 1, writes)
	})

	t.Run("bad dob", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		u := sampleUser
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return &u, nil }
		ctx, rec := newMeCtx(e, http.MethodPut, `{"dob":"01/01/1990"}`, claims)
		require.NoError(t, UpdateMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad email", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		u := sampleUser
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return &u, nil }
		ctx, rec := newMeCtx(e, http.MethodPut, `{"email":"bad"}`, claims)
		require.NoError(t, UpdateMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid email format")
	})

	t.Run("email taken on update", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		u := sampleUser
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return &u, nil }
		updateUser = func(context.Context, database.DB, *model.User) error {
			return fmt.Errorf("UpdateUser: %w", store.ErrEmailTaken)
		}
		ctx, rec := newMeCtx(e, http.MethodPut, `{"email":"taken@b.com"}`, claims)
		require.NoError(t, UpdateMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "User already exists")
	})

	t.Run("store failure", func(t *testing.T) {
		t.Cleanup(restore)
		e.Validator = &stubValidator{}
		u := sampleUser
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return &u, nil }
		updateUser = func(context.Context, database.DB, *model.User) error { return errors.New("boom") }
		ctx, rec := newMeCtx(e, http.MethodPut, `{"name":"New Name"}`, claims)
		require.NoError(t, UpdateMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestDeleteMyAccountHandler(t *testing.T) {
	e := echo.New()
	claims := &service.CustomClaims{UserID: 7}

	t.Run("missing claims", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newMeCtx(e, http.MethodDelete, "", nil)
		require.NoError(t, DeleteMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		t.Cleanup(restore)
		deleteUser = func(context.Context, database.DB, int) error {
			return fmt.Errorf("DeleteUser: %w", store.ErrUserNotFound)
		}
		ctx, rec := newMeCtx(e, http.MethodDelete, "", claims)
		require.NoError(t, DeleteMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, rec.Body.String(), "User not found")
	})

	t.Run("store failure", func(t *testing.T) {
		t.Cleanup(restore)
		deleteUser = func(context.Context, database.DB, int) error { return errors.New("boom") }
		ctx, rec := newMeCtx(e, http.MethodDelete, "", claims)
		require.NoError(t, DeleteMyAccountHandler(nil, missCache(nil))(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		var gotID int
		deleteUser = func(_ context.Context, _ database.DB, id int) error {
			gotID = id
			return nil
		}
		var deleted []string
		ctx, rec := newMeCtx(e, http.MethodDelete, "", claims)
		require.NoError(t, DeleteMyAccountHandler(nil, missCache(&deleted))(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 7, gotID)
		require.Equal(t, []string{"user:7"}, deleted)
		require.Contains(t, rec.Body.String(), "Account deleted successfully")
	})
}
