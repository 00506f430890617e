package register_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	uierrors "github.com/volcani/experimenthub/internal/app/features/errors"
	"github.com/volcani/experimenthub/internal/app/features/register"
	userstore "github.com/volcani/experimenthub/internal/app/store/users"
	"github.com/volcani/experimenthub/internal/app/system/auth"
	"github.com/volcani/experimenthub/internal/app/system/authutil"
	"github.com/volcani/experimenthub/internal/app/system/indexes"
	"github.com/volcani/experimenthub/internal/app/system/metrics"
	"github.com/volcani/experimenthub/internal/app/system/notify"
	"github.com/volcani/experimenthub/internal/domain/models"
	"github.com/volcani/experimenthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newHandler(t *testing.T, users register.UserCreator) *register.Handler {
	t.Helper()
	logger := zap.NewNop()
	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 0, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return register.NewHandler(users, sessionMgr, metrics.NewNop(), uierrors.NewErrorLogger(logger), logger)
}

func validBody() map[string]string {
	return map[string]string{
		"firstName": "Dana",
		"lastName":  "Levi",
		"email":     "Dana@Example.com",
		"phone":     "050-1234567",
		"password":  "secret123",
		"role":      "חוקר",
	}
}

func post(t *testing.T, h *register.Handler, body map[string]string) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest(t, "POST", "/register", body))
	return rec
}

func TestHandleRegister_CreatesUnapprovedProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	h := newHandler(t, userstore.New(db))

	rec := post(t, h, validBody())

	rec.AssertStatus(t, http.StatusCreated)
	env := rec.DecodeEnvelope(t)
	env.AssertNotice(t, notify.Success, notify.MsgRegisterSuccess)
	if env.Redirect != "/login" {
		t.Errorf("redirect: got %q, want /login", env.Redirect)
	}

	var u models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"email": "dana@example.com"}).Decode(&u); err != nil {
		t.Fatalf("load user: %v", err)
	}
	if u.IsApproved {
		t.Error("new accounts start unapproved")
	}
	if !authutil.CheckPassword("secret123", u.PasswordHash) {
		t.Error("stored hash does not verify")
	}
	if n, _ := db.Collection("public_users").CountDocuments(ctx, bson.M{"_id": u.ID}); n != 1 {
		t.Errorf("public profile count: got %d, want 1", n)
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge >= 0 {
			t.Error("register must not leave a live session")
		}
	}
}

func TestHandleRegister_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	h := newHandler(t, userstore.New(db))

	post(t, h, validBody()).AssertStatus(t, http.StatusCreated)
	rec := post(t, h, validBody())

	rec.AssertStatus(t, http.StatusConflict)
	rec.DecodeEnvelope(t).AssertNotice(t, notify.Error, notify.RegisterMessage(notify.CodeEmailInUse))
}

type failingCreator struct{ err error }

func (f failingCreator) CreateWithProfile(context.Context, models.User) (models.User, error) {
	return models.User{}, f.err
}

func TestHandleRegister_Validation(t *testing.T) {
	h := newHandler(t, failingCreator{err: errors.New("must not be called")})

	tests := []struct {
		name   string
		mutate func(map[string]string)
		status int
		msg    string
	}{
		{"no first name", func(b map[string]string) { b["firstName"] = " " }, http.StatusBadRequest, notify.MsgRegisterMissingFields},
		{"no email", func(b map[string]string) { b["email"] = "" }, http.StatusBadRequest, notify.MsgRegisterMissingFields},
		{"no password", func(b map[string]string) { b["password"] = "" }, http.StatusBadRequest, notify.MsgRegisterMissingFields},
		{"no role", func(b map[string]string) { b["role"] = "" }, http.StatusBadRequest, notify.MsgRegisterMissingFields},
		{"short password", func(b map[string]string) { b["password"] = "12345" }, http.StatusUnprocessableEntity, notify.MsgRegisterShortPassword},
		{"bad email", func(b map[string]string) { b["email"] = "dana-at-example" }, http.StatusUnprocessableEntity, notify.RegisterMessage(notify.CodeInvalidEmail)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validBody()
			tt.mutate(body)
			rec := post(t, h, body)
			rec.AssertStatus(t, tt.status)
			rec.DecodeEnvelope(t).AssertNotice(t, notify.Warning, tt.msg)
		})
	}
}

func TestHandleRegister_LastNameOptional(t *testing.T) {
	var got models.User
	h := newHandler(t, recordingCreator{into: &got})

	body := validBody()
	delete(body, "lastName")
	delete(body, "phone")
	post(t, h, body).AssertStatus(t, http.StatusCreated)

	if got.FirstName != "Dana" || got.LastName != "" {
		t.Errorf("created user: %+v", got)
	}
}

type recordingCreator struct{ into *models.User }

func (c recordingCreator) CreateWithProfile(_ context.Context, u models.User) (models.User, error) {
	*c.into = u
	return u, nil
}

func TestHandleRegister_StoreFailure(t *testing.T) {
	h := newHandler(t, failingCreator{err: errors.New("connection reset")})

	rec := post(t, h, validBody())

	rec.AssertStatus(t, http.StatusInternalServerError)
	env := rec.DecodeEnvelope(t)
	env.AssertNotice(t, notify.Error, notify.MsgRegisterGeneric+": connection reset")
}
