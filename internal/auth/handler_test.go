package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func decodeErrorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.Error.Code
}

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		handler *Handler
		service *Service
		rbac    *RBACAuthorization
	)

	ginkgo.BeforeEach(func() {
		service = NewService(newMockCredentialStore(), NewJWTTokenGenerator("test-secret-at-least-16", time.Hour), nil, bcrypt.MinCost, discardLogger())
		handler = NewHandler(service, discardLogger())
		rbac = NewRBACAuthorization(NewAccessPolicy(), discardLogger())
	})

	login := func(email string) string {
		tokens, err := service.Authenticate(context.Background(), LoginDTO{Email: email, Password: "correct_password"})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return tokens.Token
	}

	ginkgo.Describe("Register", func() {
		ginkgo.It("should answer 201 with the account and no hash", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(`{"email":"alice@example.com","password":"pw123"}`))
			rec := httptest.NewRecorder()

			handler.Register(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"email":"alice@example.com"`))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(`"role":"employee"`))
			gomega.Expect(rec.Body.String()).ToNot(gomega.ContainSubstring("password"))
		})

		ginkgo.It("should answer 409 for a taken email", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(`{"email":"user@example.com","password":"pw"}`))
			rec := httptest.NewRecorder()

			handler.Register(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusConflict))
			gomega.Expect(decodeErrorCode(rec)).To(gomega.Equal(string(internal.ErrCodeDuplicateEmail)))
		})

		ginkgo.It("should answer 400 for malformed JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(`{"email":`))
			rec := httptest.NewRecorder()

			handler.Register(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("should answer 401 for wrong credentials", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"user@example.com","password":"nope"}`))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(decodeErrorCode(rec)).To(gomega.Equal(string(internal.ErrCodeInvalidCredentials)))
		})

		ginkgo.It("should answer 400 when a field is missing", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"user@example.com"}`))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var (
			seen   internal.Caller
			called bool
			next   http.Handler
		)

		ginkgo.BeforeEach(func() {
			called = false
			next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				seen, _ = internal.CallerFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})
		})

		ginkgo.It("should reject a request without a token", func() {
			rec := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(decodeErrorCode(rec)).To(gomega.Equal(string(internal.ErrCodeMissingToken)))
			gomega.Expect(called).To(gomega.BeFalse())
		})

		ginkgo.It("should reject a tampered token", func() {
			token := login("user@example.com")
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			req.Header.Set("Authorization", "Bearer "+token+"x")
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(called).To(gomega.BeFalse())
		})

		ginkgo.It("should put the caller into the context", func() {
			token := login("manager@example.com")
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(called).To(gomega.BeTrue())
			gomega.Expect(seen.ID).To(gomega.Equal(int64(2)))
			gomega.Expect(seen.Role).To(gomega.Equal(internal.RoleManager))
			gomega.Expect(seen.JTI).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should refuse a token after logout", func() {
			token := login("user@example.com")

			logoutReq := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
			logoutReq.Header.Set("Authorization", "Bearer "+token)
			logoutRec := httptest.NewRecorder()
			handler.Logout(logoutRec, logoutReq)
			gomega.Expect(logoutRec.Code).To(gomega.Equal(http.StatusNoContent))

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.AuthMiddleware(next).ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(decodeErrorCode(rec)).To(gomega.Equal(string(internal.ErrCodeTokenRevoked)))
		})
	})

	ginkgo.Describe("RBACAuthorization", func() {
		serve := func(mw func(http.Handler) http.Handler, caller *internal.Caller) int {
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			if caller != nil {
				req = req.WithContext(internal.ContextWithCaller(req.Context(), *caller))
			}
			rec := httptest.NewRecorder()
			mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(rec, req)
			return rec.Code
		}

		ginkgo.It("should let managers through RequireManager and stop employees", func() {
			gomega.Expect(serve(rbac.RequireManager(), &internal.Caller{ID: 2, Role: internal.RoleManager})).To(gomega.Equal(http.StatusOK))
			gomega.Expect(serve(rbac.RequireManager(), &internal.Caller{ID: 1, Role: internal.RoleEmployee})).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("should keep managers out of admin routes", func() {
			gomega.Expect(serve(rbac.RequireAdmin(), &internal.Caller{ID: 2, Role: internal.RoleManager})).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(serve(rbac.RequireAdmin(), &internal.Caller{ID: 3, Role: internal.RoleAdmin})).To(gomega.Equal(http.StatusOK))
		})

		ginkgo.It("should answer 401 when no caller was resolved", func() {
			gomega.Expect(serve(rbac.RequireAdmin(), nil)).To(gomega.Equal(http.StatusUnauthorized))
		})
	})
})
