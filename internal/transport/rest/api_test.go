package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"time"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/attachment"
	attachmentPostgres "github.com/frahmantamala/taktplan/internal/attachment/postgres"
	"github.com/frahmantamala/taktplan/internal/auth"
	authPostgres "github.com/frahmantamala/taktplan/internal/auth/postgres"
	"github.com/frahmantamala/taktplan/internal/client"
	"github.com/frahmantamala/taktplan/internal/task"
	taskPostgres "github.com/frahmantamala/taktplan/internal/task/postgres"
	"github.com/frahmantamala/taktplan/internal/testutil"
	"github.com/frahmantamala/taktplan/internal/transport/middleware"
	"github.com/frahmantamala/taktplan/internal/transport/rest"
	"github.com/frahmantamala/taktplan/internal/user"
	userPostgres "github.com/frahmantamala/taktplan/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testServer struct {
	db  *gorm.DB
	srv *httptest.Server
}

func newTestServer(loginPerMinute int) *testServer {
	db, err := testutil.OpenSQLite()
	Expect(err).NotTo(HaveOccurred())

	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	policy := auth.NewAccessPolicy()

	authService := auth.NewService(
		authPostgres.NewRepository(db),
		auth.NewJWTTokenGenerator("e2e-secret-0123456789", time.Hour),
		auth.NewMemoryRevocationStore(),
		bcrypt.MinCost,
		lg,
	)
	taskService := task.NewService(taskPostgres.NewTaskRepository(db), policy, lg)
	attachmentService := attachment.NewService(
		attachmentPostgres.NewAttachmentRepository(db),
		taskService,
		attachment.NewLocalStorage(GinkgoT().TempDir()),
		attachment.DefaultMaxBytes,
		lg,
	)

	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Auth:         auth.NewHandler(authService, lg),
		Tasks:        task.NewHandler(taskService, lg),
		Users:        user.NewHandler(user.NewService(userPostgres.NewUserRepository(db), policy, lg), lg),
		Attachments:  attachment.NewHandler(attachmentService, lg),
		Health:       rest.NewHealthHandler(map[string]rest.Pinger{"sqlite": sqlDB}),
		RBAC:         auth.NewRBACAuthorization(policy, lg),
		LoginLimiter: middleware.NewIPRateLimiter(loginPerMinute),
	}, rest.Options{}, lg)

	return &testServer{db: db, srv: httptest.NewServer(router)}
}

func (s *testServer) close() {
	s.srv.Close()
	testutil.Close(s.db)
}

// signUp registers an account and returns a client logged in as it.
func (s *testServer) signUp(ctx context.Context, email string, role internal.Role) (*client.Client, *auth.Account) {
	c := client.New(s.srv.URL)
	r := string(role)
	acct, err := c.Register(ctx, auth.RegisterDTO{Email: email, Password: "pw123456", Role: &r})
	Expect(err).NotTo(HaveOccurred())
	_, err = c.Login(ctx, email, "pw123456")
	Expect(err).NotTo(HaveOccurred())
	return c, acct
}

func expectAppError(err error, status int, code internal.ErrorCode) {
	appErr, ok := internal.IsAppError(err)
	ExpectWithOffset(1, ok).To(BeTrue(), "expected an API error, got %v", err)
	ExpectWithOffset(1, appErr.StatusCode).To(Equal(status))
	ExpectWithOffset(1, appErr.Code).To(Equal(code))
}

var _ = Describe("REST API", func() {
	var (
		ctx context.Context
		s   *testServer
	)

	BeforeEach(func() {
		ctx = context.Background()
		s = newTestServer(100)
	})

	AfterEach(func() {
		s.close()
	})

	It("should walk an employee through the task lifecycle", func() {
		alice, acct := s.signUp(ctx, "alice@example.com", internal.RoleEmployee)
		Expect(acct.Role).To(Equal(internal.RoleEmployee))

		status := task.StatusInProgress
		t1, err := alice.CreateTask(ctx, task.CreateTaskDTO{Title: "T1", Status: &status, AssigneeID: &acct.ID})
		Expect(err).NotTo(HaveOccurred())
		Expect(t1.CreatorID).To(Equal(acct.ID))

		mine, err := alice.MyTasks(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(mine).To(HaveLen(1))
		Expect(mine[0].ID).To(Equal(t1.ID))

		updated, err := alice.UpdateTaskStatus(ctx, t1.ID, task.StatusDone)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Status).To(Equal(task.StatusDone))
		Expect(updated.Title).To(Equal("T1"))

		Expect(alice.DeleteTask(ctx, t1.ID)).To(Succeed())

		_, err = alice.GetTask(ctx, t1.ID)
		Expect(err).To(MatchError(internal.ErrTaskNotFound))
		mine, err = alice.MyTasks(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(mine).To(BeEmpty())
	})

	It("should keep other employees' tasks out of reach", func() {
		alice, aliceAcct := s.signUp(ctx, "alice@example.com", internal.RoleEmployee)
		bob, _ := s.signUp(ctx, "bob@example.com", internal.RoleEmployee)
		manager, _ := s.signUp(ctx, "manager@example.com", internal.RoleManager)

		t1, err := alice.CreateTask(ctx, task.CreateTaskDTO{Title: "private", AssigneeID: &aliceAcct.ID})
		Expect(err).NotTo(HaveOccurred())

		_, err = bob.GetTask(ctx, t1.ID)
		Expect(err).To(MatchError(internal.ErrTaskNotFound))
		_, err = bob.UpdateTask(ctx, t1.ID, task.UpdateTaskDTO{Title: task.Some("mine now")})
		Expect(err).To(MatchError(internal.ErrTaskNotFound))
		Expect(bob.DeleteTask(ctx, t1.ID)).To(MatchError(internal.ErrTaskNotFound))

		bobTasks, err := bob.ListTasks(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(bobTasks).To(BeEmpty())

		all, err := manager.ListTasks(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].Title).To(Equal("private"))
	})

	It("should reject bad task input", func() {
		alice, acct := s.signUp(ctx, "alice@example.com", internal.RoleEmployee)

		_, err := alice.CreateTask(ctx, task.CreateTaskDTO{Title: "no assignee"})
		expectAppError(err, http.StatusBadRequest, internal.ErrCodeValidationFailed)

		missing := int64(9999)
		_, err = alice.CreateTask(ctx, task.CreateTaskDTO{Title: "ghost", AssigneeID: &missing})
		Expect(err).To(MatchError(internal.ErrReferencedNotFound))

		t1, err := alice.CreateTask(ctx, task.CreateTaskDTO{Title: "T1", AssigneeID: &acct.ID})
		Expect(err).NotTo(HaveOccurred())

		_, err = alice.UpdateTask(ctx, t1.ID, task.UpdateTaskDTO{})
		expectAppError(err, http.StatusBadRequest, internal.ErrCodeNoFieldsProvided)

		for _, path := range []string{"/api/tasks/abc", "/api/tasks/0", "/api/tasks/424242"} {
			req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.srv.URL+path, bytes.NewBufferString(`{}`))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+alice.Token())

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest), path)
			Expect(body.Error.Code).To(Equal(string(internal.ErrCodeNoFieldsProvided)), path)
		}
	})

	It("should restrict user administration by role", func() {
		employee, empAcct := s.signUp(ctx, "alice@example.com", internal.RoleEmployee)
		manager, _ := s.signUp(ctx, "manager@example.com", internal.RoleManager)
		admin, _ := s.signUp(ctx, "admin@example.com", internal.RoleAdmin)

		_, err := employee.ListUsers(ctx)
		expectAppError(err, http.StatusForbidden, internal.ErrCodeInsufficientRole)

		users, err := manager.ListUsers(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(users).To(HaveLen(3))

		_, err = manager.ChangeRole(ctx, empAcct.ID, internal.RoleManager)
		expectAppError(err, http.StatusForbidden, internal.ErrCodeInsufficientRole)

		_, err = admin.ChangeRole(ctx, empAcct.ID, internal.Role("owner"))
		expectAppError(err, http.StatusBadRequest, internal.ErrCodeInvalidRole)

		promoted, err := admin.ChangeRole(ctx, empAcct.ID, internal.RoleManager)
		Expect(err).NotTo(HaveOccurred())
		Expect(promoted.Role).To(Equal(internal.RoleManager))

		me, err := employee.Me(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(me.Email).To(Equal("alice@example.com"))
	})

	It("should refuse a token after logout", func() {
		alice, _ := s.signUp(ctx, "alice@example.com", internal.RoleEmployee)
		token := alice.Token()

		Expect(alice.Logout(ctx)).To(Succeed())

		_, err := client.New(s.srv.URL, client.WithToken(token)).MyTasks(ctx)
		Expect(err).To(MatchError(internal.ErrTokenRevoked))

		_, err = alice.MyTasks(ctx)
		Expect(err).To(MatchError(internal.ErrMissingToken))
	})

	It("should accept a PNG attachment and list it", func() {
		alice, acct := s.signUp(ctx, "alice@example.com", internal.RoleEmployee)
		t1, err := alice.CreateTask(ctx, task.CreateTaskDTO{Title: "T1", AssigneeID: &acct.ID})
		Expect(err).NotTo(HaveOccurred())

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "shot.png")
		Expect(err).NotTo(HaveOccurred())
		_, _ = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
		Expect(mw.Close()).To(Succeed())

		url := s.srv.URL + "/api/tasks/" + strconv.FormatInt(t1.ID, 10) + "/attachments"
		req, err := http.NewRequest(http.MethodPost, url, &body)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+alice.Token())

		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		var created attachment.Attachment
		Expect(json.NewDecoder(resp.Body).Decode(&created)).To(Succeed())
		Expect(created.ContentType).To(Equal("image/png"))
		Expect(created.TaskID).To(Equal(t1.ID))

		listReq, _ := http.NewRequest(http.MethodGet, url, nil)
		listReq.Header.Set("Authorization", "Bearer "+alice.Token())
		listResp, err := http.DefaultClient.Do(listReq)
		Expect(err).NotTo(HaveOccurred())
		defer listResp.Body.Close()

		var items []attachment.Attachment
		Expect(json.NewDecoder(listResp.Body).Decode(&items)).To(Succeed())
		Expect(items).To(HaveLen(1))
	})

	It("should report health and unknown routes as JSON", func() {
		resp, err := http.Get(s.srv.URL + "/api/health")
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		resp, err = http.Get(s.srv.URL + "/api/nope")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		raw, _ := io.ReadAll(resp.Body)
		Expect(string(raw)).To(ContainSubstring("ROUTE_NOT_FOUND"))
	})
})

var _ = Describe("Login rate limit", func() {
	It("should answer 429 once an address exceeds its budget", func() {
		s := newTestServer(2)
		defer s.close()
		ctx := context.Background()

		c := client.New(s.srv.URL)
		for i := 0; i < 2; i++ {
			_, err := c.Login(ctx, "nobody@example.com", "wrong")
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		}

		_, err := c.Login(ctx, "nobody@example.com", "wrong")
		Expect(err).To(MatchError(internal.ErrTooManyLogins))
	})
})
