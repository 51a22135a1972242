package rest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"

	"github.com/frahmantamala/taktplan/internal/attachment"
	"github.com/frahmantamala/taktplan/internal/auth"
	"github.com/frahmantamala/taktplan/internal/task"
	"github.com/frahmantamala/taktplan/internal/transport/rest"
	"github.com/frahmantamala/taktplan/internal/transport/swagger"
	"github.com/frahmantamala/taktplan/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Route table", func() {
	It("should match the published OpenAPI contract", func() {
		doc, err := swagger.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())

		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		router := chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Auth:        auth.NewHandler(nil, lg),
			Tasks:       task.NewHandler(nil, lg),
			Users:       user.NewHandler(nil, lg),
			Attachments: attachment.NewHandler(nil, lg),
			Health:      rest.NewHealthHandler(nil),
			RBAC:        auth.NewRBACAuthorization(auth.NewAccessPolicy(), lg),
		}, rest.Options{}, lg)

		var routes []string
		err = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, "/api/") {
				return nil
			}
			routes = append(routes, method+" "+strings.TrimSuffix(route, "/"))
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		sort.Strings(routes)

		Expect(routes).To(Equal(swagger.Operations(doc)))
	})

	It("should serve the raw contract", func() {
		rec := httptest.NewRecorder()
		swagger.SpecHandler()(rec, httptest.NewRequest(http.MethodGet, swagger.SpecPath, nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("openapi: 3.0.3"))
	})
})

var _ = Describe("HealthHandler", func() {
	It("should answer 503 and name the failing component", func() {
		h := rest.NewHealthHandler(map[string]rest.Pinger{
			"db":    rest.PingFunc(func(context.Context) error { return nil }),
			"redis": rest.PingFunc(func(context.Context) error { return errors.New("connection refused") }),
		})
		rec := httptest.NewRecorder()

		h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(rec.Body.String()).To(ContainSubstring("redis"))
		Expect(rec.Body.String()).To(ContainSubstring("connection refused"))
	})

	It("should answer ping without touching components", func() {
		rec := httptest.NewRecorder()
		rest.NewHealthHandler(nil).Ping(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})
