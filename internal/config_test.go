package internal_test

import (
	"os"
	"time"

	"github.com/frahmantamala/taktplan/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func validConfig() *internal.Config {
	cfg := &internal.Config{
		Database: internal.DatabaseConfig{Source: "postgres://localhost/taktplan"},
		Security: internal.SecurityConfig{JWTSecret: "0123456789abcdef"},
	}
	cfg.ApplyDefaults()
	return cfg
}

var _ = Describe("Config", func() {
	It("should validate once defaults are applied", func() {
		cfg := validConfig()

		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.Server.Port).To(Equal(3001))
		Expect(cfg.Security.BCryptCost).To(Equal(10))
		Expect(cfg.Storage.UploadDir).To(Equal("uploads"))
	})

	It("should reject more idle than open connections", func() {
		cfg := validConfig()
		cfg.Database.MaxIdleConns = 20

		Expect(cfg.Validate()).To(MatchError(ContainSubstring("max_idle_conns")))
	})

	It("should require an endpoint when tracing is on", func() {
		cfg := validConfig()
		cfg.Observability.Tracing.Enabled = true

		Expect(cfg.Validate()).To(MatchError(ContainSubstring("Endpoint")))
	})

	It("should read the environment", func() {
		for key, value := range map[string]string{
			"PORT":                  "9000",
			"DATABASE_URL":          "postgres://env/taktplan",
			"JWT_SECRET":            "env-secret-0123456789",
			"ACCESS_TOKEN_DURATION": "2h",
			"REDIS_ENABLED":         "true",
		} {
			prev, had := os.LookupEnv(key)
			Expect(os.Setenv(key, value)).To(Succeed())
			DeferCleanup(func() {
				if had {
					_ = os.Setenv(key, prev)
				} else {
					_ = os.Unsetenv(key)
				}
			})
		}

		cfg := internal.LoadConfigFromEnv()

		Expect(cfg.Server.Port).To(Equal(9000))
		Expect(cfg.Database.Source).To(Equal("postgres://env/taktplan"))
		Expect(cfg.Security.AccessTokenDuration).To(Equal(2 * time.Hour))
		Expect(cfg.Redis.Enabled).To(BeTrue())
		Expect(cfg.Validate()).To(Succeed())
	})
})
