package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/taktplan/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AppError", func() {
	It("should match its sentinel after being wrapped with a cause", func() {
		err := fmt.Errorf("repo: %w", internal.ErrReferencedNotFound.WithCause(errors.New("fk violated")))

		Expect(errors.Is(err, internal.ErrReferencedNotFound)).To(BeTrue())
		Expect(errors.Is(err, internal.ErrTaskNotFound)).To(BeFalse())
		Expect(internal.ErrReferencedNotFound.Cause).To(BeNil())
	})

	It("should hide internal messages from the response body", func() {
		status, body := internal.NewInternalError("pq: connection refused on 10.0.0.5", errors.New("dial")).ToHTTPResponse()

		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(string(raw)).NotTo(ContainSubstring("10.0.0.5"))
		Expect(string(raw)).To(ContainSubstring("INTERNAL_ERROR"))
	})

	It("should join field messages in the detailed message", func() {
		err := internal.NewValidationError("Validation failed", internal.ErrCodeValidationFailed).
			WithDetails(internal.ValidationErrors{Errors: []internal.ValidationError{
				{Field: "title", Message: "title is required"},
				{Field: "assigneeId", Message: "assigneeId is required"},
			}})

		Expect(err.GetDetailedMessage()).To(Equal("title is required; assigneeId is required"))
		Expect(err.Error()).To(Equal("title is required"))
	})

	It("should map each kind onto its status", func() {
		Expect(internal.ErrNoFieldsProvided.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(internal.ErrInvalidToken.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(internal.ErrInsufficientRole.StatusCode).To(Equal(http.StatusForbidden))
		Expect(internal.ErrTaskNotFound.StatusCode).To(Equal(http.StatusNotFound))
		Expect(internal.ErrDuplicateEmail.StatusCode).To(Equal(http.StatusConflict))
		Expect(internal.ErrTooManyLogins.StatusCode).To(Equal(http.StatusTooManyRequests))
	})
})

var _ = Describe("Role", func() {
	It("should accept the three known roles only", func() {
		for _, r := range internal.Roles {
			parsed, err := internal.ParseRole(string(r))
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(r))
		}

		_, err := internal.ParseRole("Manager")
		Expect(err).To(MatchError(internal.ErrInvalidRole))
	})
})
