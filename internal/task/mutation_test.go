package task_test

import (
	"encoding/json"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/task"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func decodeUpdate(body string) task.UpdateTaskDTO {
	var dto task.UpdateTaskDTO
	Expect(json.Unmarshal([]byte(body), &dto)).To(Succeed())
	return dto
}

var _ = Describe("BuildMutation", func() {
	It("should fail with NoFieldsProvided for an empty body", func() {
		_, err := task.BuildMutation(decodeUpdate(`{}`))

		Expect(err).To(MatchError(internal.ErrNoFieldsProvided))
		appErr, _ := internal.IsAppError(err)
		Expect(appErr.StatusCode).To(Equal(400))
	})

	It("should ignore unknown keys and still report no fields", func() {
		_, err := task.BuildMutation(decodeUpdate(`{"color":"red"}`))
		Expect(err).To(MatchError(internal.ErrNoFieldsProvided))
	})

	It("should keep only the fields that were sent, in column order", func() {
		m, err := task.BuildMutation(decodeUpdate(`{"status":"done","title":"  Renamed  "}`))

		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(task.Mutation{
			{Field: task.FieldTitle, Value: "Renamed"},
			{Field: task.FieldStatus, Value: "done"},
		}))
		Expect(m.Has(task.FieldDescription)).To(BeFalse())
	})

	It("should turn explicit nulls on optional fields into clears", func() {
		m, err := task.BuildMutation(decodeUpdate(`{"description":null,"priority":null,"assigneeId":null}`))

		Expect(err).NotTo(HaveOccurred())
		Expect(m.Columns()).To(Equal(map[string]interface{}{
			"description": nil,
			"priority":    nil,
			"assignee_id": nil,
		}))
	})

	It("should accept a numeric priority", func() {
		m, err := task.BuildMutation(decodeUpdate(`{"priority":2}`))

		Expect(err).NotTo(HaveOccurred())
		Expect(m.Columns()).To(HaveKeyWithValue("priority", "2"))
	})

	DescribeTable("rejected values",
		func(body, field string) {
			_, err := task.BuildMutation(decodeUpdate(body))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			details, ok := appErr.Details.(internal.ValidationErrors)
			Expect(ok).To(BeTrue())
			Expect(details.Errors).To(ContainElement(HaveField("Field", field)))
		},
		Entry("blank title", `{"title":"   "}`, "title"),
		Entry("null title", `{"title":null}`, "title"),
		Entry("unknown status", `{"status":"archived"}`, "status"),
		Entry("null status", `{"status":null}`, "status"),
		Entry("zero assignee", `{"assigneeId":0}`, "assigneeId"),
	)
})

var _ = Describe("UpdateTaskDTO JSON", func() {
	It("should tell absent fields from explicit nulls", func() {
		dto := decodeUpdate(`{"description":null,"status":"later"}`)

		Expect(dto.Title.Set).To(BeFalse())
		Expect(dto.Description.Set).To(BeTrue())
		Expect(dto.Description.Null).To(BeTrue())
		Expect(dto.Status).To(Equal(task.Some(task.StatusLater)))
	})

	It("should marshal only the fields that are set", func() {
		raw, err := json.Marshal(task.UpdateTaskDTO{
			Status:     task.Some(task.StatusDone),
			AssigneeID: task.Null[int64](),
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(MatchJSON(`{"status":"done","assigneeId":null}`))
	})
})
