package validate_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"cartstream.app/ingest/internal/model"
	"cartstream.app/ingest/internal/validate"
)

func validPayload() map[string]any {
	return map[string]any{
		"event_id":   "7f2c1fd0-5b1a-4c8e-9a3f-2d6a8e4b9c01",
		"user_id":    "U1",
		"event_type": "purchase",
		"product_id": "P1",
		"category":   "electronics",
		"price":      12.5,
		"device":     "mobile",
		"city":       "Lagos",
		"event_time": "2024-01-01T00:00:00Z",
	}
}

func defectFields(defects []model.Defect) []string {
	fields := make([]string, 0, len(defects))
	for _, d := range defects {
		fields = append(fields, d.Field)
	}
	return fields
}

var _ = Describe("Event", func() {
	Context("with a fully valid payload", func() {
		It("returns a typed event and no defects", func() {
			ev, defects := validate.Event(validPayload())

			Expect(defects).To(BeEmpty())
			Expect(ev).NotTo(BeNil())
			Expect(ev.EventID.String()).To(Equal("7f2c1fd0-5b1a-4c8e-9a3f-2d6a8e4b9c01"))
			Expect(ev.UserID).To(Equal("U1"))
			Expect(ev.EventType).To(Equal(model.EventTypePurchase))
			Expect(ev.Device).To(Equal(model.DeviceMobile))
			Expect(ev.Price).To(Equal(12.5))
			Expect(ev.EventTime).To(Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
		})

		It("ignores unrecognized extra keys", func() {
			payload := validPayload()
			payload["session_id"] = "abc"
			payload["ip"] = "203.0.113.9"

			_, defects := validate.Event(payload)
			Expect(defects).To(BeEmpty())
		})

		It("accepts price as a numeric string", func() {
			payload := validPayload()
			payload["price"] = "19.99"

			ev, defects := validate.Event(payload)
			Expect(defects).To(BeEmpty())
			Expect(ev.Price).To(Equal(19.99))
		})
	})

	Context("with missing fields", func() {
		It("reports a single defect for a missing event_type", func() {
			payload := validPayload()
			delete(payload, "event_type")

			ev, defects := validate.Event(payload)
			Expect(ev).To(BeNil())
			Expect(defects).To(HaveLen(1))
			Expect(defects[0].Field).To(Equal("event_type"))
			Expect(defects[0].Kind).To(Equal(model.DefectMissing))
		})

		It("collects one defect per missing field instead of short-circuiting", func() {
			ev, defects := validate.Event(map[string]any{})

			Expect(ev).To(BeNil())
			Expect(defectFields(defects)).To(ConsistOf(
				"event_id", "user_id", "product_id", "category", "city",
				"event_type", "device", "price", "event_time",
			))
		})
	})

	Context("with malformed fields", func() {
		It("rejects a negative price", func() {
			payload := validPayload()
			payload["price"] = -5.0

			ev, defects := validate.Event(payload)
			Expect(ev).To(BeNil())
			Expect(defects).To(HaveLen(1))
			Expect(defects[0].Field).To(Equal("price"))
			Expect(defects[0].Kind).To(Equal(model.DefectOutOfRange))
		})

		It("rejects a non-UUID event_id", func() {
			payload := validPayload()
			payload["event_id"] = "not-a-uuid"

			_, defects := validate.Event(payload)
			Expect(defectFields(defects)).To(ConsistOf("event_id"))
		})

		It("rejects an event_type outside the canonical set", func() {
			payload := validPayload()
			payload["event_type"] = "Purchase" // case-sensitive

			_, defects := validate.Event(payload)
			Expect(defects).To(HaveLen(1))
			Expect(defects[0].Kind).To(Equal(model.DefectNotMember))
		})

		It("rejects a device outside the canonical set", func() {
			payload := validPayload()
			payload["device"] = "smartwatch"

			_, defects := validate.Event(payload)
			Expect(defectFields(defects)).To(ConsistOf("device"))
		})

		It("rejects strings over 128 characters", func() {
			payload := validPayload()
			payload["city"] = strings.Repeat("x", 129)

			_, defects := validate.Event(payload)
			Expect(defects).To(HaveLen(1))
			Expect(defects[0].Field).To(Equal("city"))
			Expect(defects[0].Kind).To(Equal(model.DefectTooLong))
		})

		It("rejects empty mandatory strings", func() {
			payload := validPayload()
			payload["user_id"] = ""

			_, defects := validate.Event(payload)
			Expect(defectFields(defects)).To(ConsistOf("user_id"))
		})

		It("treats an unparsable event_time as a hard defect", func() {
			payload := validPayload()
			payload["event_time"] = "yesterday"

			ev, defects := validate.Event(payload)
			Expect(ev).To(BeNil())
			Expect(defects).To(HaveLen(1))
			Expect(defects[0].Field).To(Equal("event_time"))
		})

		It("reports wrong-type fields as invalid, not missing", func() {
			payload := validPayload()
			payload["user_id"] = 42.0

			_, defects := validate.Event(payload)
			Expect(defects).To(HaveLen(1))
			Expect(defects[0].Kind).To(Equal(model.DefectInvalid))
		})
	})
})
