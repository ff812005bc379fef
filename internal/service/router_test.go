package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"cartstream.app/ingest/internal/model"
	"cartstream.app/ingest/internal/rows"
	"cartstream.app/ingest/internal/service"
	"cartstream.app/ingest/internal/sink"
)

const testEventID = "7f2c1fd0-5b1a-4c8e-9a3f-2d6a8e4b9c01"

func validPayload() map[string]any {
	return map[string]any{
		"event_id":   testEventID,
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

var _ = Describe("EventRouter", func() {
	var (
		writer *mockWriter
		router service.EventRouter
		sinks  service.SinkSet
		meta   model.DeliveryMetadata
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		writer = &mockWriter{}
		sinks = service.SinkSet{
			Raw:       sink.Destination{Dataset: "ds", Table: "raw"},
			Processed: sink.Destination{Dataset: "ds", Table: "processed"},
			Error:     sink.Destination{Dataset: "ds", Table: "errors"},
		}
		router = service.NewEventRouter(writer, sinks, rows.New("pubsub"), nil)
		meta = model.DeliveryMetadata{
			MessageID:   "m-1",
			PublishTime: "2024-03-01T11:59:58Z",
			Attributes:  map[string]string{"schema_version": "1"},
		}
	})

	Context("with a valid event", func() {
		It("writes raw and processed rows, no error row", func() {
			result, err := router.Route(ctx, validPayload(), meta)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsValid).To(BeTrue())
			Expect(writer.rawWrites).To(HaveLen(1))
			Expect(writer.processedWrites).To(HaveLen(1))
			Expect(writer.errorWrites).To(BeEmpty())

			Expect(writer.rawWrites[0].dest).To(Equal(sinks.Raw))
			Expect(writer.rawWrites[0].row.IsValid).To(BeTrue())
			Expect(writer.processedWrites[0].dest).To(Equal(sinks.Processed))
			Expect(writer.processedWrites[0].row.Price).To(Equal(12.5))
			Expect(writer.processedWrites[0].row.Device).To(Equal("mobile"))
		})

		It("derives the insert id from event_id and reuses it for both writes", func() {
			result, err := router.Route(ctx, validPayload(), meta)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.InsertID).To(Equal(testEventID))
			Expect(writer.rawWrites[0].insertID).To(Equal(testEventID))
			Expect(writer.processedWrites[0].insertID).To(Equal(testEventID))
		})

		It("stamps the same ingestion instant on every row", func() {
			_, err := router.Route(ctx, validPayload(), meta)

			Expect(err).NotTo(HaveOccurred())
			Expect(writer.processedWrites[0].row.IngestionTime).To(
				Equal(writer.rawWrites[0].row.IngestionTime))
		})
	})

	Context("with an invalid event", func() {
		var payload map[string]any

		BeforeEach(func() {
			payload = validPayload()
			delete(payload, "event_type")
		})

		It("writes raw and validation error rows, no processed row, and acks", func() {
			result, err := router.Route(ctx, payload, meta)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsValid).To(BeFalse())
			Expect(result.Defects).To(HaveLen(1))
			Expect(result.Defects[0].Field).To(Equal("event_type"))

			Expect(writer.rawWrites).To(HaveLen(1))
			Expect(writer.rawWrites[0].row.IsValid).To(BeFalse())
			Expect(writer.rawWrites[0].row.ValidationErrors).NotTo(BeNil())
			Expect(writer.processedWrites).To(BeEmpty())
			Expect(writer.errorWrites).To(HaveLen(1))
			Expect(writer.errorWrites[0].dest).To(Equal(sinks.Error))
			Expect(writer.errorWrites[0].row.Stage).To(Equal(model.StageValidation))
		})

		It("falls back to message_id for the insert id", func() {
			result, err := router.Route(ctx, payload, meta)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.InsertID).To(Equal("m-1"))
			Expect(writer.rawWrites[0].insertID).To(Equal("m-1"))
			Expect(writer.errorWrites[0].insertID).To(Equal("m-1"))
		})

		It("derives an absent insert id when message_id is also missing", func() {
			result, err := router.Route(ctx, payload, model.DeliveryMetadata{})

			Expect(err).NotTo(HaveOccurred())
			Expect(result.InsertID).To(BeEmpty())
		})

		It("still acks when the error sink write fails", func() {
			writer.insertErrorFn = func(ctx context.Context, dest sink.Destination, row *model.ErrorRow, insertID string) error {
				return &sink.WriteError{Dest: dest, Transient: true, Err: context.DeadlineExceeded}
			}

			_, err := router.Route(ctx, payload, meta)
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.errorWrites).To(HaveLen(1))
		})

		It("rejects a negative price the same way", func() {
			p := validPayload()
			p["price"] = -5.0

			result, err := router.Route(ctx, p, meta)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsValid).To(BeFalse())
			Expect(result.Defects[0].Field).To(Equal("price"))
			Expect(writer.processedWrites).To(BeEmpty())
			Expect(writer.errorWrites[0].row.Stage).To(Equal(model.StageValidation))
		})
	})

	Context("when the raw write fails", func() {
		BeforeEach(func() {
			writer.insertRawFn = func(ctx context.Context, dest sink.Destination, row *model.RawRow, insertID string) error {
				return &sink.WriteError{Dest: dest, Transient: true, Err: context.DeadlineExceeded}
			}
		})

		It("propagates the failure and attempts nothing else", func() {
			_, err := router.Route(ctx, validPayload(), meta)

			Expect(err).To(HaveOccurred())
			Expect(sink.IsTransient(err)).To(BeTrue())
			Expect(writer.processedWrites).To(BeEmpty())
			Expect(writer.errorWrites).To(BeEmpty())
		})
	})

	Context("when the processed write fails", func() {
		BeforeEach(func() {
			writer.insertProcessedFn = func(ctx context.Context, dest sink.Destination, row *model.ProcessedRow, insertID string) error {
				return &sink.WriteError{Dest: dest, Transient: true, Err: context.DeadlineExceeded}
			}
		})

		It("attempts a processed_insert error row and propagates the original failure", func() {
			_, err := router.Route(ctx, validPayload(), meta)

			Expect(err).To(HaveOccurred())
			Expect(sink.IsTransient(err)).To(BeTrue())
			Expect(writer.errorWrites).To(HaveLen(1))
			Expect(writer.errorWrites[0].row.Stage).To(Equal(model.StageProcessedInsert))
			Expect(writer.errorWrites[0].row.ErrorMessage).NotTo(BeEmpty())
		})

		It("never lets a failed diagnostic write mask the original failure", func() {
			writer.insertErrorFn = func(ctx context.Context, dest sink.Destination, row *model.ErrorRow, insertID string) error {
				return &sink.WriteError{Dest: dest, Transient: true, Err: context.Canceled}
			}

			_, err := router.Route(ctx, validPayload(), meta)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("writing processed row"))
			Expect(writer.errorWrites).To(HaveLen(1))
		})
	})
})
