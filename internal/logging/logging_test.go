package logging_test

import (
	"bytes"
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/takahashim/broadlistening/internal/logging"
)

var _ = Describe("WithFields", func() {
	It("merges non-empty values from successive calls", func() {
		ctx := logging.WithFields(context.Background(), logging.Fields{OutputDir: "/out", RunID: "run-1"})
		ctx = logging.WithFields(ctx, logging.Fields{Step: "extraction"})

		f := logging.FieldsFromContext(ctx)
		Expect(f.OutputDir).To(Equal("/out"))
		Expect(f.RunID).To(Equal("run-1"))
		Expect(f.Step).To(Equal("extraction"))
	})

	It("keeps existing values when the override leaves them empty", func() {
		ctx := logging.WithFields(context.Background(), logging.Fields{OutputDir: "/out"})
		ctx = logging.WithFields(ctx, logging.Fields{})

		Expect(logging.FieldsFromContext(ctx).OutputDir).To(Equal("/out"))
	})
})

var _ = Describe("FieldsFromContext", func() {
	It("defaults to the zero value for a bare context", func() {
		Expect(logging.FieldsFromContext(context.Background())).To(Equal(logging.Fields{}))
	})
})

var _ = Describe("FieldHandler", func() {
	It("adds the context's fields to every log record", func() {
		var buf bytes.Buffer
		h := logging.NewFieldHandler(slog.NewTextHandler(&buf, nil))
		logger := slog.New(h)

		ctx := logging.WithFields(context.Background(), logging.Fields{OutputDir: "/out", Step: "embedding", RunID: "r1"})
		logger.InfoContext(ctx, "stage completed")

		out := buf.String()
		Expect(out).To(ContainSubstring("output_dir=/out"))
		Expect(out).To(ContainSubstring("step=embedding"))
		Expect(out).To(ContainSubstring("run_id=r1"))
	})
})

var _ = Describe("Truncate", func() {
	It("passes short strings through unchanged and ellipsizes long ones", func() {
		Expect(logging.Truncate("hello", 10)).To(Equal("hello"))
		Expect(logging.Truncate("hello", 3)).To(Equal("hel..."))
	})
})
