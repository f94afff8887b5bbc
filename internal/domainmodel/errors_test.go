package domainmodel_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/takahashim/broadlistening/internal/domainmodel"
)

var _ = Describe("LlmError", func() {
	It("unwraps to its cause and formats the attempt count", func() {
		cause := errors.New("rate limited")
		err := &domainmodel.LlmError{Attempts: 4, Err: cause}

		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("4 attempt"))
	})
})

var _ = Describe("EmbeddingError", func() {
	It("unwraps to its cause", func() {
		cause := errors.New("dimension mismatch")
		err := &domainmodel.EmbeddingError{Attempts: 1, Err: cause}
		Expect(errors.Is(err, cause)).To(BeTrue())
	})
})

var _ = Describe("PipelineError", func() {
	It("unwraps to its cause and names the failing step", func() {
		cause := errors.New("boom")
		err := &domainmodel.PipelineError{Step: "clustering", Err: cause}
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("clustering"))
	})
})

var _ = Describe("LockedError", func() {
	It("formats the status path", func() {
		err := &domainmodel.LockedError{StatusPath: "/out/status.json", LockUntil: "2026-01-01T00:00:00Z"}
		Expect(err.Error()).To(ContainSubstring("/out/status.json"))
	})
})
