package domainmodel_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/takahashim/broadlistening/internal/domainmodel"
)

var _ = Describe("MakeArgID and ArgIndex", func() {
	It("round-trip a comment id and argument index", func() {
		id := domainmodel.MakeArgID("42", 3)
		Expect(id).To(Equal("A42_3"))

		idx, ok := domainmodel.ArgIndex(id)
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(3))
	})

	DescribeTable("rejects malformed argument ids",
		func(id string) {
			_, ok := domainmodel.ArgIndex(id)
			Expect(ok).To(BeFalse())
		},
		Entry("no underscore", "no-underscore"),
		Entry("trailing underscore", "trailing_"),
		Entry("non-numeric suffix", "A1_notanumber"),
	)
})

var _ = Describe("TokenUsage", func() {
	It("adds prompt and completion tokens", func() {
		a := domainmodel.TokenUsage{PromptTokens: 10, CompletionTokens: 5}
		b := domainmodel.TokenUsage{PromptTokens: 2, CompletionTokens: 1}
		Expect(a.Add(b)).To(Equal(domainmodel.TokenUsage{PromptTokens: 12, CompletionTokens: 6}))
	})
})

var _ = Describe("Config", func() {
	Describe("WorkersOrDefault", func() {
		It("defaults unset or negative worker counts to 10", func() {
			Expect(domainmodel.Config{}.WorkersOrDefault()).To(Equal(10))
			Expect(domainmodel.Config{Workers: -1}.WorkersOrDefault()).To(Equal(10))
			Expect(domainmodel.Config{Workers: 4}.WorkersOrDefault()).To(Equal(4))
		})
	})

	Describe("Export", func() {
		It("includes limit only when it's set", func() {
			m := domainmodel.Config{Model: "gpt-test"}.Export()
			Expect(m).NotTo(HaveKey("limit"))

			limit := 7
			m = domainmodel.Config{Model: "gpt-test", Limit: &limit}.Export()
			Expect(m["limit"]).To(Equal(7))
		})
	})
})

var _ = Describe("ResolveCommentID", func() {
	It("prefers a numeric comment id", func() {
		Expect(domainmodel.ResolveCommentID("A42_0", "42")).To(Equal(42))
	})

	It("falls back to the digits in the argument id when the comment id isn't numeric", func() {
		Expect(domainmodel.ResolveCommentID("A7_2", "c7")).To(Equal(7))
	})

	It("falls back to the raw comment id when neither has digits", func() {
		Expect(domainmodel.ResolveCommentID("Aabc_0", "abc")).To(Equal("abc"))
	})
})
