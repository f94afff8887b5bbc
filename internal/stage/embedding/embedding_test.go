package embedding_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/embedclient"
	"github.com/takahashim/broadlistening/internal/pctx"
	"github.com/takahashim/broadlistening/internal/stage/embedding"
)

var _ = Describe("Run", func() {
	It("assigns embeddings to every argument in order", func() {
		pc := pctx.New(GinkgoT().TempDir())
		pc.Arguments = []domainmodel.Argument{
			{ArgID: "A1_0", Argument: "first"},
			{ArgID: "A1_1", Argument: "second"},
		}
		client := &embedclient.Stub{Dim: 4}

		usage, err := embedding.Run(context.Background(), pc, domainmodel.Config{EmbeddingModel: "embed-test"}, client)
		Expect(err).NotTo(HaveOccurred())
		Expect(pc.Arguments[0].Embedding).To(HaveLen(4))
		Expect(pc.Arguments[1].Embedding).To(HaveLen(4))
		Expect(usage.PromptTokens).To(BeNumerically(">", 0))
	})

	It("batches above the max batch size", func() {
		pc := pctx.New(GinkgoT().TempDir())
		n := embedding.MaxBatchSize + 5
		for i := 0; i < n; i++ {
			pc.Arguments = append(pc.Arguments, domainmodel.Argument{ArgID: domainmodel.MakeArgID("c", i), Argument: "text"})
		}
		client := &embedclient.Stub{Dim: 2}

		_, err := embedding.Run(context.Background(), pc, domainmodel.Config{}, client)
		Expect(err).NotTo(HaveOccurred())
		for _, a := range pc.Arguments {
			Expect(a.Embedding).To(HaveLen(2))
		}
	})

	It("errors when vector dimensions are inconsistent within a run", func() {
		pc := pctx.New(GinkgoT().TempDir())
		pc.Arguments = []domainmodel.Argument{
			{ArgID: "A1_0", Argument: "first"},
			{ArgID: "A1_1", Argument: "second"},
		}
		calls := 0
		client := &embedclient.Stub{Vector: func(call int, text string) []float64 {
			calls++
			if calls == 1 {
				return []float64{1, 2}
			}
			return []float64{1, 2, 3}
		}}

		_, err := embedding.Run(context.Background(), pc, domainmodel.Config{}, client)
		Expect(err).To(HaveOccurred())
		var embedErr *domainmodel.EmbeddingError
		Expect(errors.As(err, &embedErr)).To(BeTrue())
	})

	It("is a no-op for an empty argument list", func() {
		pc := pctx.New(GinkgoT().TempDir())
		client := &embedclient.Stub{Dim: 3}

		usage, err := embedding.Run(context.Background(), pc, domainmodel.Config{}, client)
		Expect(err).NotTo(HaveOccurred())
		Expect(usage).To(Equal(domainmodel.TokenUsage{}))
	})

	It("retries a transient failure and then succeeds", func() {
		pc := pctx.New(GinkgoT().TempDir())
		pc.Arguments = []domainmodel.Argument{{ArgID: "A1_0", Argument: "text"}}
		client := &embedclient.Stub{Dim: 3, FailCalls: 1, Err: errors.New("transient")}

		_, err := embedding.Run(context.Background(), pc, domainmodel.Config{}, client)
		Expect(err).NotTo(HaveOccurred())
		Expect(pc.Arguments[0].Embedding).To(HaveLen(3))
	})
})

var _ = Describe("Params", func() {
	It("records the embedding model", func() {
		p := embedding.Params(domainmodel.Config{EmbeddingModel: "embed-test"})
		Expect(p["model"]).To(Equal("embed-test"))
	})
})
