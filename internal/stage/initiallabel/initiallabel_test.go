package initiallabel_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	clusteringmath "github.com/takahashim/broadlistening/internal/clustering"
	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/events"
	"github.com/takahashim/broadlistening/internal/llmclient"
	"github.com/takahashim/broadlistening/internal/pctx"
	"github.com/takahashim/broadlistening/internal/stage/initiallabel"
)

func withClusters(pc *pctx.Context) {
	pc.Arguments = []domainmodel.Argument{
		{ArgID: "A1_0", Argument: "first opinion"},
		{ArgID: "A2_0", Argument: "second opinion"},
	}
	pc.ClusterNums = []int{2}
	pc.ClusterResults = domainmodel.ClusterResults{2: {0, 1}}
}

var _ = Describe("Run", func() {
	It("labels every deepest-level cluster", func() {
		pc := pctx.New(GinkgoT().TempDir())
		withClusters(pc)
		llm := llmclient.NewStub()
		llm.Default = func(int, llmclient.Request) (string, error) {
			return `{"label":"topic","description":"desc"}`, nil
		}

		usage, err := initiallabel.Run(context.Background(), pc, domainmodel.Config{}, llm, events.Nop{})
		Expect(err).NotTo(HaveOccurred())
		Expect(usage.PromptTokens).To(BeNumerically(">", 0))

		id0 := clusteringmath.ClusterID(2, 0)
		id1 := clusteringmath.ClusterID(2, 1)
		Expect(pc.InitialLabels).To(HaveKey(id0))
		Expect(pc.InitialLabels).To(HaveKey(id1))
		Expect(pc.InitialLabels[id0].Label).To(Equal("topic"))
	})

	It("leaves the label empty when a cluster's labelling call fails", func() {
		pc := pctx.New(GinkgoT().TempDir())
		withClusters(pc)
		llm := llmclient.NewStub()
		llm.Default = func(int, llmclient.Request) (string, error) {
			return "", errors.New("permanent")
		}

		_, err := initiallabel.Run(context.Background(), pc, domainmodel.Config{}, llm, events.Nop{})
		Expect(err).NotTo(HaveOccurred())
		id0 := clusteringmath.ClusterID(2, 0)
		Expect(pc.InitialLabels[id0].Label).To(BeEmpty())
	})

	It("is a no-op when no cluster levels are configured", func() {
		pc := pctx.New(GinkgoT().TempDir())
		llm := llmclient.NewStub()

		usage, err := initiallabel.Run(context.Background(), pc, domainmodel.Config{}, llm, events.Nop{})
		Expect(err).NotTo(HaveOccurred())
		Expect(usage).To(Equal(domainmodel.TokenUsage{}))
	})
})

var _ = Describe("Params", func() {
	It("records the labelling prompt and model", func() {
		llm := llmclient.NewStub()
		p := initiallabel.Params(domainmodel.Config{Prompts: domainmodel.PromptsConfig{InitialLabelling: "label"}}, llm)
		Expect(p["prompt"]).To(Equal("label"))
		Expect(p["model"]).To(Equal("stub-model"))
	})
})
