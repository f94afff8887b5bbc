package overview_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/llmclient"
	"github.com/takahashim/broadlistening/internal/pctx"
	"github.com/takahashim/broadlistening/internal/stage/overview"
)

func withLevel1Labels() *pctx.Context {
	pc := pctx.New("")
	pc.ClusterNums = []int{1}
	pc.ClusterResults = domainmodel.ClusterResults{1: {0, 1}}
	pc.Labels = map[string]domainmodel.Cluster{
		"1_0": {Level: 1, ID: "1_0", Label: "topic a", Description: "desc a"},
		"1_1": {Level: 1, ID: "1_1", Label: "topic b", Description: "desc b"},
	}
	return pc
}

var _ = Describe("Run", func() {
	It("summarizes every labeled cluster into the overview prompt", func() {
		pc := withLevel1Labels()
		llm := llmclient.NewStub()
		llm.Default = func(_ int, req llmclient.Request) (string, error) {
			Expect(req.UserPrompt).To(ContainSubstring("topic a"))
			Expect(req.UserPrompt).To(ContainSubstring("topic b"))
			return `{"summary":"overall summary"}`, nil
		}

		usage, err := overview.Run(context.Background(), pc, domainmodel.Config{}, llm)
		Expect(err).NotTo(HaveOccurred())
		Expect(pc.Overview).NotTo(BeNil())
		Expect(*pc.Overview).To(Equal("overall summary"))
		Expect(usage.PromptTokens).To(BeNumerically(">", 0))
	})

	It("leaves the overview nil when no cluster is labeled", func() {
		pc := pctx.New("")
		pc.ClusterNums = []int{1}
		pc.ClusterResults = domainmodel.ClusterResults{1: {0}}
		pc.Labels = map[string]domainmodel.Cluster{"1_0": {Level: 1, ID: "1_0"}}
		llm := llmclient.NewStub()
		llm.Default = func(int, llmclient.Request) (string, error) {
			GinkgoT().Fatal("should not call the chat collaborator when no cluster is labeled")
			return "", nil
		}

		usage, err := overview.Run(context.Background(), pc, domainmodel.Config{}, llm)
		Expect(err).NotTo(HaveOccurred())
		Expect(pc.Overview).To(BeNil())
		Expect(usage).To(Equal(domainmodel.TokenUsage{}))
	})

	It("is a no-op when no cluster levels are configured", func() {
		pc := pctx.New("")
		llm := llmclient.NewStub()

		_, err := overview.Run(context.Background(), pc, domainmodel.Config{}, llm)
		Expect(err).NotTo(HaveOccurred())
		Expect(pc.Overview).To(BeNil())
	})
})

var _ = Describe("Params", func() {
	It("records the overview prompt", func() {
		llm := llmclient.NewStub()
		p := overview.Params(domainmodel.Config{Prompts: domainmodel.PromptsConfig{Overview: "summarize"}}, llm)
		Expect(p["prompt"]).To(Equal("summarize"))
	})
})
