package clustering_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/pctx"
	"github.com/takahashim/broadlistening/internal/reducer"
	"github.com/takahashim/broadlistening/internal/stage/clustering"
)

func fourArgs() []domainmodel.Argument {
	return []domainmodel.Argument{
		{ArgID: "A1_0", Embedding: []float64{0, 0}},
		{ArgID: "A2_0", Embedding: []float64{0, 1}},
		{ArgID: "A3_0", Embedding: []float64{5, 5}},
		{ArgID: "A4_0", Embedding: []float64{5, 6}},
	}
}

var _ = Describe("ResolveClusterNums", func() {
	It("prefers explicit cluster_nums over auto", func() {
		cfg := domainmodel.Config{ClusterNums: []int{1, 2}, AutoClusterNums: true}
		Expect(clustering.ResolveClusterNums(cfg, 10)).To(Equal([]int{1, 2}))
	})

	It("derives cluster_nums automatically when explicit ones are absent", func() {
		cfg := domainmodel.Config{AutoClusterNums: true}
		Expect(clustering.ResolveClusterNums(cfg, 16)).NotTo(BeEmpty())
	})

	It("yields empty when neither explicit nor auto is set", func() {
		cfg := domainmodel.Config{}
		Expect(clustering.ResolveClusterNums(cfg, 16)).To(BeEmpty())
	})
})

var _ = Describe("Run", func() {
	It("populates x/y and cluster_ids for every argument", func() {
		pc := pctx.New(GinkgoT().TempDir())
		pc.Arguments = fourArgs()
		reduce := &reducer.Stub{Points: [][2]float64{{0, 0}, {0, 1}, {5, 5}, {5, 6}}}

		err := clustering.Run(context.Background(), pc, []int{1, 2}, 42, reduce)
		Expect(err).NotTo(HaveOccurred())

		for _, a := range pc.Arguments {
			Expect(a.ClusterIDs).To(HaveLen(3)) // root + level 1 + level 2
			Expect(a.ClusterIDs[0]).To(Equal("0"))
		}
		Expect(pc.ClusterNums).To(Equal([]int{1, 2}))
		Expect(pc.Labels).NotTo(BeEmpty())
		for _, l := range pc.Labels {
			Expect(l.DensityRankPercentile).NotTo(BeNil())
		}
	})

	It("rejects k greater than n as a clustering error", func() {
		pc := pctx.New(GinkgoT().TempDir())
		pc.Arguments = fourArgs()
		reduce := &reducer.Stub{Points: [][2]float64{{0, 0}, {0, 1}, {5, 5}, {5, 6}}}

		err := clustering.Run(context.Background(), pc, []int{10}, 42, reduce)
		Expect(err).To(HaveOccurred())
		var clusterErr *domainmodel.ClusteringError
		Expect(errors.As(err, &clusterErr)).To(BeTrue())
	})

	It("wraps a reducer failure in a pipeline error", func() {
		pc := pctx.New(GinkgoT().TempDir())
		pc.Arguments = fourArgs()
		reduce := &reducer.Stub{Err: errors.New("reduce failed")}

		err := clustering.Run(context.Background(), pc, []int{2}, 42, reduce)
		Expect(err).To(HaveOccurred())
		var pipeErr *domainmodel.PipelineError
		Expect(errors.As(err, &pipeErr)).To(BeTrue())
	})
})

var _ = Describe("Params", func() {
	It("records the configured cluster_nums", func() {
		p := clustering.Params([]int{3, 9})
		Expect(p["cluster_nums"]).To(Equal([]int{3, 9}))
	})
})
