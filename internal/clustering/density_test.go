package clustering_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/takahashim/broadlistening/internal/clustering"
)

var _ = Describe("Densities", func() {
	It("saturates a single-point cluster at the maximum density", func() {
		points := []clustering.Point{{0, 0}, {5, 5}, {5, 6}}
		labels := []int{0, 1, 1}
		centers := []clustering.Point{{0, 0}, {5, 5.5}}

		ds := clustering.Densities(points, labels, centers)
		Expect(ds).To(HaveLen(2))

		Expect(ds[0].Density).To(BeNumerically("~", 1e10, 1))
		Expect(ds[0].Rank).To(Equal(1))
		Expect(ds[0].RankPercentile).To(Equal(0.0))
	})

	It("ranks dense clusters ahead of sparse ones", func() {
		// Cluster 0 is tight (dense), cluster 1 is spread out (sparse).
		points := []clustering.Point{
			{0, 0}, {0, 0.1}, {0, -0.1},
			{10, 10}, {10, 20}, {10, -5},
		}
		labels := []int{0, 0, 0, 1, 1, 1}
		centers := []clustering.Point{{0, 0}, {10, 10}}

		ds := clustering.Densities(points, labels, centers)
		Expect(ds[0].Density).To(BeNumerically(">", ds[1].Density))
		Expect(ds[0].Rank).To(Equal(1))
		Expect(ds[1].Rank).To(Equal(2))
		Expect(ds[0].RankPercentile).To(Equal(0.0))
		Expect(ds[1].RankPercentile).To(Equal(1.0))
	})

	It("gives tied densities the same rank", func() {
		points := []clustering.Point{{0, 0}, {1, 1}}
		labels := []int{0, 1}
		centers := []clustering.Point{{0, 0}, {1, 1}}

		ds := clustering.Densities(points, labels, centers)
		Expect(ds[0].Density).To(Equal(ds[1].Density))
		Expect(ds[0].Rank).To(Equal(ds[1].Rank))
	})
})
