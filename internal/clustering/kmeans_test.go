package clustering_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/takahashim/broadlistening/internal/clustering"
)

var _ = Describe("KMeans", func() {
	It("is deterministic for a fixed random state", func() {
		points := []clustering.Point{
			{0, 0}, {0, 1}, {1, 0},
			{10, 10}, {10, 11}, {11, 10},
		}

		r1, err := clustering.KMeans(points, 2, 0, 42)
		Expect(err).NotTo(HaveOccurred())
		r2, err := clustering.KMeans(points, 2, 0, 42)
		Expect(err).NotTo(HaveOccurred())
		Expect(r1.Labels).To(Equal(r2.Labels))

		for i := 1; i < 3; i++ {
			Expect(r1.Labels[i]).To(Equal(r1.Labels[0]))
			Expect(r1.Labels[i+3]).To(Equal(r1.Labels[3]))
		}
		Expect(r1.Labels[3]).NotTo(Equal(r1.Labels[0]))
	})

	It("rejects a non-positive k", func() {
		_, err := clustering.KMeans([]clustering.Point{{0, 0}}, 0, 0, 1)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("must be positive"))
	})

	It("rejects k greater than n", func() {
		points := []clustering.Point{{0, 0}, {1, 1}}
		_, err := clustering.KMeans(points, 3, 0, 1)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("n_clusters must be ≤ n_samples"))
	})

	DescribeTable("AutoClusterNums picks level counts from the sample size",
		func(n int, want []int) {
			Expect(clustering.AutoClusterNums(n)).To(Equal(want))
		},
		Entry("small sample", 4, []int{2, 4}),
		Entry("large sample", 100, []int{5, 20}),
		Entry("singleton sample", 1, []int{1}),
	)

	It("validates cluster nums against the sample size", func() {
		Expect(clustering.ValidateClusterNums([]int{2, 4}, 10)).To(Succeed())
		Expect(clustering.ValidateClusterNums([]int{0}, 10)).To(HaveOccurred())
		Expect(clustering.ValidateClusterNums([]int{20}, 10)).To(HaveOccurred())
	})
})
