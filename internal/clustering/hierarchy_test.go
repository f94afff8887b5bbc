package clustering_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/takahashim/broadlistening/internal/clustering"
	"github.com/takahashim/broadlistening/internal/domainmodel"
)

var _ = Describe("AssembleHierarchy", func() {
	It("roots every path at cluster 0", func() {
		results := domainmodel.ClusterResults{
			2: {0, 0, 1, 1},
			4: {0, 1, 2, 3},
		}
		h, err := clustering.AssembleHierarchy([]int{2, 4}, results, 4)
		Expect(err).NotTo(HaveOccurred())

		for _, path := range h.Paths {
			Expect(path).To(HaveLen(3))
			Expect(path[0]).To(Equal(clustering.RootID))
		}
		Expect(h.Paths[0]).To(Equal([]string{"0", "2_0", "4_0"}))
		Expect(h.Paths[1]).To(Equal([]string{"0", "2_0", "4_1"}))
		Expect(h.Paths[2]).To(Equal([]string{"0", "2_1", "4_2"}))
		Expect(h.Paths[3]).To(Equal([]string{"0", "2_1", "4_3"}))
	})

	It("assigns the majority parent, breaking ties on the smaller index", func() {
		// Child cluster 0 splits evenly between parents 0 and 1; the smaller
		// parent index wins the tie.
		results := domainmodel.ClusterResults{
			2: {0, 1},
			4: {0, 0},
		}
		h, err := clustering.AssembleHierarchy([]int{2, 4}, results, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(h.Parents[clustering.ClusterID(4, 0)]).To(Equal(clustering.ClusterID(2, 0)))
	})

	It("parents the shallowest level directly under the root", func() {
		results := domainmodel.ClusterResults{2: {0, 1}}
		h, err := clustering.AssembleHierarchy([]int{2}, results, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(h.Parents[clustering.ClusterID(2, 0)]).To(Equal(clustering.RootID))
		Expect(h.Parents[clustering.ClusterID(2, 1)]).To(Equal(clustering.RootID))
	})

	It("errors when a level's label count doesn't match n", func() {
		results := domainmodel.ClusterResults{2: {0, 1}}
		_, err := clustering.AssembleHierarchy([]int{2}, results, 3)
		Expect(err).To(HaveOccurred())
	})
})
