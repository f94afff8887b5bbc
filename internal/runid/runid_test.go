package runid_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/takahashim/broadlistening/internal/runid"
)

var _ = Describe("New", func() {
	It("returns distinct ids on successive calls", func() {
		Expect(runid.Init()).To(Succeed())
		a := runid.New()
		b := runid.New()
		Expect(a).NotTo(BeEmpty())
		Expect(b).NotTo(BeEmpty())
		Expect(a).NotTo(Equal(b))
	})
})

var _ = Describe("Init", func() {
	It("is safe to call more than once", func() {
		Expect(runid.Init()).To(Succeed())
		Expect(runid.Init()).To(Succeed())
	})
})
