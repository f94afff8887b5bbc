package input_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/takahashim/broadlistening/internal/input"
)

func writeTemp(name, contents string) string {
	path := filepath.Join(GinkgoT().TempDir(), name)
	Expect(os.WriteFile(path, []byte(contents), 0o644)).To(Succeed())
	return path
}

var _ = Describe("Load", func() {
	Context("CSV input", func() {
		It("parses the body and attribute_* columns", func() {
			path := writeTemp("comments.csv", "comment-id,comment-body,source-url,attribute_age\n1,hello,https://x/1,30\n2,world,,\n")

			comments, err := input.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(comments).To(HaveLen(2))
			Expect(comments[0].ID).To(Equal("1"))
			Expect(comments[0].Body).To(Equal("hello"))
			Expect(comments[0].SourceURL).To(Equal("https://x/1"))
			Expect(comments[0].Attributes["age"]).To(Equal("30"))
			Expect(comments[1].Attributes).To(BeEmpty())
		})

		It("errors when the comment-id column is missing", func() {
			path := writeTemp("comments.csv", "body\nhello\n")
			_, err := input.Load(path)
			Expect(err).To(HaveOccurred())
		})

		It("errors when a row's comment-id value is empty", func() {
			path := writeTemp("comments.csv", "comment-id,comment-body\n,hello\n")
			_, err := input.Load(path)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("JSON input", func() {
		It("accepts id/comment_id and comment/body key variants", func() {
			path := writeTemp("comments.json", `[
				{"id": "1", "comment": "first"},
				{"comment_id": "2", "body": "second", "source-url": "https://x/2"}
			]`)

			comments, err := input.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(comments).To(HaveLen(2))
			Expect(comments[0].Body).To(Equal("first"))
			Expect(comments[1].ID).To(Equal("2"))
			Expect(comments[1].SourceURL).To(Equal("https://x/2"))
		})

		It("errors when an entry has no id", func() {
			path := writeTemp("comments.json", `[{"body": "no id here"}]`)
			_, err := input.Load(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
