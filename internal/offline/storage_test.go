package offline

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func cachedWith(body string) *CachedResponse {
	return &CachedResponse{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"text/plain"}},
		Body:   []byte(body),
	}
}

// describeStorage runs the Storage contract against the implementation build returns
func describeStorage(name string, build func() Storage) bool {
	return Describe(name, func() {
		var (
			ctx     context.Context
			storage Storage
		)

		BeforeEach(func() {
			ctx = context.Background()
			storage = build()
		})

		AfterEach(func() {
			storage.Close()
		})

		Describe("Open", func() {
			It("should create the cache", func() {
				_, err := storage.Open("spendy-v1")
				Expect(err).NotTo(HaveOccurred())
				Expect(storage.Keys()).To(ConsistOf("spendy-v1"))
			})

			It("should return the same contents when opened twice", func() {
				first, err := storage.Open("spendy-v1")
				Expect(err).NotTo(HaveOccurred())
				Expect(first.Put(ctx, "http://app/", cachedWith("home"))).To(Succeed())

				second, err := storage.Open("spendy-v1")
				Expect(err).NotTo(HaveOccurred())
				e, ok, err := second.Match(ctx, "http://app/")
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(string(e.Body)).To(Equal("home"))
			})
		})

		Describe("Cache", func() {
			var cache Cache

			BeforeEach(func() {
				var err error
				cache, err = storage.Open("spendy-runtime-v1")
				Expect(err).NotTo(HaveOccurred())
			})

			When("the key is missing", func() {
				It("should not match", func() {
					_, ok, err := cache.Match(ctx, "http://app/missing")
					Expect(err).NotTo(HaveOccurred())
					Expect(ok).To(BeFalse())
				})
			})

			When("an entry is stored", func() {
				BeforeEach(func() {
					Expect(cache.Put(ctx, "http://app/a.js", cachedWith("one"))).To(Succeed())
				})

				It("should keep status, headers and body", func() {
					e, ok, err := cache.Match(ctx, "http://app/a.js")
					Expect(err).NotTo(HaveOccurred())
					Expect(ok).To(BeTrue())
					Expect(e.Status).To(Equal(http.StatusOK))
					Expect(e.Header.Get("Content-Type")).To(Equal("text/plain"))
					Expect(string(e.Body)).To(Equal("one"))
				})

				It("should replace it on a second put", func() {
					Expect(cache.Put(ctx, "http://app/a.js", cachedWith("two"))).To(Succeed())
					e, _, err := cache.Match(ctx, "http://app/a.js")
					Expect(err).NotTo(HaveOccurred())
					Expect(string(e.Body)).To(Equal("two"))
				})

				It("should remove it on delete", func() {
					Expect(cache.Delete(ctx, "http://app/a.js")).To(Succeed())
					_, ok, err := cache.Match(ctx, "http://app/a.js")
					Expect(err).NotTo(HaveOccurred())
					Expect(ok).To(BeFalse())
				})
			})

			It("should ignore deleting a missing key", func() {
				Expect(cache.Delete(ctx, "http://app/none")).To(Succeed())
			})
		})

		Describe("Match", func() {
			BeforeEach(func() {
				precache, err := storage.Open("spendy-v1")
				Expect(err).NotTo(HaveOccurred())
				Expect(precache.Put(ctx, "http://app/index.html", cachedWith("shell"))).To(Succeed())

				runtime, err := storage.Open("spendy-runtime-v1")
				Expect(err).NotTo(HaveOccurred())
				Expect(runtime.Put(ctx, "http://app/data.json", cachedWith("data"))).To(Succeed())
			})

			It("should search every cache", func() {
				e, ok, err := storage.Match(ctx, "http://app/index.html")
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(string(e.Body)).To(Equal("shell"))

				e, ok, err = storage.Match(ctx, "http://app/data.json")
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
				Expect(string(e.Body)).To(Equal("data"))
			})

			It("should not match an unknown key", func() {
				_, ok, err := storage.Match(ctx, "http://app/other")
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())
			})
		})

		Describe("Delete", func() {
			It("should drop the cache and its entries", func() {
				cache, err := storage.Open("spendy-v0")
				Expect(err).NotTo(HaveOccurred())
				Expect(cache.Put(ctx, "http://app/", cachedWith("old"))).To(Succeed())

				Expect(storage.Delete("spendy-v0")).To(Succeed())
				Expect(storage.Keys()).To(BeEmpty())

				_, ok, err := storage.Match(ctx, "http://app/")
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())
			})

			It("should ignore a missing cache", func() {
				Expect(storage.Delete("nope")).To(Succeed())
			})
		})
	})
}

var _ = describeStorage("MemoryStorage", func() Storage {
	return NewMemoryStorage()
})
