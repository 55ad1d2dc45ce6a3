package scanning

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Amount", func() {
	decode := func(raw string) (Amount, error) {
		var a Amount
		err := json.Unmarshal([]byte(raw), &a)
		return a, err
	}

	It("should decode a plain number", func() {
		a, err := decode(`12.5`)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(Amount(12.5)))
	})

	It("should decode null as zero", func() {
		a, err := decode(`null`)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(BeZero())
	})

	It("should decode an empty string as zero", func() {
		a, err := decode(`"  "`)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(BeZero())
	})

	It("should accept a decimal comma with a trailing currency", func() {
		a, err := decode(`"49,90 kr"`)
		Expect(err).NotTo(HaveOccurred())
		Expect(float64(a)).To(BeNumerically("~", 49.90, 0.001))
	})

	It("should accept a leading currency", func() {
		a, err := decode(`"kr 49,90"`)
		Expect(err).NotTo(HaveOccurred())
		Expect(float64(a)).To(BeNumerically("~", 49.90, 0.001))
	})

	It("should accept SEK in either case", func() {
		a, err := decode(`"SEK 10"`)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(Amount(10)))

		a, err = decode(`"10 sek"`)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(Amount(10)))
	})

	It("should treat dots as grouping when a decimal comma follows", func() {
		a, err := decode(`"1.234,50"`)
		Expect(err).NotTo(HaveOccurred())
		Expect(float64(a)).To(BeNumerically("~", 1234.50, 0.001))
	})

	It("should treat commas as grouping when a decimal dot follows", func() {
		a, err := decode(`"1,234.50"`)
		Expect(err).NotTo(HaveOccurred())
		Expect(float64(a)).To(BeNumerically("~", 1234.50, 0.001))
	})

	It("should drop space and non-breaking space grouping", func() {
		a, err := decode(`"1 234,50 kr"`)
		Expect(err).NotTo(HaveOccurred())
		Expect(float64(a)).To(BeNumerically("~", 1234.50, 0.001))

		a, err = decode("\"2\u00a0500 kr\"")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(Amount(2500)))
	})

	It("should accept the kronor dash notation", func() {
		a, err := decode(`"49:-"`)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(Amount(49)))
	})

	It("should reject text that is not a number", func() {
		_, err := decode(`"gratis"`)
		Expect(err).To(HaveOccurred())
	})
})
