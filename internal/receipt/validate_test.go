package receipt

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// itemsWithOther builds n items of 10 SEK, the first other of them categorized "Other"
func itemsWithOther(n, other int) []Item {
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		category := "Groceries"
		if i < other {
			category = "Other"
		}
		items = append(items, Item{Name: fmt.Sprintf("item-%d", i), Price: 10, Category: category})
	}
	return items
}

func findWarning(v Validation, issueType string) *Issue {
	for i := range v.Warnings {
		if v.Warnings[i].Type == issueType {
			return &v.Warnings[i]
		}
	}
	return nil
}

var _ = Describe("Validate", func() {
	var (
		receipt *Receipt
		result  Validation
	)

	BeforeEach(func() {
		receipt = &Receipt{
			Store: strPtr("ICA"),
			Date:  strPtr("2025-01-15"),
			Items: []Item{
				{Name: "a", Price: 10, Category: "Groceries"},
				{Name: "b", Price: 20, Category: "Groceries"},
			},
			Total: 30,
		}
	})

	JustBeforeEach(func() {
		result = Validate(receipt)
	})

	When("the receipt is consistent", func() {
		It("should be valid without warnings", func() {
			Expect(result.IsValid).To(BeTrue())
			Expect(result.Errors).To(BeEmpty())
			Expect(result.Warnings).To(BeEmpty())
		})

		It("should report two-decimal summaries", func() {
			Expect(result.ItemsSum).To(Equal("30.00"))
			Expect(result.Total).To(Equal("30.00"))
			Expect(*result.Categorized).To(Equal(2))
			Expect(*result.Uncategorized).To(Equal(0))
		})
	})

	When("the items list is empty", func() {
		BeforeEach(func() {
			receipt.Items = []Item{}
			receipt.Store = nil
		})

		It("should be invalid with a single no_items error", func() {
			Expect(result.IsValid).To(BeFalse())
			Expect(result.Errors).To(HaveLen(1))
			Expect(result.Errors[0].Type).To(Equal("no_items"))
		})

		It("should skip the remaining checks", func() {
			Expect(result.Warnings).To(BeEmpty())
			Expect(result.ItemsSum).To(BeEmpty())
			Expect(result.Categorized).To(BeNil())
		})
	})

	When("the items sum differs from the total by more than 2 SEK", func() {
		BeforeEach(func() {
			receipt.Total = 27
		})

		It("should warn with both figures and the difference", func() {
			w := findWarning(result, "sum_mismatch")
			Expect(w).NotTo(BeNil())
			Expect(w.Difference).To(Equal("3.00"))
			Expect(w.Message).To(ContainSubstring("30.00"))
			Expect(w.Message).To(ContainSubstring("27.00"))
		})

		It("should stay valid", func() {
			Expect(result.IsValid).To(BeTrue())
		})
	})

	When("the items sum is within 2 SEK of the total", func() {
		BeforeEach(func() {
			receipt.Total = 29
		})

		It("should not warn", func() {
			Expect(result.HasWarning("sum_mismatch")).To(BeFalse())
		})
	})

	When("the gap is exactly 2 SEK after float rounding", func() {
		BeforeEach(func() {
			receipt.Items = []Item{{Name: "a", Price: 2.2, Category: "Groceries"}}
			receipt.Total = 0.2
		})

		It("should not warn", func() {
			Expect(result.HasWarning("sum_mismatch")).To(BeFalse())
		})
	})

	When("the gap is one öre over 2 SEK", func() {
		BeforeEach(func() {
			receipt.Total = 27.99
		})

		It("should warn with the difference", func() {
			w := findWarning(result, "sum_mismatch")
			Expect(w).NotTo(BeNil())
			Expect(w.Difference).To(Equal("2.01"))
		})
	})

	When("4 of 10 items are uncategorized", func() {
		BeforeEach(func() {
			receipt.Items = itemsWithOther(10, 4)
			receipt.Total = 100
		})

		It("should warn listing the item names", func() {
			w := findWarning(result, "many_uncategorized")
			Expect(w).NotTo(BeNil())
			Expect(w.Items).To(Equal([]string{"item-0", "item-1", "item-2", "item-3"}))
			Expect(w.Message).To(Equal("4 items could not be categorized"))
		})

		It("should count categorized and uncategorized items", func() {
			Expect(*result.Categorized).To(Equal(6))
			Expect(*result.Uncategorized).To(Equal(4))
		})
	})

	When("3 of 10 items are uncategorized", func() {
		BeforeEach(func() {
			receipt.Items = itemsWithOther(10, 3)
			receipt.Total = 100
		})

		It("should not warn at exactly 30%", func() {
			Expect(result.HasWarning("many_uncategorized")).To(BeFalse())
		})
	})

	When("2 of 10 items are uncategorized", func() {
		BeforeEach(func() {
			receipt.Items = itemsWithOther(10, 2)
			receipt.Total = 100
		})

		It("should not warn", func() {
			Expect(result.HasWarning("many_uncategorized")).To(BeFalse())
		})
	})

	When("an item has no category at all", func() {
		BeforeEach(func() {
			receipt.Items = []Item{{Name: "x", Price: 30}}
		})

		It("should count it as uncategorized", func() {
			Expect(*result.Uncategorized).To(Equal(1))
			Expect(result.HasWarning("many_uncategorized")).To(BeTrue())
		})
	})

	When("store and date are missing", func() {
		BeforeEach(func() {
			receipt.Store = nil
			receipt.Date = nil
		})

		It("should warn for each independently", func() {
			Expect(result.HasWarning("missing_store")).To(BeTrue())
			Expect(result.HasWarning("missing_date")).To(BeTrue())
		})
	})

	When("only the date is missing", func() {
		BeforeEach(func() {
			receipt.Date = nil
		})

		It("should only warn about the date", func() {
			Expect(result.HasWarning("missing_store")).To(BeFalse())
			Expect(result.HasWarning("missing_date")).To(BeTrue())
		})
	})

	When("a stricter tolerance is configured", func() {
		It("should report a 1 SEK gap", func() {
			receipt.Total = 29
			strict := Validator{SumTolerance: 0.5, UncategorizedRatio: 0.3}
			w := findWarning(strict.Validate(receipt), "sum_mismatch")
			Expect(w).NotTo(BeNil())
			Expect(w.Difference).To(Equal("1.00"))
		})

		It("should accept an exact match", func() {
			strict := Validator{SumTolerance: 0.5, UncategorizedRatio: 0.3}
			Expect(strict.Validate(receipt).HasWarning("sum_mismatch")).To(BeFalse())
		})
	})

	It("should not modify the receipt", func() {
		Expect(receipt.Validation).To(BeNil())
		Expect(receipt.Items).To(HaveLen(2))
	})
})
