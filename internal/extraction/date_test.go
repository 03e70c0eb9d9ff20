package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveDate", func() {
	DescribeTable("finding the transaction date",
		func(text, expected string) {
			Expect(ResolveDate(fold(text))).To(Equal(expected))
		},
		Entry("no date", "合計 ¥1,200", ""),
		Entry("kanji date", "2025年09月12日", "2025/09/12"),
		Entry("kanji date without padding", "2025年9月2日 8:15", "2025/09/02"),
		Entry("slash date", "日付 2025/09/12", "2025/09/12"),
		Entry("hyphen date", "2025-9-12", "2025/09/12"),
		Entry("dotted date", "2025.09.12", "2025/09/12"),
		Entry("full-width date", "２０２５／０９／１２", "2025/09/12"),
		Entry("two-digit year", "25/9/1", "2025/09/01"),
		Entry("four-digit year wins", "25/1/1\n2024/12/31", "2024/12/31"),
		Entry("invalid month skipped", "2025/13/40\n2025/10/01", "2025/10/01"),
		Entry("invalid month only", "2025/13/40", ""),
		Entry("phone number is not a date", "TEL 03-1234-5678", ""),
		Entry("slash date and time", "2025/09/12 14:30", "2025/09/12"),
		Entry("hyphen date and time", "2025-09-12 09:05", "2025/09/12"),
		Entry("dotted date and time", "2025.09.12 14:30", "2025/09/12"),
		Entry("two-digit year and time", "25/09/12 14:30", "2025/09/12"),
		Entry("one-digit day and time", "2025/9/1 12:30", "2025/09/01"),
	)

	DescribeTable("normalized text",
		func(text, expected string) {
			Expect(ResolveDate(Normalize(text))).To(Equal(expected))
		},
		Entry("two-digit day joined to a time", "2025/09/12 14:30", "2025/09/12"),
		Entry("hyphen date joined to a time", "2025-09-12 09:05", "2025/09/12"),
		Entry("two-digit year joined to a time", "25/09/12 14:30", "2025/09/12"),
	)
})
