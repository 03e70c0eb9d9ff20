package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = DefaultConfig()
	})

	It("validates the defaults", func() {
		Expect(cfg.Validate()).To(Succeed())
	})

	DescribeTable("rejecting inconsistent thresholds",
		func(mutate func(*Config)) {
			mutate(&cfg)
			Expect(cfg.Validate()).To(HaveOccurred())
		},
		Entry("negative minimum", func(c *Config) { c.MinAmount = -1 }),
		Entry("maximum below minimum", func(c *Config) { c.MaxAmount = 50 }),
		Entry("zero divisor", func(c *Config) { c.TaxDivisor = 0 }),
		Entry("negative absolute tolerance", func(c *Config) { c.PairAbsTolerance = -1 }),
		Entry("negative relative tolerance", func(c *Config) { c.PairRelTolerance = -0.1 }),
	)

	DescribeTable("deriving tax",
		func(total, tax int64) {
			Expect(cfg.DeriveTax(total)).To(Equal(tax))
		},
		Entry("exact", int64(1100), int64(100)),
		Entry("rounds down", int64(1200), int64(109)),
		Entry("rounds up", int64(1000), int64(91)),
		Entry("zero", int64(0), int64(0)),
	)
	It("derives no tax without a positive divisor", func() {
		cfg.TaxDivisor = 0
		Expect(cfg.DeriveTax(1200)).To(Equal(int64(0)))
	})
})
