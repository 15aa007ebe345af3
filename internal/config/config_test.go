package config

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DefaultConfig", func() {
	It("solves the decay problem with a positive tolerance and consistent-IC on", func() {
		cfg := DefaultConfig()

		Expect(cfg.Problem).To(Equal("decay"))
		Expect(cfg.Solver.RelTol).To(BeNumerically(">", 0))
		Expect(cfg.Solver.CalcIC).To(BeTrue())
	})
})

var _ = Describe("GetPreset", func() {
	Context("with a registered problem and preset", func() {
		It("returns the matching config", func() {
			cfg := GetPreset("decay", "default")

			Expect(cfg).NotTo(BeNil())
			Expect(cfg.Y0).To(Equal([]float64{1}))
		})
	})

	Context("with an unregistered preset or problem", func() {
		It("returns nil rather than erroring", func() {
			Expect(GetPreset("decay", "nonexistent")).To(BeNil())
			Expect(GetPreset("nonexistent", "default")).To(BeNil())
		})
	})
})

var _ = Describe("ListPresets", func() {
	It("lists presets for a known problem and nil for an unknown one", func() {
		Expect(ListPresets("decay")).NotTo(BeEmpty())
		Expect(ListPresets("nonexistent")).To(BeNil())
	})
})

var _ = Describe("SolverOptions", func() {
	It("layers YAML overrides on top of the library defaults", func() {
		cfg := DefaultConfig()
		cfg.Solver.MaxNumSteps = 42
		cfg.Solver.Hermite = true

		opts := cfg.SolverOptions()

		Expect(opts.MaxNumSteps).To(Equal(42))
		Expect(opts.Hermite).To(BeTrue())
		Expect(opts.MaxOrderBDF).NotTo(BeZero(), "unrelated defaults should still be populated")
	})
})
