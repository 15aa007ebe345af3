package automation

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RunScenario", func() {
	It("produces one solution per step, in order", func() {
		scenario := &Scenario{
			Name: "decay-check",
			Steps: []ScenarioStep{
				{Problem: "decay", Y0: []float64{1}, Yp0: []float64{-2}, Inputs: []float64{2.0}, TEval: []float64{0, 0.5, 1.0}},
				{Problem: "decay", Y0: []float64{2}, Yp0: []float64{-4}, Inputs: []float64{2.0}, TEval: []float64{0, 1.0}},
			},
		}

		results, err := RunScenario(context.Background(), scenario)

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		for _, sd := range results {
			Expect(sd.Y).NotTo(BeEmpty())
		}
	})

	It("stops early when the context is already cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		scenario := &Scenario{Steps: []ScenarioStep{
			{Problem: "decay", Y0: []float64{1}, Yp0: []float64{-2}, Inputs: []float64{2.0}, TEval: []float64{0, 1}},
		}}

		_, err := RunScenario(ctx, scenario)

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("RunSweep", func() {
	It("varies the requested parameter across its range", func() {
		sweep := &ParameterSweep{
			Problem:    "decay",
			ParamIndex: 0,
			ParamMin:   1.0,
			ParamMax:   3.0,
			NumSteps:   3,
			Y0:         []float64{1},
			Yp0:        []float64{-1},
			BaseInputs: []float64{1.0},
			TEval:      []float64{0, 1.0},
		}

		results, err := RunSweep(context.Background(), sweep)

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		Expect(results[0].ParamValue).To(Equal(1.0))
		Expect(results[2].ParamValue).To(Equal(3.0))
	})
})

var _ = Describe("RunMonteCarlo", func() {
	It("perturbs the initial state across trials and reports stability", func() {
		cfg := &MonteCarloConfig{
			Problem:      "decay",
			BaseY0:       []float64{1},
			Yp0:          []float64{-2},
			Inputs:       []float64{2.0},
			Perturbation: 0.01,
			NumTrials:    5,
			TEval:        []float64{0, 0.5},
			Seed:         7,
		}

		results, err := RunMonteCarlo(context.Background(), cfg)

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(5))

		stable, unstable := MonteCarloStats(results)
		Expect(stable + unstable).To(Equal(5))
		Expect(stable).To(BeNumerically(">", 0), "a mildly perturbed decay trajectory should stay bounded")
	})
})
