package command

import (
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/velcmd/internal/batch"
)

var _ = Describe("Generator episode lifecycle", func() {
	var (
		g    *Generator
		snap batch.Snapshot
	)

	BeforeEach(func() {
		cfg := constantConfig()
		cfg.ResampleInterval = batch.Range{Min: 0.2, Max: 0.2}
		var err error
		g, _, err = New(cfg, 6, nil, rand.NewPCG(1, 1))
		Expect(err).NotTo(HaveOccurred())
		snap = batch.NewSnapshot(6)
	})

	It("starts every agent freshly resampled", func() {
		for i := 0; i < g.Len(); i++ {
			Expect(g.Agent(i).Resamples).To(Equal(1))
			Expect(g.Agent(i).Elapsed).To(BeZero())
		}
		xy, yaw := g.Metrics()
		Expect(xy).To(HaveEach(BeZero()))
		Expect(yaw).To(HaveEach(BeZero()))
	})

	Context("across resample boundaries", func() {
		BeforeEach(func() {
			for k := 0; k < 25; k++ {
				Expect(g.Step(snap)).To(Succeed())
			}
		})

		It("keeps accumulating tracking error", func() {
			xy, _ := g.Metrics()
			Expect(xy[0]).To(BeNumerically("~", 25.0/10, 1e-9))
			Expect(g.Agent(0).Resamples).To(Equal(3))
		})

		It("restarts only the agents that are reset", func() {
			means, err := g.Reset([]int{0, 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(means).To(HaveKeyWithValue("error_vel_xy", BeNumerically("~", 2.5, 1e-9)))

			xy, _ := g.Metrics()
			Expect(xy[0]).To(BeZero())
			Expect(xy[5]).To(BeZero())
			Expect(xy[1]).To(BeNumerically(">", 0))
			Expect(g.Agent(0).Resamples).To(Equal(1))
			Expect(g.Agent(1).Resamples).To(Equal(3))
		})
	})

	It("rejects resets outside the batch without side effects", func() {
		Expect(g.Step(snap)).To(Succeed())
		before, _ := g.Metrics()

		_, err := g.Reset([]int{2, 6})
		Expect(err).To(MatchError(batch.ErrIndexOutOfRange))

		after, _ := g.Metrics()
		Expect(after).To(Equal(before))
	})
})
