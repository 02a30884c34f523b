package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sramchar/stimulus"
)

var _ = Describe("Plan", func() {
	It("should expand the default plan", func() {
		plan := DefaultPlan()
		plan.ProjectRoot = "/work/energy-char"

		rc, descs, err := plan.Expand()

		Expect(err).NotTo(HaveOccurred())
		Expect(rc.TestsRoot).To(Equal("/work/energy-char/experiments/tests-sky130"))
		Expect(descs).To(HaveLen(1))
		Expect(descs[0].ID).To(Equal("sram64x32-zero-10ns"))
		Expect(descs[0].Inputs).To(HaveLen(50))
		Expect(descs[0].Inputs[0]).To(Equal(stimulus.Tuple{}))
	})

	It("should parse a plan and keep unset defaults", func() {
		doc := `
pdk: sky130
project_root: /work/energy-char
clock_periods: [10, 2.5]
tests:
  - name: sram64x32-random
    macro: sram22_64x32m4w8
    pattern: random
    iterations: 20
`
		plan, err := ParsePlan(strings.NewReader(doc))

		Expect(err).NotTo(HaveOccurred())
		Expect(plan.Iterations).To(Equal(50))
		Expect(plan.ClockPeriods).To(Equal([]float64{10, 2.5}))

		_, descs, err := plan.Expand()
		Expect(err).NotTo(HaveOccurred())
		Expect(descs).To(HaveLen(2))
		Expect(descs[0].Inputs).To(HaveLen(20))
		Expect(descs[1].ID).To(Equal("sram64x32-random-2.5ns"))
	})

	It("should reject unknown fields", func() {
		_, err := ParsePlan(strings.NewReader("clock_period: 10\n"))

		Expect(err).To(HaveOccurred())
	})

	It("should reject a plan without periods", func() {
		_, err := ParsePlan(strings.NewReader("clock_periods: []\n"))

		Expect(err).To(MatchError(ContainSubstring("no clock periods")))
	})

	It("should reject non-positive periods", func() {
		_, err := ParsePlan(strings.NewReader("clock_periods: [0]\n"))

		Expect(err).To(MatchError(ContainSubstring("not positive")))
	})

	It("should generate reproducible random stimulus", func() {
		plan := DefaultPlan()
		plan.Tests[0].Pattern = "random"

		a, err := plan.ExpandTests()
		Expect(err).NotTo(HaveOccurred())
		b, err := plan.ExpandTests()
		Expect(err).NotTo(HaveOccurred())

		Expect(a[0].Inputs).To(Equal(b[0].Inputs))

		plan.Seed++
		c, err := plan.ExpandTests()
		Expect(err).NotTo(HaveOccurred())
		Expect(c[0].Inputs).NotTo(Equal(a[0].Inputs))
	})

	It("should take custom inputs verbatim", func() {
		plan := DefaultPlan()
		plan.Tests[0].Pattern = PatternCustom
		plan.Tests[0].Inputs = [][]uint64{{1, 0xff, 3, 0xf}, {0, 0, 3, 0}}

		tests, err := plan.ExpandTests()

		Expect(err).NotTo(HaveOccurred())
		Expect(tests[0].Inputs).To(Equal(stimulus.Vector{
			{Op: stimulus.Write, DataIn: 0xff, Addr: 3, WMask: 0xf},
			{Op: stimulus.Read, Addr: 3},
		}))
	})

	It("should reject custom inputs outside the macro bounds", func() {
		plan := DefaultPlan()
		plan.Tests[0].Pattern = PatternCustom
		plan.Tests[0].Inputs = [][]uint64{{1, 0, 64, 0}}

		_, err := plan.ExpandTests()

		Expect(err).To(HaveOccurred())
	})

	It("should reject malformed custom rows", func() {
		plan := DefaultPlan()
		plan.Tests[0].Pattern = PatternCustom
		plan.Tests[0].Inputs = [][]uint64{{1, 0, 0}}

		_, err := plan.ExpandTests()

		Expect(err).To(MatchError(ContainSubstring("expected [op, din, addr, wmask]")))
	})

	It("should reject unknown custom ops", func() {
		plan := DefaultPlan()
		plan.Tests[0].Pattern = PatternCustom
		plan.Tests[0].Inputs = [][]uint64{{2, 0, 0, 0}}

		_, err := plan.ExpandTests()

		Expect(err).To(MatchError(
			"test sram64x32-zero: input 0: unknown op 2"))
	})

	It("should reject a bad macro name", func() {
		plan := DefaultPlan()
		plan.Tests[0].Macro = "sram22_64x32"

		_, err := plan.ExpandTests()

		Expect(err).To(MatchError(ContainSubstring("test sram64x32-zero")))
	})

	It("should resolve a relative tests root against the project root", func() {
		plan := DefaultPlan()
		plan.ProjectRoot = "/work/energy-char"
		plan.TestsRoot = "scratch"

		rc, err := plan.RunContext()

		Expect(err).NotTo(HaveOccurred())
		Expect(rc.TestsRoot).To(Equal("/work/energy-char/scratch"))
	})

	It("should round trip through a file", func() {
		plan := DefaultPlan()
		plan.ProjectRoot = "/work/energy-char"
		plan.ClockPeriods = []float64{5, 10}

		var buf bytes.Buffer
		Expect(plan.Write(&buf)).To(Succeed())

		path := filepath.Join(GinkgoT().TempDir(), "plan.yml")
		Expect(os.WriteFile(path, buf.Bytes(), 0o644)).To(Succeed())

		loaded, err := LoadPlan(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.ClockPeriods).To(Equal(plan.ClockPeriods))
		Expect(loaded.Tests).To(Equal(plan.Tests))
	})

	It("should report a missing plan file", func() {
		_, err := LoadPlan("/nonexistent/plan.yml")

		Expect(err).To(MatchError(ContainSubstring("reading plan")))
	})
})

var _ = Describe("Env", func() {
	It("should override plan values", func() {
		GinkgoT().Setenv(EnvPDK, "gf180")
		GinkgoT().Setenv(EnvTestsRoot, "/scratch/tests")

		plan := DefaultPlan()
		plan.ApplyEnv()

		Expect(plan.PDK).To(Equal("gf180"))
		Expect(plan.TestsRoot).To(Equal("/scratch/tests"))
		Expect(plan.ProjectRoot).To(Equal("."))
	})

	It("should load env files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "test.env")
		Expect(os.WriteFile(path,
			[]byte(EnvSRAMParameters+"=/pdk/sram.json\n"), 0o644)).To(Succeed())
		GinkgoT().Setenv(EnvSRAMParameters, "")
		os.Unsetenv(EnvSRAMParameters)

		Expect(LoadEnv(path)).To(Succeed())

		plan := DefaultPlan()
		plan.ApplyEnv()
		Expect(plan.SRAMParameters).To(Equal("/pdk/sram.json"))
	})

	It("should fail on a missing named env file", func() {
		Expect(LoadEnv("/nonexistent/.env")).NotTo(Succeed())
	})
})
