package monitoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sramchar/experiment"
	"github.com/sarchlab/sramchar/macro"
	"github.com/sarchlab/sramchar/pipeline"
)

func sampleDescriptors() []*experiment.Descriptor {
	rc := experiment.NewRunContext("/work/energy-char", "sky130")
	test := experiment.Test{
		Name:  "sram64x32-zero",
		Macro: macro.MustParse("sram22_64x32m4w8"),
	}

	descs, err := experiment.ExpandAll(rc, []experiment.Test{test},
		experiment.DefaultStructure(), []float64{10, 5})
	Expect(err).NotTo(HaveOccurred())

	return descs
}

func get(m *Monitor, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	m.router().ServeHTTP(rec, req)

	return rec
}

var _ = Describe("Monitor", func() {
	var (
		m     *Monitor
		descs []*experiment.Descriptor
	)

	BeforeEach(func() {
		m = NewMonitor()
		descs = sampleDescriptors()
		m.RegisterBatch(pipeline.AllStages, descs)
	})

	fire := func(pos *pipeline.HookPos, stage pipeline.Stage, d *experiment.Descriptor, err error) {
		m.Func(pipeline.HookCtx{
			Pos: pos,
			Item: &pipeline.StageRun{
				Stage:      stage,
				Descriptor: d,
				Err:        err,
			},
		})
	}

	It("should reject privileged ports", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})

	It("should create one bar per stage", func() {
		rec := get(m, "/api/progress")

		var bars []progressRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(4))
		Expect(bars[0].Name).To(Equal("build"))
		Expect(bars[0].Total).To(Equal(uint64(1)))
		Expect(bars[1].Total).To(Equal(uint64(2)))
	})

	It("should track stage events", func() {
		fire(pipeline.HookPosStageStart, pipeline.StageBuild, descs[0], nil)
		fire(pipeline.HookPosStageEnd, pipeline.StageBuild, descs[0], nil)
		fire(pipeline.HookPosStageSkip, pipeline.StageSimulate, descs[0], nil)
		fire(pipeline.HookPosStageStart, pipeline.StageSimulate, descs[1], nil)
		fire(pipeline.HookPosStageFail, pipeline.StageSimulate, descs[1],
			errors.New("exit status 2"))

		bars := m.bars
		Expect(bars[pipeline.StageBuild].Finished).To(Equal(uint64(1)))
		Expect(bars[pipeline.StageSimulate].Finished).To(Equal(uint64(2)))
		Expect(bars[pipeline.StageSimulate].Failed).To(Equal(uint64(1)))
		Expect(bars[pipeline.StageSimulate].InProgress).To(Equal(uint64(0)))

		rec := get(m, "/api/tests")

		var tests []TestStatus
		Expect(json.Unmarshal(rec.Body.Bytes(), &tests)).To(Succeed())
		Expect(tests).To(Equal([]TestStatus{
			{ID: descs[0].ID, Stage: "simulate", State: StateSkipped},
			{ID: descs[1].ID, Stage: "simulate", State: StateFailed,
				Error: "exit status 2"},
		}))
	})

	It("should serve test details", func() {
		rec := get(m, "/api/test/"+descs[1].ID)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should return 404 for unknown tests", func() {
		rec := get(m, "/api/test/unknown-1ns")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should report resource usage", func() {
		rec := get(m, "/api/resource")

		var rsp resourceRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should collect a profile", func() {
		m.profileDuration = 10 * time.Millisecond

		rec := get(m, "/api/profile")

		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should serve the dashboard", func() {
		rec := get(m, "/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("<!DOCTYPE html>"))
	})

	It("should start a server", func() {
		url, err := m.StartServer()
		Expect(err).NotTo(HaveOccurred())

		rsp, err := http.Get(url + "/api/progress")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})
})

var _ = Describe("ProgressBar", func() {
	It("should move items through its states", func() {
		b := &ProgressBar{Total: 3}

		b.IncrementInProgress(2)
		b.MoveInProgressToFinished(1)
		b.MoveInProgressToFailed(1)
		b.IncrementFinished(1)

		Expect(b.StartTime.IsZero()).To(BeFalse())
		Expect(b.snapshot()).To(Equal(progressRsp{
			StartTime: b.StartTime,
			Total:     3,
			Finished:  3,
			Failed:    1,
		}))
	})
})
