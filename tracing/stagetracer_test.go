package tracing

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/sramchar/experiment"
	"github.com/sarchlab/sramchar/pipeline"
)

var _ = Describe("StageTracer", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockDataRecorder
		tracer   *StageTracer
		run      *pipeline.StageRun
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockDataRecorder(mockCtrl)
		recorder.EXPECT().CreateTable(StageTableName, StageEntry{})
		tracer = NewStageTracer(recorder, "run-1")

		rc := experiment.NewRunContext("/work", "sky130")
		d, err := experiment.Expand(rc, experiment.Test{
			Name: "sram64x32-zero",
		}, experiment.DefaultStructure(), 10)
		Expect(err).NotTo(HaveOccurred())

		start := time.Unix(100, 0)
		run = &pipeline.StageRun{
			Stage:      pipeline.StageSimulate,
			Descriptor: d,
			Command:    pipeline.StageSimulate.Command(rc, d),
			Artifact:   pipeline.StageSimulate.Artifact(d),
			Start:      start,
			End:        start.Add(1500 * time.Millisecond),
		}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record a finished stage", func() {
		recorder.EXPECT().InsertData(StageTableName, StageEntry{
			RunID:       "run-1",
			TestID:      "sram64x32-zero-10ns",
			Stage:       "simulate",
			Command:     run.Command.String(),
			Artifact:    run.Artifact,
			Status:      StatusDone,
			StartTime:   100,
			DurationSec: 1.5,
		})

		tracer.Func(pipeline.HookCtx{Pos: pipeline.HookPosStageEnd, Item: run})
	})

	It("should record a skipped stage without timing", func() {
		run.Start = time.Time{}
		run.End = time.Time{}
		run.Skipped = true

		recorder.EXPECT().
			InsertData(StageTableName, gomock.Any()).
			Do(func(_ string, entry any) {
				e := entry.(StageEntry)
				Expect(e.Status).To(Equal(StatusSkipped))
				Expect(e.DurationSec).To(BeZero())
			})

		tracer.Func(pipeline.HookCtx{Pos: pipeline.HookPosStageSkip, Item: run})
	})

	It("should record the exit code of a failed stage", func() {
		run.Err = &pipeline.StageError{
			Stage:  pipeline.StageSimulate,
			TestID: run.Descriptor.ID,
			Err:    &pipeline.ExternalToolError{ExitCode: 2},
		}

		recorder.EXPECT().
			InsertData(StageTableName, gomock.Any()).
			Do(func(_ string, entry any) {
				e := entry.(StageEntry)
				Expect(e.Status).To(Equal(StatusFailed))
				Expect(e.ExitCode).To(Equal(2))
				Expect(e.Error).To(ContainSubstring("exited with code 2"))
			})

		tracer.Func(pipeline.HookCtx{Pos: pipeline.HookPosStageFail, Item: run})
	})

	It("should mark failures without an exit code", func() {
		run.Err = errors.New("make: not found")

		recorder.EXPECT().
			InsertData(StageTableName, gomock.Any()).
			Do(func(_ string, entry any) {
				Expect(entry.(StageEntry).ExitCode).To(Equal(-1))
			})

		tracer.Func(pipeline.HookCtx{Pos: pipeline.HookPosStageFail, Item: run})
	})

	It("should ignore stage starts", func() {
		tracer.Func(pipeline.HookCtx{Pos: pipeline.HookPosStageStart, Item: run})
	})

	It("should ignore foreign items", func() {
		tracer.Func(pipeline.HookCtx{Pos: pipeline.HookPosStageEnd, Item: 42})
	})
})
