package sliqsim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRunExperiment(t *testing.T) {
	Convey("Given a simulator backed by a Bell state process", t, func() {
		ctx := context.Background()
		sim := NewSimulator(fakeExecutor("bell"), WithSeedSource(FixedSeed(8)))
		seed := uint32(42)

		Convey("Sampling with a fixed seed yields only the correlated outcomes", func() {
			result, err := sim.RunExperiment(ctx, bellExperiment(), RunConfig{Mode: ModeSampling, Shots: 1024, Seed: &seed})
			So(err, ShouldBeNil)
			t.Log(spew.Sdump(result))

			So(result.Success, ShouldBeTrue)
			So(result.Status, ShouldEqual, StatusDone)
			So(result.Shots, ShouldEqual, 1024)
			So(result.Seed, ShouldEqual, uint32(42))
			So(result.TimeTaken, ShouldBeGreaterThan, 0)
			So(result.Header.Name, ShouldEqual, "bell")
			So(result.Header.MemorySlots, ShouldEqual, 2)

			total := 0
			for key, count := range result.Data.Counts {
				So([]string{"0x0", "0x3"}, ShouldContain, key)
				total += count
			}
			So(total, ShouldEqual, 1024)
		})

		Convey("Without a configured seed one is drawn and reported", func() {
			result, err := sim.RunExperiment(ctx, bellExperiment(), RunConfig{Mode: ModeSampling, Shots: 10})
			So(err, ShouldBeNil)
			So(result.Seed, ShouldEqual, uint32(8))
		})

		Convey("Statevector mode returns the amplitudes", func() {
			result, err := sim.RunExperiment(ctx, bellExperiment(), RunConfig{Mode: ModeStatevector, Shots: 1, Seed: &seed})
			So(err, ShouldBeNil)
			So(result.Data.Counts, ShouldBeNil)
			So(result.Data.Statevector, ShouldHaveLength, 4)
			So(result.Data.Statevector[3], ShouldResemble, Amplitude{0.707107, 0})
		})
	})

	Convey("Given failures at each stage", t, func() {
		ctx := context.Background()

		Convey("An unknown mode spawns nothing", func() {
			executor := &countingExecutor{}
			_, err := NewSimulator(executor).RunExperiment(ctx, bellExperiment(), RunConfig{Mode: "qasm"})

			var modeErr *UnsupportedModeError
			So(errors.As(err, &modeErr), ShouldBeTrue)
			So(executor.calls, ShouldEqual, 0)
		})

		Convey("An unsupported gate fails in translation before spawning", func() {
			executor := &countingExecutor{}
			exp := bellExperiment()
			exp.Instructions[0] = Operation{Name: "ry", Qubits: []int{0}, Params: []float64{math.Pi / 8}}

			_, err := NewSimulator(executor).RunExperiment(ctx, exp, RunConfig{Mode: ModeSampling, Shots: 1})

			var expErr *ExperimentError
			So(errors.As(err, &expErr), ShouldBeTrue)
			So(expErr.Stage, ShouldEqual, StageTranslate)
			So(expErr.Experiment, ShouldEqual, "bell")

			var gateErr *UnsupportedGateError
			So(errors.As(err, &gateErr), ShouldBeTrue)
			So(executor.calls, ShouldEqual, 0)
		})

		Convey("A crashing simulator is an execution error", func() {
			_, err := NewSimulator(fakeExecutor("fail")).RunExperiment(ctx, bellExperiment(), RunConfig{Mode: ModeSampling, Shots: 1})

			var expErr *ExperimentError
			So(errors.As(err, &expErr), ShouldBeTrue)
			So(expErr.Stage, ShouldEqual, StageInvoke)

			var execErr *SimulationExecutionError
			So(errors.As(err, &execErr), ShouldBeTrue)
		})

		Convey("Garbled output is a parse error, not an empty result", func() {
			result, err := NewSimulator(fakeExecutor("garbage")).RunExperiment(ctx, bellExperiment(), RunConfig{Mode: ModeSampling, Shots: 1})
			So(result, ShouldBeNil)

			var expErr *ExperimentError
			So(errors.As(err, &expErr), ShouldBeTrue)
			So(expErr.Stage, ShouldEqual, StageParse)

			var parseErr *OutputParseError
			So(errors.As(err, &parseErr), ShouldBeTrue)
		})
	})
}
