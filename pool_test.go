package sliqsim

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func testPoolConfig() *Config {
	cfg := NewConfig()
	cfg.Workers = 2
	cfg.SchedulingTimeout = time.Second
	return cfg
}

func awaitOutcome(t *testing.T, ch chan Outcome) Outcome {
	t.Helper()
	select {
	case outcome := <-ch:
		return outcome
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for outcome")
		return Outcome{}
	}
}

func TestPool(t *testing.T) {
	Convey("Given a new pool", t, func() {
		q := NewQ(context.Background(), testPoolConfig())

		Reset(func() {
			q.Close()
		})

		Convey("When scheduling a simple task", func() {
			outcome := awaitOutcome(t, q.Schedule("simple", func(ctx context.Context) (any, error) {
				return "success", nil
			}))

			So(outcome.Error, ShouldBeNil)
			So(outcome.Value, ShouldEqual, "success")
		})

		Convey("When a task runs, the start hook fires first", func() {
			var started atomic.Bool
			outcome := awaitOutcome(t, q.Schedule("hooked", func(ctx context.Context) (any, error) {
				return started.Load(), nil
			}, WithStartHook(func() { started.Store(true) })))

			So(outcome.Value, ShouldEqual, true)
		})

		Convey("When scheduling a task with retries", func() {
			var attempts atomic.Int32
			outcome := awaitOutcome(t, q.Schedule("retry", func(ctx context.Context) (any, error) {
				if attempts.Add(1) < 3 {
					return nil, errors.New("temporary error")
				}
				return "success after retry", nil
			}, WithRetry(3, &ExponentialBackoff{Initial: time.Millisecond})))

			So(outcome.Error, ShouldBeNil)
			So(outcome.Value, ShouldEqual, "success after retry")
			So(attempts.Load(), ShouldEqual, 3)
		})

		Convey("When a task fails with a simulation error", func() {
			var attempts atomic.Int32
			outcome := awaitOutcome(t, q.Schedule("no-retry", func(ctx context.Context) (any, error) {
				attempts.Add(1)
				return nil, &OutputParseError{Reason: "garbled"}
			}, WithRetry(3, &ExponentialBackoff{Initial: time.Millisecond})))

			Convey("It is never retried", func() {
				var parseErr *OutputParseError
				So(errors.As(outcome.Error, &parseErr), ShouldBeTrue)
				So(attempts.Load(), ShouldEqual, 1)
			})
		})

		Convey("When a task exceeds its timeout", func() {
			outcome := awaitOutcome(t, q.Schedule("slow", func(ctx context.Context) (any, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}, WithTimeout(20*time.Millisecond)))

			So(errors.Is(outcome.Error, context.DeadlineExceeded), ShouldBeTrue)
		})

		Convey("When the simulator keeps crashing", func() {
			crash := func(ctx context.Context) (any, error) {
				return nil, &SimulationExecutionError{Executable: "SliQSim", ExitCode: 139}
			}
			breakerOpt := WithCircuitBreaker("SliQSim", 2, time.Minute, 1)

			for i := 0; i < 2; i++ {
				outcome := awaitOutcome(t, q.Schedule(fmt.Sprintf("crash-%d", i), crash, breakerOpt))
				So(outcome.Error, ShouldNotBeNil)
			}

			Convey("Further tasks are rejected without running", func() {
				var ran atomic.Bool
				outcome := awaitOutcome(t, q.Schedule("rejected", func(ctx context.Context) (any, error) {
					ran.Store(true)
					return nil, nil
				}, breakerOpt))

				So(outcome.Error, ShouldNotBeNil)
				So(outcome.Error.Error(), ShouldContainSubstring, "circuit breaker SliQSim is open")
				So(ran.Load(), ShouldBeFalse)
				So(q.Metrics().ExportMetrics()["rejected_jobs"], ShouldEqual, int64(1))
			})
		})

		Convey("When translation errors repeat", func() {
			breakerOpt := WithCircuitBreaker("SliQSim", 1, time.Minute, 1)
			outcome := awaitOutcome(t, q.Schedule("bad-gate", func(ctx context.Context) (any, error) {
				return nil, &UnsupportedGateError{Gate: "rx", Param: 1}
			}, breakerOpt))
			So(outcome.Error, ShouldNotBeNil)

			Convey("The executable's breaker stays closed", func() {
				So(q.breaker("SliQSim").State(), ShouldEqual, CircuitClosed)
			})
		})

		Convey("When awaiting a finished task again", func() {
			awaitOutcome(t, q.Schedule("again", func(ctx context.Context) (any, error) {
				return 7, nil
			}))

			outcome := awaitOutcome(t, q.Await("again"))
			So(outcome.Value, ShouldEqual, 7)
		})

		Convey("When metrics are collected", func() {
			for i := 0; i < 3; i++ {
				awaitOutcome(t, q.Schedule(fmt.Sprintf("metered-%d", i), func(ctx context.Context) (any, error) {
					return i, nil
				}))
			}

			metrics := q.Metrics().ExportMetrics()
			So(metrics["worker_count"], ShouldEqual, 2)
			So(metrics["job_count"], ShouldEqual, int64(3))
			So(metrics["success_rate"], ShouldEqual, 1.0)
		})
	})

	Convey("Given a pool whose only worker is busy", t, func() {
		cfg := testPoolConfig()
		cfg.Workers = 1
		q := NewQ(context.Background(), cfg)

		Reset(func() {
			q.Close()
		})

		started := make(chan struct{})
		blocking := q.Schedule("blocking", func(ctx context.Context) (any, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
		<-started

		queued := make([]chan Outcome, 0, 10)
		for i := 0; i < 10; i++ {
			queued = append(queued, q.Schedule(fmt.Sprintf("queued-%d", i), func(ctx context.Context) (any, error) {
				return "ran", nil
			}))
		}

		Convey("Tasks still queued at Close resolve with an error", func() {
			q.Close()

			outcome := awaitOutcome(t, blocking)
			So(errors.Is(outcome.Error, context.Canceled), ShouldBeTrue)

			for _, ch := range queued {
				outcome := awaitOutcome(t, ch)
				So(outcome.Error, ShouldNotBeNil)
				So(outcome.Error.Error(), ShouldContainSubstring, "pool is closed")
				So(errors.Is(outcome.Error, context.Canceled), ShouldBeTrue)
			}
		})
	})

	Convey("Given a closed pool", t, func() {
		q := NewQ(context.Background(), testPoolConfig())
		q.Close()

		Convey("Scheduling fails immediately", func() {
			outcome := awaitOutcome(t, q.Schedule("late", func(ctx context.Context) (any, error) {
				return nil, nil
			}))
			So(outcome.Error, ShouldNotBeNil)
			So(outcome.Error.Error(), ShouldContainSubstring, "pool is closed")
		})
	})
}
