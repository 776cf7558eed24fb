package sliqsim

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadConfig(t *testing.T) {
	Convey("Given no configuration file", t, func() {
		cfg, err := LoadConfig("")
		So(err, ShouldBeNil)

		Convey("The defaults apply", func() {
			So(cfg.Workers, ShouldEqual, 2)
			So(cfg.QueueSize, ShouldEqual, 64)
			So(cfg.SchedulingTimeout, ShouldEqual, 10*time.Second)
			So(cfg.JobTimeout, ShouldEqual, time.Duration(0))
			So(cfg.Breaker.MaxFailures, ShouldEqual, 5)
			So(cfg.SearchPaths, ShouldNotBeEmpty)
		})
	})

	Convey("Given a YAML configuration file", t, func() {
		path := filepath.Join(t.TempDir(), "sliqsim.yaml")
		err := os.WriteFile(path, []byte(`
executable: /opt/sliqsim/SliQSim
workers: 4
job_timeout: 2m
breaker:
  max_failures: 3
  reset_timeout: 5s
`), 0o600)
		So(err, ShouldBeNil)

		Convey("Its values override the defaults", func() {
			cfg, err := LoadConfig(path)
			So(err, ShouldBeNil)
			So(cfg.Executable, ShouldEqual, "/opt/sliqsim/SliQSim")
			So(cfg.Workers, ShouldEqual, 4)
			So(cfg.JobTimeout, ShouldEqual, 2*time.Minute)
			So(cfg.Breaker.MaxFailures, ShouldEqual, 3)
			So(cfg.Breaker.ResetTimeout, ShouldEqual, 5*time.Second)
			So(cfg.Breaker.HalfOpenMax, ShouldEqual, 1)
		})
	})

	Convey("Given invalid values", t, func() {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		So(os.WriteFile(path, []byte("workers: 0\n"), 0o600), ShouldBeNil)

		_, err := LoadConfig(path)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "workers")
	})

	Convey("Given a missing configuration file", t, func() {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		So(err, ShouldNotBeNil)
	})
}

func TestLoadConfigEnvironment(t *testing.T) {
	Convey("Given SLIQSIM_ environment variables", t, func() {
		path := filepath.Join(t.TempDir(), "sliqsim.yaml")
		So(os.WriteFile(path, []byte("workers: 4\n"), 0o600), ShouldBeNil)

		t.Setenv("SLIQSIM_WORKERS", "8")
		t.Setenv("SLIQSIM_BREAKER_MAX_FAILURES", "9")

		Convey("They override the file", func() {
			cfg, err := LoadConfig(path)
			So(err, ShouldBeNil)
			So(cfg.Workers, ShouldEqual, 8)
			So(cfg.Breaker.MaxFailures, ShouldEqual, 9)
		})
	})
}

func TestFindExecutable(t *testing.T) {
	Convey("Given candidate paths", t, func() {
		dir := t.TempDir()
		binary := filepath.Join(dir, "SliQSim")
		So(os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755), ShouldBeNil)

		Convey("The first existing file wins", func() {
			path, err := FindExecutable([]string{filepath.Join(dir, "missing"), dir, binary})
			So(err, ShouldBeNil)
			So(path, ShouldEqual, binary)
		})

		Convey("Nothing found is reported", func() {
			t.Setenv("PATH", dir+"-empty")
			_, err := FindExecutable([]string{filepath.Join(dir, "missing")})
			So(errors.Is(err, ErrExecutableNotFound), ShouldBeTrue)
		})
	})
}
