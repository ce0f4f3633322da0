package main

import (
	"os"
	"os/signal"
	"runtime/pprof"
	"sync"
	"syscall"

	"github.com/pkg/errors"
)

// startProfile begins collecting a CPU profile into path so a binary rebuilt
// with profile-guided optimization can use it. The returned stop function
// flushes and closes the profile and may be called more than once. An
// interrupt also flushes the profile, then exits with the conventional
// signal code.
func startProfile(path string) (stop func(), err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating profile %s", path)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "starting cpu profile")
	}

	var once sync.Once
	stop = func() {
		once.Do(func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		stop()
		os.Exit(130)
	}()
	return stop, nil
}
