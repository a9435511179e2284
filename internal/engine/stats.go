/*
Copyright 2025 Prism Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package engine

import (
	"time"
)

// QueryStats accumulates compile and execute timings per named stage for
// one query invocation. Start opens a timing interval and Record closes it,
// attributing the elapsed time to the stage. The zero value is not usable;
// create one with NewQueryStats. A nil *QueryStats discards all timings.
type QueryStats struct {
	stages  map[string]time.Duration
	started time.Time
}

// NewQueryStats creates an empty stats accumulator
func NewQueryStats() *QueryStats {
	return &QueryStats{stages: make(map[string]time.Duration)}
}

// Start opens a timing interval
func (s *QueryStats) Start() {
	if s == nil {
		return
	}
	s.started = time.Now()
}

// Record closes the open interval and adds the elapsed time to the named
// stage
func (s *QueryStats) Record(stage string) {
	if s == nil {
		return
	}
	s.stages[stage] += time.Since(s.started)
	s.started = time.Now()
}

// Stage returns the accumulated time for a named stage
func (s *QueryStats) Stage(name string) time.Duration {
	if s == nil {
		return 0
	}
	return s.stages[name]
}

// Stages returns a copy of all recorded stage timings
func (s *QueryStats) Stages() map[string]time.Duration {
	if s == nil {
		return nil
	}
	out := make(map[string]time.Duration, len(s.stages))
	for name, d := range s.stages {
		out[name] = d
	}
	return out
}
