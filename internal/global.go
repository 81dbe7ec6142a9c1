/*
Copyright 2011-2025 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package internal holds small numeric helpers shared by the transform
// and codec packages.
package internal

import (
	"errors"
	"math/bits"
)

// Log2Floor returns floor(log2(x)) for x > 0.
func Log2Floor(x uint32) (uint32, error) {
	if x == 0 {
		return 0, errors.New("cannot compute log2 of 0")
	}

	return Log2FloorNoCheck(x), nil
}

// Log2FloorNoCheck does the same as Log2Floor minus the null check. The
// contract is purely the value of floor(log2(x)); bits.Len32 is a portable
// stand-in for the leading-zero-count instruction the reference encoder
// uses for the same computation.
func Log2FloorNoCheck(x uint32) uint32 {
	return uint32(bits.Len32(x)) - 1
}

// ComputeJobsPerTask distributes a number of worker jobs across a number
// of tasks as evenly as possible, front-loading the remainder onto the
// first tasks. When jobs <= tasks, every task is assigned exactly one job.
// The provided jobsPerTask slice is filled in and returned.
func ComputeJobsPerTask(jobsPerTask []uint, jobs, tasks uint) ([]uint, error) {
	if tasks == 0 {
		return jobsPerTask, errors.New("invalid number of tasks provided: 0")
	}

	if jobs == 0 {
		return jobsPerTask, errors.New("invalid number of jobs provided: 0")
	}

	var q, r uint

	if jobs <= tasks {
		q = 1
		r = 0
	} else {
		q = jobs / tasks
		r = jobs - q*tasks
	}

	for i := range jobsPerTask {
		jobsPerTask[i] = q
	}

	for n := uint(0); r != 0; r-- {
		jobsPerTask[n]++
		n++
	}

	return jobsPerTask, nil
}
