/*
Copyright (c) Facebook, Inc. and its affiliates.

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

package conn

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRTTDefaults(t *testing.T) {
	r := NewRTT()
	rtt, variance := r.Load()
	require.Equal(t, uint32(100_000), rtt)
	require.Equal(t, uint32(50_000), variance)
}

func TestRTTUpdateSameAsEstimate(t *testing.T) {
	r := NewRTT()
	r.Update(100_000)
	rtt, variance := r.Load()
	require.Equal(t, uint32(100_000), rtt)
	require.Equal(t, uint32(37_500), variance)
}

func TestRTTUpdateZeroSample(t *testing.T) {
	r := NewRTT()
	r.Update(0)
	rtt, variance := r.Load()
	require.Equal(t, uint32(87_500), rtt)
	require.Equal(t, uint32(62_500), variance)
}

func TestRTTScenario5(t *testing.T) {
	r := NewRTT()
	r.Update(50_000)
	rtt, variance := r.Load()
	require.Equal(t, uint32(93_750), rtt)
	require.Equal(t, uint32(50_000), variance)
}

func TestRTTConvergesUnderConstantSamples(t *testing.T) {
	r := NewRTT()
	for i := 0; i < 200; i++ {
		r.Update(20_000)
	}
	rtt, variance := r.Load()
	require.InDelta(t, 20_000, rtt, 50)
	require.InDelta(t, 0, variance, 50)
}

func TestRTTConcurrentUpdatesStayBounded(t *testing.T) {
	r := NewRTT()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(sample uint32) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Update(sample)
			}
		}(uint32(10_000 + i*1000))
	}
	wg.Wait()
	rtt, variance := r.Load()
	require.LessOrEqual(t, rtt, uint32(1<<32-1))
	require.LessOrEqual(t, variance, uint32(1<<31-1))
}
