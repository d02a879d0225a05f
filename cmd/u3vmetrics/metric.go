// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/bytesentinel/go-u3v-vision/pkg/device"
)

type metricCollector struct {
	m []prometheus.Metric
}

func (mc *metricCollector) Collect(c chan<- prometheus.Metric) {
	for _, m := range mc.m {
		c <- m
	}
}

func (mc *metricCollector) Describe(c chan<- *prometheus.Desc) {}

func outputMetrics(deviceID string, s device.Stats) {
	var (
		mCommandsProcessed = prometheus.NewDesc(
			"u3v_control_commands_processed_total",
			"Number of control-channel commands the device's worker pool has dispatched",
			[]string{"device"}, nil,
		)
		mBusyCollisions = prometheus.NewDesc(
			"u3v_control_busy_collisions_total",
			"Number of commands that raced an in-flight command and received a Busy ack",
			[]string{"device"}, nil,
		)
		mEndpointHalted = prometheus.NewDesc(
			"u3v_control_endpoint_halted",
			"Boolean describing whether a bulk endpoint is currently halted",
			[]string{"device", "endpoint"}, nil,
		)
	)

	mc := &metricCollector{}
	mc.m = append(mc.m, prometheus.MustNewConstMetric(mCommandsProcessed, prometheus.CounterValue, float64(s.CommandsProcessed), deviceID))
	mc.m = append(mc.m, prometheus.MustNewConstMetric(mBusyCollisions, prometheus.CounterValue, float64(s.BusyCollisions), deviceID))
	mc.m = append(mc.m, prometheus.MustNewConstMetric(mEndpointHalted, prometheus.GaugeValue, boolToFloat(s.HaltedControl), deviceID, "control"))
	mc.m = append(mc.m, prometheus.MustNewConstMetric(mEndpointHalted, prometheus.GaugeValue, boolToFloat(s.HaltedEvent), deviceID, "event"))
	mc.m = append(mc.m, prometheus.MustNewConstMetric(mEndpointHalted, prometheus.GaugeValue, boolToFloat(s.HaltedStream), deviceID, "stream"))

	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(mc)

	mfs, err := reg.Gather()
	if err != nil {
		log.Fatalf("Failed to gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			log.Fatalf("Failed to serialize metrics: %v", err)
		}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
