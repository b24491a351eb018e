package main

import (
	"pdm-backend/services/apm"
	"pdm-backend/services/apm/monitor"
)

type Config struct {
	Port     int    `json:"port"`
	Database string `json:"database"`
	// seconds between polls
	PollInterval int        `json:"poll_interval"`
	Apm          apm.Config `json:"apm"`
	// machine load class, one of L, M, H
	MachineType string `json:"machine_type"`
	// characteristic name -> model feature name
	Features   map[string]string                `json:"features"`
	Thresholds map[string]monitor.ThresholdRule `json:"thresholds"`
}
