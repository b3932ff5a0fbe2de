package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

type ociConfig struct {
	// path to an OCI SDK config file, empty means instance principals
	Credentials string `toml:"credentials"`
	Profile     string `toml:"profile"`
	// overridable for tests, leave empty for the link-local IMDS address
	MetadataEndpoint string `toml:"metadata_endpoint"`
}

type terminationConfig struct {
	PreserveBootVolume bool `toml:"preserve_boot_volume"`
	WaitTimeoutSec     uint `toml:"wait_timeout_sec"`
}

type splunkConfig struct {
	URL    string `toml:"url"`
	Token  string `toml:"token"`
	Source string `toml:"source"`
}

type terminatorConfig struct {
	OCI         *ociConfig         `toml:"oci"`
	Termination *terminationConfig `toml:"termination"`
	Splunk      *splunkConfig      `toml:"splunk"`
	// directory for the timestamped run log, empty disables the log file
	LogDir string `toml:"log_dir"`
	// something like "production" or "staging" to be added to logging
	DeploymentChannel string `toml:"deployment_channel"`
}

func parseConfig(file string) (*terminatorConfig, error) {
	// set defaults
	config := terminatorConfig{
		OCI: &ociConfig{},
		Termination: &terminationConfig{
			WaitTimeoutSec: 600,
		},
		DeploymentChannel: "local",
	}

	_, err := toml.DecodeFile(file, &config)
	if err != nil {
		// Return error only when we failed to decode the file.
		// A non-existing config isn't an error, use defaults in this case.
		if !os.IsNotExist(err) {
			return nil, err
		}

		logrus.Info("Configuration file not found, using defaults")
	}

	if config.OCI == nil {
		config.OCI = &ociConfig{}
	}
	if config.Termination == nil {
		config.Termination = &terminationConfig{
			WaitTimeoutSec: 600,
		}
	}

	if config.Splunk != nil && (config.Splunk.URL == "" || config.Splunk.Token == "") {
		return nil, fmt.Errorf("splunk forwarding requires both url and token")
	}

	return &config, nil
}
