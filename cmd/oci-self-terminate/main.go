package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oci-tools/oci-self-terminate/internal/cloud/ocicloud"
	logger "github.com/oci-tools/oci-self-terminate/pkg/splunk_logger"
)

const defaultConfigFile = "/etc/oci-self-terminate/oci-self-terminate.toml"

var (
	configFile         string
	dryRun             bool
	skipWait           bool
	preserveBootVolume bool
)

var terminateCmd = &cobra.Command{
	Use:   "oci-self-terminate",
	Short: "Request the termination of the OCI instance this process runs on",
	Long: `oci-self-terminate makes the compute instance it is executed on request
its own termination from the OCI control plane, authenticating with the
instance's own identity (instance principals). The instance's dynamic group
needs a policy allowing the TerminateInstance operation, for example:

  allow dynamic-group DG_self_termination to manage instance-family in
  compartment X where request.operation='TerminateInstance'

Termination is irreversible once the control plane accepts the request.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := parseConfig(configFile)
		if err != nil {
			return fmt.Errorf("could not load config file '%s': %w", configFile, err)
		}

		cleanupLogging, err := setupLogging(config)
		if err != nil {
			return err
		}
		defer cleanupLogging()

		logrus.Info("Self-terminate configuration:")
		redacted := *config
		if redacted.Splunk != nil {
			splunk := *redacted.Splunk
			splunk.Token = "[redacted]"
			redacted.Splunk = &splunk
		}
		encoder := toml.NewEncoder(logrus.StandardLogger().WriterLevel(logrus.InfoLevel))
		if err := encoder.Encode(&redacted); err != nil {
			return fmt.Errorf("could not print config: %w", err)
		}

		metadata, err := ocicloud.InstanceMetadataFromIMDS(config.OCI.MetadataEndpoint)
		if err != nil {
			return fmt.Errorf("could not determine the identity of this instance, is this running on an OCI instance? %w", err)
		}

		logrus.Infof("Instance_Region: %s", metadata.CanonicalRegionName)
		logrus.Infof("Instance_AD: %s", metadata.AvailabilityDomain)
		logrus.Infof("Instance_FD: %s", metadata.FaultDomain)
		logrus.Infof("Instance_Name: %s", metadata.DisplayName)
		logrus.Infof("Instance_ID: %s", metadata.ID)
		logrus.Infof("Instance_Shape: %s", metadata.Shape)

		oci, err := newOCIClient(config)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("preserve-boot-volume") {
			config.Termination.PreserveBootVolume = preserveBootVolume
		}

		if dryRun {
			logrus.Infof("Dry run, not terminating instance %s", metadata.ID)
			return nil
		}

		ctx := cmd.Context()
		if err := oci.Terminate(ctx, metadata.ID, config.Termination.PreserveBootVolume); err != nil {
			return err
		}

		if skipWait {
			return nil
		}

		waitTimeout := time.Duration(config.Termination.WaitTimeoutSec) * time.Second
		return oci.WaitForTerminating(ctx, metadata.ID, waitTimeout)
	},
}

func newOCIClient(config *terminatorConfig) (*ocicloud.OCI, error) {
	if config.OCI.Credentials != "" {
		logrus.Infof("Authenticating with the credentials from %s", config.OCI.Credentials)
		return ocicloud.NewFromFile(config.OCI.Credentials, config.OCI.Profile)
	}
	return ocicloud.NewInstancePrincipals()
}

func setupLogging(config *terminatorConfig) (func(), error) {
	cleanup := func() {}

	if config.LogDir != "" {
		name := fmt.Sprintf("inst-termination-%s.log", time.Now().Format("2006-01-02_15-04"))
		logFile, err := os.OpenFile(filepath.Join(config.LogDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("could not open the log file: %w", err)
		}
		logrus.SetOutput(io.MultiWriter(os.Stderr, logFile))
		cleanup = func() {
			logrus.SetOutput(os.Stderr)
			if err := logFile.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Unable to close the log file: %v\n", err)
			}
		}
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		hook, err := sentrylogrus.New(
			[]logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel},
			sentry.ClientOptions{
				Dsn:         dsn,
				Environment: config.DeploymentChannel,
			})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("cannot initialize sentry: %w", err)
		}
		logrus.AddHook(hook)
		prev := cleanup
		cleanup = func() {
			hook.Flush(5 * time.Second)
			prev()
		}
	}

	if config.Splunk != nil {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		source := config.Splunk.Source
		if source == "" {
			source = "oci-self-terminate"
		}
		sl := logger.NewSplunkLogger(config.Splunk.URL, config.Splunk.Token, source, hostname)
		logrus.AddHook(logger.NewSplunkHook(sl))
		prev := cleanup
		cleanup = func() {
			if err := sl.Flush(); err != nil {
				fmt.Fprintf(os.Stderr, "Unable to forward logs to splunk: %v\n", err)
			}
			prev()
		}
	}

	return cleanup, nil
}

func main() {
	terminateCmd.Flags().StringVarP(&configFile, "config", "c", defaultConfigFile, "path to the configuration file")
	terminateCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "resolve the instance identity and exit without terminating")
	terminateCmd.Flags().BoolVarP(&skipWait, "skip-wait", "", false, "exit right after the termination request was accepted")
	terminateCmd.Flags().BoolVarP(&preserveBootVolume, "preserve-boot-volume", "", false, "keep the boot volume around after the instance is gone")
	if err := terminateCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
