package ocicloud

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oracle/oci-go-sdk/v54/common"
	"github.com/oracle/oci-go-sdk/v54/common/auth"
	"github.com/oracle/oci-go-sdk/v54/core"
)

type OCI struct {
	compute Compute
}

func newForTest(computeCli Compute) *OCI {
	return &OCI{
		compute: computeCli,
	}
}

func newFromConfigurationProvider(provider common.ConfigurationProvider) (*OCI, error) {
	computeCli, err := core.NewComputeClientWithConfigurationProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create an Oracle compute client: %w", err)
	}
	return &OCI{
		compute: computeCli,
	}, nil
}

// Initialize a new OCI object authenticated as the instance this process
// runs on. Requires the instance metadata service to be reachable, so this
// only works on an OCI compute instance.
func NewInstancePrincipals() (*OCI, error) {
	provider, err := auth.InstancePrincipalConfigurationProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire instance principal credentials: %w", err)
	}
	return newFromConfigurationProvider(provider)
}

// Initializes a new OCI object with the credentials info found at filename's
// location. The file should match the OCI SDK config format, such as:
// [DEFAULT]
// user = ocid1.user.oc1..aaaa
// fingerprint = 01:23:45:67:89:ab:cd:ef:01:23:45:67:89:ab:cd:ef
// key_file = /home/user/.oci/key.pem
// tenancy = ocid1.tenancy.oc1..aaaa
// region = eu-frankfurt-1
//
// If profile is empty the DEFAULT profile is used.
func NewFromFile(filename string, profile string) (*OCI, error) {
	if profile == "" {
		profile = "DEFAULT"
	}
	return newFromConfigurationProvider(common.CustomProfileConfigProvider(filename, profile))
}

const (
	retryMaxAttempts = 8
	retryBaseSleep   = time.Second
	retryMaxWait     = 15 * time.Second
)

// Only server side and throttling failures are worth another attempt,
// authorization and not-found responses are final.
func shouldRetryOperation(response common.OCIOperationResponse) bool {
	if response.Error == nil {
		return false
	}

	var serviceErr common.ServiceError
	if errors.As(response.Error, &serviceErr) {
		statusCode := serviceErr.GetHTTPStatusCode()
		return statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError
	}

	// transport level failure, the request may have never reached the service
	return true
}

func nextRetryDuration(response common.OCIOperationResponse) time.Duration {
	wait := retryBaseSleep * time.Duration(1<<response.AttemptNumber)
	if wait > retryMaxWait {
		wait = retryMaxWait
	}
	return wait
}

func requestMetadata() common.RequestMetadata {
	policy := common.NewRetryPolicy(retryMaxAttempts, shouldRetryOperation, nextRetryDuration)
	return common.RequestMetadata{
		RetryPolicy: &policy,
	}
}
