package ocicloud

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// The v2 metadata endpoint rejects requests without the Oracle bearer token.
const (
	metadataEndpoint    = "http://169.254.169.254/opc/v2/instance/"
	metadataAuthHeader  = "Bearer Oracle"
	metadataHTTPRetries = 3
)

// InstanceMetadata is the subset of the instance metadata document this tool
// cares about, see
// https://docs.oracle.com/en-us/iaas/Content/Compute/Tasks/gettingmetadata.htm
type InstanceMetadata struct {
	ID                  string `json:"id"`
	DisplayName         string `json:"displayName"`
	CompartmentID       string `json:"compartmentId"`
	AvailabilityDomain  string `json:"availabilityDomain"`
	FaultDomain         string `json:"faultDomain"`
	Region              string `json:"region"`
	CanonicalRegionName string `json:"canonicalRegionName"`
	Shape               string `json:"shape"`
	State               string `json:"state"`
}

// InstanceMetadataFromIMDS fetches the metadata document of the instance this
// process runs on. An empty endpoint selects the well-known link-local
// address, only reachable from within a running instance.
func InstanceMetadataFromIMDS(endpoint string) (*InstanceMetadata, error) {
	if endpoint == "" {
		endpoint = metadataEndpoint
	}

	client := retryablehttp.NewClient()
	client.RetryMax = metadataHTTPRetries
	client.Logger = nil

	req, err := retryablehttp.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create the instance metadata request: %w", err)
	}
	req.Header.Set("Authorization", metadataAuthHeader)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch instance metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch instance metadata: unexpected status %d", resp.StatusCode)
	}

	var metadata InstanceMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode the instance metadata document: %w", err)
	}
	if metadata.ID == "" {
		return nil, fmt.Errorf("instance metadata document contains no instance OCID")
	}

	return &metadata, nil
}
