package ocicloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oracle/oci-go-sdk/v54/common"
	"github.com/oracle/oci-go-sdk/v54/core"
	"github.com/sirupsen/logrus"
)

var terminatingPollInterval = 5 * time.Second

// Terminate requests the termination of the instance with the given OCID.
// The request is submitted exactly once, the control plane performs the
// actual teardown asynchronously. Requires the caller's dynamic group to be
// allowed the TerminateInstance operation on the instance's compartment.
func (o *OCI) Terminate(ctx context.Context, instanceID string, preserveBootVolume bool) error {
	logrus.Infof("[OCI] 🔥 Requesting termination of instance %s", instanceID)
	_, err := o.compute.TerminateInstance(
		ctx,
		core.TerminateInstanceRequest{
			InstanceId:         common.String(instanceID),
			PreserveBootVolume: common.Bool(preserveBootVolume),
			RequestMetadata:    requestMetadata(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to request the termination of instance %s: %w", instanceID, err)
	}
	logrus.Info("[OCI] ✔️ Instance termination requested")
	return nil
}

// WaitForTerminating polls the instance until its lifecycle state reaches
// TERMINATING or TERMINATED. An instance that disappeared entirely also
// counts as terminated: once teardown finished, GetInstance answers 404.
func (o *OCI) WaitForTerminating(ctx context.Context, instanceID string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		resp, err := o.compute.GetInstance(
			ctx,
			core.GetInstanceRequest{
				InstanceId:      common.String(instanceID),
				RequestMetadata: requestMetadata(),
			},
		)
		if err != nil {
			if isInstanceGoneError(err) {
				logrus.Infof("[OCI] 🪦 Instance %s is gone, termination succeeded", instanceID)
				return nil
			}
			return fmt.Errorf("failed to fetch the lifecycle state of instance %s: %w", instanceID, err)
		}

		state := resp.Instance.LifecycleState
		if state == core.InstanceLifecycleStateTerminating || state == core.InstanceLifecycleStateTerminated {
			logrus.Infof("[OCI] 🪦 Instance %s is %s", instanceID, state)
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("instance %s still in state %s after waiting %v", instanceID, state, timeout)
		}
		time.Sleep(terminatingPollInterval)
	}
}

// The compute service answers 404 NotAuthorizedOrNotFound for instances that
// finished terminating, it doesn't distinguish missing resources from missing
// permissions.
func isInstanceGoneError(err error) bool {
	var serviceErr common.ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.GetHTTPStatusCode() == http.StatusNotFound && serviceErr.GetCode() == "NotAuthorizedOrNotFound"
	}
	return false
}
