package ocicloud

import (
	"context"

	"github.com/oracle/oci-go-sdk/v54/core"
)

type Compute interface {
	// Instances
	GetInstance(context.Context, core.GetInstanceRequest) (core.GetInstanceResponse, error)
	TerminateInstance(context.Context, core.TerminateInstanceRequest) (core.TerminateInstanceResponse, error)
}
