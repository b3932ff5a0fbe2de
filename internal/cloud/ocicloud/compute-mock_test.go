package ocicloud_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/oracle/oci-go-sdk/v54/common"
	"github.com/oracle/oci-go-sdk/v54/core"
	"github.com/stretchr/testify/require"
)

type computeMock struct {
	t        *testing.T
	calledFn map[string]int

	terminateErr   error
	getInstanceErr error

	// states returned by successive GetInstance calls, the last one repeats
	lifecycleStates []core.InstanceLifecycleStateEnum

	lastTerminate core.TerminateInstanceRequest
}

func newComputeMock(t *testing.T) *computeMock {
	return &computeMock{
		t:        t,
		calledFn: map[string]int{},
	}
}

func (m *computeMock) TerminateInstance(ctx context.Context, req core.TerminateInstanceRequest) (core.TerminateInstanceResponse, error) {
	m.calledFn["TerminateInstance"] += 1
	m.lastTerminate = req
	require.NotNil(m.t, req.InstanceId)
	require.NotNil(m.t, req.PreserveBootVolume)
	if m.terminateErr != nil {
		return core.TerminateInstanceResponse{}, m.terminateErr
	}
	return core.TerminateInstanceResponse{}, nil
}

func (m *computeMock) GetInstance(ctx context.Context, req core.GetInstanceRequest) (core.GetInstanceResponse, error) {
	m.calledFn["GetInstance"] += 1
	require.NotNil(m.t, req.InstanceId)
	if m.getInstanceErr != nil {
		return core.GetInstanceResponse{}, m.getInstanceErr
	}

	require.NotEmpty(m.t, m.lifecycleStates)
	state := m.lifecycleStates[0]
	if len(m.lifecycleStates) > 1 {
		m.lifecycleStates = m.lifecycleStates[1:]
	}

	return core.GetInstanceResponse{
		Instance: core.Instance{
			Id:             req.InstanceId,
			LifecycleState: state,
		},
	}, nil
}

// serviceErrMock mimics the error the SDK returns for non-2xx responses.
type serviceErrMock struct {
	status int
	code   string
	msg    string
}

func (e *serviceErrMock) Error() string {
	return fmt.Sprintf("Error returned by Compute Service. Http Status Code: %d. Error Code: %s. Message: %s", e.status, e.code, e.msg)
}

func (e *serviceErrMock) GetHTTPStatusCode() int {
	return e.status
}

func (e *serviceErrMock) GetMessage() string {
	return e.msg
}

func (e *serviceErrMock) GetCode() string {
	return e.code
}

func (e *serviceErrMock) GetOpcRequestID() string {
	return "mock-opc-request-id"
}

var _ common.ServiceError = &serviceErrMock{}
