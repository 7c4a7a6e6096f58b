package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
)

// invocationTimeoutSeconds mirrors the async endpoint limit configured on
// the serving side.
const invocationTimeoutSeconds = 3600

// SageMakerInvoker adapts SageMaker asynchronous endpoints to the pipeline's
// fire-and-forget invocation capability. Completion is observed through the
// object store, not through this client.
type SageMakerInvoker struct {
	client *sagemakerruntime.Client
}

func NewSageMakerInvoker(client *sagemakerruntime.Client) *SageMakerInvoker {
	return &SageMakerInvoker{client: client}
}

func (s *SageMakerInvoker) Invoke(
	ctx context.Context,
	endpointName string,
	inputLocation string,
) error {
	_, err := s.client.InvokeEndpointAsync(ctx, &sagemakerruntime.InvokeEndpointAsyncInput{
		EndpointName:             aws.String(endpointName),
		InputLocation:            aws.String(inputLocation),
		ContentType:              aws.String("application/json"),
		InvocationTimeoutSeconds: aws.Int32(invocationTimeoutSeconds),
	})
	if err != nil {
		return fmt.Errorf("failed to invoke endpoint %s with %s: %w", endpointName, inputLocation, err)
	}
	return nil
}
