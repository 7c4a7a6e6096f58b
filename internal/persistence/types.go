package persistence

import (
	"time"

	"github.com/aws-samples/media-localization-with-visual-dubbing-lip-sync/internal/pipeline"
)

// Run is the durable record of one dubbing run. The job name is the
// dedupe key: a descriptor whose job name already has a record is never
// started a second time.
type Run struct {
	ID            string
	JobName       string
	DescriptorKey string
	State         pipeline.RunState
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
