package records

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/sealcheck/internal/workflow"
	"github.com/JaimeStill/sealcheck/pkg/pagination"
)

// System defines the public contract for verification history operations.
// It satisfies workflow.Recorder so committed comparisons flow straight in.
type System interface {
	workflow.Recorder

	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Record], error)

	Find(ctx context.Context, id uuid.UUID) (*Record, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Export writes every record matching filters to w and returns the count.
	Export(ctx context.Context, format Format, filters Filters, w io.Writer) (int, error)
}
