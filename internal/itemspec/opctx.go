package itemspec

import (
	"context"

	"github.com/peaceflow/peace/internal/progress"
)

// OpCtx is passed to every item-spec operation named in spec §4.3. It
// carries the item id (so item specs can include it in log lines and
// error messages without threading it separately) and a progress sender
// bound to that item.
type OpCtx struct {
	ctx      context.Context
	itemID   ID
	progress *progress.Sender
}

// NewOpCtx constructs an OpCtx for one item's operation invocation.
func NewOpCtx(ctx context.Context, itemID ID, sender *progress.Sender) OpCtx {
	return OpCtx{ctx: ctx, itemID: itemID, progress: sender}
}

// Context returns the underlying context.Context, cancelled when the
// owning command run is cancelled (spec §5 "Cancellation semantics").
func (o OpCtx) Context() context.Context { return o.ctx }

// ItemID returns the id of the item this operation concerns.
func (o OpCtx) ItemID() ID { return o.itemID }

// Progress returns the progress sender bound to this item.
func (o OpCtx) Progress() *progress.Sender { return o.progress }
