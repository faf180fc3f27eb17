package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// Coordinator drives batches of files through
// Validate → Create → Put → Confirm against the backend and the object store,
// and compensates the parent business record when a batch does not fully land.
type Coordinator struct {
	backend Backend
	putter  *ObjectPutter
	logger  core.Logger
	mailSvc core.EmailService // optional; operator alerts on failed compensation
	conf    *core.Config

	mu       sync.Mutex
	inflight map[BusinessRef]struct{}
}

func NewCoordinator(backend Backend, putter *ObjectPutter, logger core.Logger, mailSvc core.EmailService, conf *core.Config) *Coordinator {
	return &Coordinator{
		backend:  backend,
		putter:   putter,
		logger:   logger,
		mailSvc:  mailSvc,
		conf:     conf,
		inflight: make(map[BusinessRef]struct{}),
	}
}

// Run processes b's items strictly in order, one network operation in flight
// at a time. A failing item is isolated: it is marked in error and the loop
// moves on. Once every item is terminal, a batch with any failure triggers
// exactly one compensating cancel of b.Ref; a fully successful batch triggers
// a refresh listing instead.
//
// Cancelling ctx aborts the operation in flight and abandons the items not
// yet started; no confirm is ever issued for an aborted put, and no
// compensation is attempted for an aborted batch.
//
// Run rejects concurrent invocations for the same business record with
// ErrBatchInFlight.
func (c *Coordinator) Run(ctx context.Context, b *Batch) (BatchResult, error) {
	if err := c.acquire(b.Ref); err != nil {
		return BatchResult{}, err
	}
	defer c.release(b.Ref)

	var res BatchResult
	if len(b.Items) == 0 {
		return res, nil
	}

	var aborted bool
	for i, it := range b.Items {
		if it.Status.Terminal() {
			// re-invocation on a partially processed batch: count, don't redo
			if it.Status == StatusDone {
				res.Succeeded++
			} else {
				res.Failed++
			}
			continue
		}
		if ctx.Err() != nil {
			aborted = true
			break
		}
		if err := c.process(ctx, b, i, it); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				aborted = true
				break
			}
			res.Failed++
			continue
		}
		res.Succeeded++
	}

	if aborted {
		c.logger.Info(fmt.Sprintf("upload batch for %s aborted after %d item(s)", b.Ref, res.Total()))
		return res, errors.Wrapf(ctx.Err(), "upload batch for %s aborted", b.Ref)
	}

	if res.Failed > 0 {
		// the business record cannot stand partially attached; compensate once
		if err := c.backend.CancelBusiness(ctx, b.Ref); err != nil {
			cerr := &CompensationError{Ref: b.Ref, Err: err}
			c.logger.Error(fmt.Sprintf("compensation failed for %s: %v", b.Ref, err), cerr)
			c.alertOps(b, res, cerr)
			return res, cerr
		}
		c.logger.Info(fmt.Sprintf("%d of %d item(s) failed for %s; business record cancelled", res.Failed, res.Total(), b.Ref))
		return res, nil
	}

	// everything landed; refresh the committed listing for subscribers
	if _, err := c.backend.ListFiles(ctx, b.Ref, b.Policy.BucketPurpose); err != nil {
		c.logger.Warn(fmt.Sprintf("refreshing committed files for %s: %v", b.Ref, err), err)
	}
	return res, nil
}

// process drives one item to a terminal state. It returns nil when the item
// is done, a context error when the run was aborted mid-item, and the item's
// classified failure otherwise.
func (c *Coordinator) process(ctx context.Context, b *Batch, i int, it *Item) error {
	// client-side policy gate; the backend re-validates on create
	if err := b.Policy.ValidateFile(it.File); err != nil {
		return c.fail(b, i, it, err)
	}

	c.transition(b, i, it, StatusCreating, 0)
	sess, err := c.backend.CreateSession(ctx, CreateSessionRequest{
		BucketPurpose:    b.Policy.BucketPurpose,
		OriginalFilename: it.File.Name(),
		BusinessRefType:  b.Ref.Type,
		BusinessRefID:    b.Ref.ID,
		ExpectedSize:     it.File.Size(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return c.abort(ctx, b, i, it)
		}
		return c.fail(b, i, it, err)
	}
	it.setFileObjectID(sess.FileObjectID)

	c.transition(b, i, it, StatusUploading, 0)
	err = c.putter.Put(ctx, it.File, sess.PresignedURL, func(pct int) {
		it.Progress = pct
		b.progress.set(i, StatusUploading, pct, "")
	})
	if err != nil {
		if ctx.Err() != nil {
			// an aborted put must never be followed by a confirm
			return c.abort(ctx, b, i, it)
		}
		return c.fail(b, i, it, err)
	}

	c.transition(b, i, it, StatusConfirming, 100)
	_, err = c.backend.Confirm(ctx, ConfirmRequest{
		FileObjectID: it.FileObjectID,
		SizeBytes:    it.File.Size(),
		ContentType:  it.File.ContentType(),
	})
	if err != nil {
		if ctx.Err() != nil {
			return c.abort(ctx, b, i, it)
		}
		var confErr *ConfirmError
		if errors.As(err, &confErr) && confErr.Reconcilable() && c.reconciled(ctx, b, it) {
			// a prior attempt already landed; the ambiguous rejection was benign
			c.logger.Info(fmt.Sprintf("confirm for %s reconciled as committed (%s)", it.FileObjectID, confErr.Error()))
			c.transition(b, i, it, StatusDone, 100)
			return nil
		}
		return c.fail(b, i, it, err)
	}

	c.transition(b, i, it, StatusDone, 100)
	return nil
}

// reconciled re-reads the source of truth to resolve an ambiguous confirm
// outcome: the item counts as committed iff its file object shows up in the
// backend's committed listing.
func (c *Coordinator) reconciled(ctx context.Context, b *Batch, it *Item) bool {
	recs, err := c.backend.ListFiles(ctx, b.Ref, b.Policy.BucketPurpose)
	if err != nil {
		c.logger.Warn(fmt.Sprintf("reconciliation listing for %s: %v", b.Ref, err), err)
		return false
	}
	for _, rec := range recs {
		if rec.ID == it.FileObjectID {
			return true
		}
	}
	return false
}

func (c *Coordinator) transition(b *Batch, i int, it *Item, st Status, pct int) {
	it.Status = st
	it.Progress = pct
	b.progress.set(i, st, pct, "")
}

func (c *Coordinator) fail(b *Batch, i int, it *Item, err error) error {
	it.Status = StatusError
	it.ErrorMessage = err.Error()
	it.err = err
	b.progress.set(i, StatusError, it.Progress, it.ErrorMessage)
	c.logger.Warn(fmt.Sprintf("upload of %q for %s failed: %v", it.File.Name(), b.Ref, err), err)
	return err
}

func (c *Coordinator) abort(ctx context.Context, b *Batch, i int, it *Item) error {
	err := ctx.Err()
	if err == nil {
		err = context.Canceled
	}
	it.Status = StatusError
	it.ErrorMessage = "upload aborted"
	it.err = err
	b.progress.set(i, StatusError, it.Progress, it.ErrorMessage)
	return err
}

func (c *Coordinator) alertOps(b *Batch, res BatchResult, cerr *CompensationError) {
	if c.mailSvc == nil || c.conf == nil || len(c.conf.OpsEmails) == 0 {
		return
	}
	c.mailSvc.SendMessages(&core.EmailMessage{
		To:      c.conf.OpsRecipients(),
		Subject: fmt.Sprintf("rollback failed for %s - manual cleanup required", b.Ref),
		BodyStr: fmt.Sprintf(
			"Cancelling business record %s failed after a partial attachment batch (%d of %d item(s) failed).\n\nCause: %v\n",
			b.Ref, res.Failed, res.Total(), cerr.Err,
		),
	})
}

func (c *Coordinator) acquire(ref BusinessRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[ref]; busy {
		return ErrBatchInFlight
	}
	c.inflight[ref] = struct{}{}
	return nil
}

func (c *Coordinator) release(ref BusinessRef) {
	c.mu.Lock()
	delete(c.inflight, ref)
	c.mu.Unlock()
}
