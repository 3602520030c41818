package copier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/joe/batchcopy/internal/clock"
	"github.com/joe/batchcopy/pkg/fileops"
	"github.com/joe/batchcopy/pkg/filesystem"
)

// Exported constants.
const (
	// DefaultChunkSize is how much the native transfer copies between callbacks.
	DefaultChunkSize = 1 << 20
	// NativePollInterval is how often the calling side checks the mailbox
	// and the pause and cancel flags while a native transfer runs.
	NativePollInterval = 25 * time.Millisecond
)

type nativeProgress struct {
	copied int64
	total  int64
}

type nativeResult struct {
	copied int64
	err    error
}

// restartPoint remembers where a stopped restartable transfer left off and
// which source it was copying.
type restartPoint struct {
	offset  int64
	size    int64
	modTime time.Time
}

// NativeCopier copies local files with copy_file_range on its own locked OS
// thread. The transfer thread only reads an atomic verdict and posts into a
// one-slot mailbox; the calling goroutine polls both.
type NativeCopier struct {
	base

	fs          *filesystem.RealFileSystem
	restartable bool
	chunkSize   int

	verdict atomic.Int32
	mailbox chan nativeProgress
	restart atomic.Pointer[restartPoint]
}

// NewNativeCopier creates a native copier. In restartable mode a stopped or
// cancelled transfer keeps its partial destination and a later Copy resumes it.
func NewNativeCopier(pair *fileops.FilePair, restartable bool, chunkSize int, provider clock.TimeProvider) *NativeCopier {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	c := &NativeCopier{
		fs:          filesystem.NewRealFileSystem(),
		restartable: restartable,
		chunkSize:   chunkSize,
		mailbox:     make(chan nativeProgress, 1),
	}
	c.init(pair, provider)

	return c
}

// Restartable reports whether stopped transfers can be resumed.
func (c *NativeCopier) Restartable() bool {
	return c.restartable
}

// RefreshMetadata reloads both sides of the pair.
func (c *NativeCopier) RefreshMetadata() error {
	err := c.pair.RefreshSource(c.fs)
	if err != nil {
		return err
	}

	return c.pair.RefreshDestination(c.fs)
}

// Copy copies the source to the destination.
func (c *NativeCopier) Copy(ctx context.Context, overwrite bool) (bool, error) {
	opCtx, err := c.begin(ctx)
	if err != nil {
		return false, err
	}

	return c.finish(c.copy(opCtx, overwrite))
}

// Move tries a same-volume rename, then a kernel transfer followed by
// unlinking the source, then a portable copy followed by unlinking.
func (c *NativeCopier) Move(ctx context.Context, overwrite bool) (bool, error) {
	opCtx, err := c.begin(ctx)
	if err != nil {
		return false, err
	}

	return c.finish(c.move(opCtx, overwrite))
}

func (c *NativeCopier) move(ctx context.Context, overwrite bool) error {
	err := c.precheck(c.fs, c.fs, overwrite)
	if err != nil {
		return err
	}

	err = fileops.EnsureParent(c.fs, c.pair.Destination)
	if err != nil {
		return err
	}

	if filesystem.SameVolume(c.fs, c.pair.Source, c.pair.Destination) {
		err = os.Rename(c.pair.Source, c.pair.Destination)
		if err == nil {
			c.report(c.pair.SourceMeta.Size, c.pair.SourceMeta.Size)
			return nil
		}

		zerolog.Ctx(ctx).Debug().Err(err).Str("source", c.pair.Source).Msg("rename failed, transferring instead")
	}

	err = c.run(ctx, 0)
	if err != nil {
		return err
	}

	err = os.Remove(c.pair.Source)
	if err != nil {
		return fmt.Errorf("copied %s but could not delete it: %w", c.pair.Source, err)
	}

	return nil
}

func (c *NativeCopier) copy(ctx context.Context, overwrite bool) error {
	offset := c.resumeOffset()

	// A partial destination of our own is not a conflict.
	err := c.precheck(c.fs, c.fs, overwrite || offset > 0)
	if err != nil {
		return err
	}

	err = fileops.EnsureParent(c.fs, c.pair.Destination)
	if err != nil {
		return err
	}

	if offset > 0 {
		zerolog.Ctx(ctx).Debug().Str("source", c.pair.Source).Int64("offset", offset).Msg("resuming native copy")
	}

	return c.run(ctx, offset)
}

// run drives transfers until one completes, fails, or is cancelled,
// parking whenever a pause stops the transfer.
//
//nolint:cyclop // Outcome dispatch of the transfer loop
func (c *NativeCopier) run(ctx context.Context, offset int64) error {
	chunk := chunkFunc(kernelChunk)

	if ctx.Err() != nil {
		return c.abandon(offset)
	}

	for {
		res := c.transfer(ctx, offset, chunk)

		switch {
		case res.err == nil:
			c.restart.Store(nil)
			c.report(res.copied, c.pair.SourceMeta.Size)

			return nil

		case errors.Is(res.err, errKernelUnsupported):
			zerolog.Ctx(ctx).Debug().Str("source", c.pair.Source).Msg("kernel copy unavailable, using portable copy")

			chunk = portableChunk
			offset = res.copied

		case errors.Is(res.err, errTransferStopped) && ctx.Err() == nil:
			offset = c.parkUntilResumed(ctx, res.copied)
			if offset < 0 {
				return c.abandon(res.copied)
			}

		case errors.Is(res.err, errTransferStopped), errors.Is(res.err, errTransferCancelled):
			return c.abandon(res.copied)

		default:
			_ = os.Remove(c.pair.Destination)
			return fmt.Errorf("%w: %s: %w", ErrNativeCopy, c.pair.Source, res.err)
		}
	}
}

// transfer runs one native call on a locked OS thread and polls it.
func (c *NativeCopier) transfer(ctx context.Context, offset int64, chunk chunkFunc) nativeResult {
	c.verdict.Store(int32(Continue))

	done := make(chan nativeResult, 1)
	buf := make([]byte, c.chunkSize)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		copied, err := nativeTransfer(c.pair.Source, c.pair.Destination, offset, buf, chunk, c.callback)
		done <- nativeResult{copied: copied, err: err}
	}()

	ticker := c.clock.NewTicker(NativePollInterval)
	defer ticker.Stop()

	cancelled := ctx.Done()

	for {
		select {
		case res := <-done:
			return res
		case p := <-c.mailbox:
			c.report(p.copied, p.total)
		case <-cancelled:
			cancelled = nil

			if c.restartable {
				c.verdict.Store(int32(Stop))
			} else {
				c.verdict.Store(int32(Cancel))
			}
		case <-ticker.C():
		}

		if c.paused.Load() && Verdict(c.verdict.Load()) == Continue {
			c.verdict.Store(int32(Stop))
		}
	}
}

// callback runs on the transfer thread. It never blocks: the newest
// progress replaces whatever the poll loop has not picked up yet.
func (c *NativeCopier) callback(copied, total int64) Verdict {
	select {
	case <-c.mailbox:
	default:
	}

	select {
	case c.mailbox <- nativeProgress{copied: copied, total: total}:
	default:
	}

	return Verdict(c.verdict.Load())
}

// parkUntilResumed waits for Resume and returns the offset to continue
// from, or -1 when cancelled while parked. Only a restartable copy moves to
// Paused; any other stays Copying and starts over from 0.
func (c *NativeCopier) parkUntilResumed(ctx context.Context, copied int64) int64 {
	if c.restartable {
		c.setState(Paused)
	}

	err := c.waitWhilePaused(ctx, PauseInterval)
	if err != nil {
		return -1
	}

	if !c.restartable {
		return 0
	}

	c.setState(Copying)

	return copied
}

// abandon handles a cancelled transfer. Restartable copies keep the
// partial destination and remember the offset.
func (c *NativeCopier) abandon(copied int64) error {
	if c.restartable {
		c.restart.Store(&restartPoint{
			offset:  copied,
			size:    c.pair.SourceMeta.Size,
			modTime: c.pair.SourceMeta.ModTime,
		})
	} else {
		_ = os.Remove(c.pair.Destination)
	}

	return c.cancelled()
}

// resumeOffset returns the offset a restartable copy can continue from: the
// source must be unchanged and the partial destination at least that long.
func (c *NativeCopier) resumeOffset() int64 {
	point := c.restart.Load()
	if !c.restartable || point == nil {
		return 0
	}

	srcInfo, err := os.Stat(c.pair.Source)
	if err != nil || srcInfo.Size() != point.size || !srcInfo.ModTime().Equal(point.modTime) {
		return 0
	}

	dstInfo, err := os.Stat(c.pair.Destination)
	if err != nil || dstInfo.Size() < point.offset {
		return 0
	}

	return point.offset
}
