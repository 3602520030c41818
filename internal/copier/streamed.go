package copier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/joe/batchcopy/internal/clock"
	"github.com/joe/batchcopy/pkg/fileops"
	"github.com/joe/batchcopy/pkg/filesystem"
)

// StreamedCopier copies through a user-space buffer. It works across any
// pair of filesystems, including local to SFTP.
type StreamedCopier struct {
	base

	ops        *fileops.FileOps
	bufferSize int
}

// NewStreamedCopier creates a streamed copier. A non-positive bufferSize
// selects fileops.DefaultBufferSize.
func NewStreamedCopier(pair *fileops.FilePair, ops *fileops.FileOps, bufferSize int, provider clock.TimeProvider) *StreamedCopier {
	if bufferSize <= 0 {
		bufferSize = fileops.DefaultBufferSize
	}

	c := &StreamedCopier{ops: ops, bufferSize: bufferSize}
	c.init(pair, provider)

	return c
}

// BufferSize returns the copy buffer size in bytes.
func (c *StreamedCopier) BufferSize() int {
	return c.bufferSize
}

// RefreshMetadata reloads both sides of the pair.
func (c *StreamedCopier) RefreshMetadata() error {
	return c.ops.Refresh(c.pair)
}

// Copy copies the source to the destination.
func (c *StreamedCopier) Copy(ctx context.Context, overwrite bool) (bool, error) {
	opCtx, err := c.begin(ctx)
	if err != nil {
		return false, err
	}

	err = c.precheck(c.ops.SourceFS, c.ops.DestFS, overwrite)
	if err == nil {
		err = c.transfer(opCtx)
	}

	return c.finish(err)
}

// Move renames within one volume and otherwise copies then deletes the source.
func (c *StreamedCopier) Move(ctx context.Context, overwrite bool) (bool, error) {
	opCtx, err := c.begin(ctx)
	if err != nil {
		return false, err
	}

	return c.finish(c.move(opCtx, overwrite))
}

func (c *StreamedCopier) move(ctx context.Context, overwrite bool) error {
	err := c.precheck(c.ops.SourceFS, c.ops.DestFS, overwrite)
	if err != nil {
		return err
	}

	log := zerolog.Ctx(ctx)

	if c.ops.SameFileSystem() && filesystem.SameVolume(c.ops.SourceFS, c.pair.Source, c.pair.Destination) {
		err = fileops.EnsureParent(c.ops.DestFS, c.pair.Destination)
		if err != nil {
			return err
		}

		err = c.ops.DestFS.Rename(c.pair.Source, c.pair.Destination)
		if err == nil {
			log.Debug().Str("source", c.pair.Source).Msg("moved by rename")
			c.report(c.pair.SourceMeta.Size, c.pair.SourceMeta.Size)

			return nil
		}

		log.Debug().Err(err).Str("source", c.pair.Source).Msg("rename failed, copying instead")
	}

	err = c.transfer(ctx)
	if err != nil {
		return err
	}

	err = c.ops.SourceFS.Remove(c.pair.Source)
	if err != nil {
		return fmt.Errorf("copied %s but could not delete it: %w", c.pair.Source, err)
	}

	return nil
}

// transfer streams the bytes. Progress is sampled on its own timer so the
// copy loop never waits on the handler.
func (c *StreamedCopier) transfer(ctx context.Context) error {
	size := c.pair.SourceMeta.Size

	var written atomic.Int64

	stopReporter := c.startReporter(&written, size)

	_, err := c.ops.CopyFile(c.pair.Source, c.pair.Destination, make([]byte, c.bufferSize), func(n int64) error {
		written.Store(n)

		if ctx.Err() != nil {
			return c.cancelled()
		}

		return c.waitWhilePaused(ctx, PauseInterval)
	})

	stopReporter()

	switch {
	case errors.Is(err, ErrOperationCancelled):
		return err
	case filesystem.IsNotExist(err):
		return fmt.Errorf("%w: %w", ErrFileNotFound, err)
	case err != nil:
		return err
	}

	c.report(size, size)

	return nil
}

func (c *StreamedCopier) startReporter(written *atomic.Int64, size int64) func() {
	done := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		ticker := c.clock.NewTicker(ProgressInterval)
		defer ticker.Stop()

		var last int64

		for {
			select {
			case <-done:
				return
			case <-ticker.C():
				if n := written.Load(); n > 0 && n != last {
					last = n
					c.report(n, size)
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}
