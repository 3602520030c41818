//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package selection_test

import (
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batchcopy/internal/clock"
	"github.com/joe/batchcopy/internal/config"
	"github.com/joe/batchcopy/internal/selection"
	"github.com/joe/batchcopy/pkg/fileops"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func pairOf(source string, size int64, modTime time.Time) *fileops.FilePair {
	pair := fileops.NewFilePair(source, "/dst/x")
	pair.SourceMeta = fileops.FileMeta{Exists: true, Size: size, ModTime: modTime}

	return pair
}

func TestNewGlobFilter_InvalidPattern(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := selection.NewGlobFilter(config.SelectionOptions{Include: []string{"[invalid"}}, nil)
	g.Expect(err).Should(MatchError(selection.ErrInvalidPattern))

	_, err = selection.NewGlobFilter(config.SelectionOptions{Exclude: []string{"{a,b"}}, nil)
	g.Expect(err).Should(MatchError(selection.ErrInvalidPattern))
}

func TestGlobFilter_ShouldCopy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   config.SelectionOptions
		source string
		size   int64
		age    time.Duration
		want   bool
	}{
		{name: "no filter copies everything", source: "/a/b/file.txt", want: true},
		{name: "name pattern matches", opts: config.SelectionOptions{Include: []string{"*.mov"}}, source: "/videos/clip.mov", want: true},
		{name: "name pattern rejects", opts: config.SelectionOptions{Include: []string{"*.mov"}}, source: "/videos/clip.mp4", want: false},
		{name: "case insensitive", opts: config.SelectionOptions{Include: []string{"*.MOV"}}, source: "/videos/CLIP.mov", want: true},
		{name: "path pattern", opts: config.SelectionOptions{Include: []string{"**/raw/**"}}, source: "/photos/raw/2024/a.cr2", want: true},
		{name: "path pattern rejects", opts: config.SelectionOptions{Include: []string{"**/raw/**"}}, source: "/photos/jpg/a.jpg", want: false},
		{name: "rooted path pattern", opts: config.SelectionOptions{Include: []string{"/photos/*/a.jpg"}}, source: "/photos/jpg/a.jpg", want: true},
		{name: "brace alternatives", opts: config.SelectionOptions{Include: []string{"*.{jpg,png}"}}, source: "/p/a.png", want: true},
		{
			name:   "exclude wins over include",
			opts:   config.SelectionOptions{Include: []string{"*.txt"}, Exclude: []string{"secret*"}},
			source: "/docs/secret.txt",
			want:   false,
		},
		{name: "below min size", opts: config.SelectionOptions{MinSize: 10}, source: "/a", size: 9, want: false},
		{name: "at min size", opts: config.SelectionOptions{MinSize: 10}, source: "/a", size: 10, want: true},
		{name: "above max size", opts: config.SelectionOptions{MaxSize: 10}, source: "/a", size: 11, want: false},
		{name: "zero max size is unlimited", opts: config.SelectionOptions{}, source: "/a", size: 1 << 40, want: true},
		{name: "too old", opts: config.SelectionOptions{MaxAge: time.Hour}, source: "/a", age: 2 * time.Hour, want: false},
		{name: "young enough", opts: config.SelectionOptions{MaxAge: time.Hour}, source: "/a", age: time.Minute, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			filter, err := selection.NewGlobFilter(tt.opts, clock.NewMockTimeProvider(now))
			g.Expect(err).ShouldNot(HaveOccurred())

			g.Expect(filter.ShouldCopy(pairOf(tt.source, tt.size, now.Add(-tt.age)))).Should(Equal(tt.want))
		})
	}
}
