package shared_test

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/batchcopy/internal/batch"
	"github.com/joe/batchcopy/internal/tui/shared"
	pkgerrors "github.com/joe/batchcopy/pkg/errors"
)

func TestRenderErrorList(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(shared.RenderErrorList(nil, 3, 0)).To(BeEmpty())

	enriched := pkgerrors.NewEnricher().Enrich(errors.New("open /src/a: permission denied"), "/src/a")
	failures := []batch.ItemError{
		{Source: "/src/a", Final: true, Err: enriched},
		{Source: "/src/b", Final: true, Err: errBoom},
		{Source: "/src/c", Final: true, Err: errBoom},
	}

	out := shared.RenderErrorList(failures, 2, 0)
	g.Expect(out).To(ContainSubstring("/src/a"))
	g.Expect(out).To(ContainSubstring("permission denied"))
	g.Expect(out).To(ContainSubstring("•"))
	g.Expect(out).To(ContainSubstring("/src/b"))
	g.Expect(out).NotTo(ContainSubstring("/src/c"))
	g.Expect(out).To(ContainSubstring("... and 1 more"))
}
