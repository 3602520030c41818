package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers
	"github.com/rs/zerolog"

	"github.com/joe/batchcopy/internal/logging"
	"github.com/joe/batchcopy/internal/stats"
)

func init() {
	color.NoColor = true
}

func TestNew_LevelFollowsVerbose(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var quiet, loud bytes.Buffer

	quietLogger := logging.New(&quiet, false)
	loudLogger := logging.New(&loud, true)

	quietLogger.Debug().Msg("hidden")
	loudLogger.Debug().Msg("shown")

	g.Expect(quiet.String()).Should(BeEmpty())
	g.Expect(loud.String()).Should(ContainSubstring("shown"))
}

func TestWithLogger_ReachesZerologCtx(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var buf bytes.Buffer

	ctx := logging.WithLogger(context.Background(), logging.New(&buf, false))
	zerolog.Ctx(ctx).Info().Str("pair", "/a").Msg("copied")

	g.Expect(buf.String()).Should(ContainSubstring("copied"))
	g.Expect(buf.String()).Should(ContainSubstring("pair=/a"))
}

func TestPrintResults_WritesEveryLine(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	results := &stats.Results{
		Status: stats.FilesCopied | stats.SomeFailed,
		Log: []string{
			"   batchcopy :: job",
			"2024/06/01 12:00:00 ERROR 5 (permission) Copying /a: denied",
			"   Status : FilesCopied|SomeFailed",
		},
	}

	var buf bytes.Buffer

	g.Expect(logging.PrintResults(&buf, results)).Should(Succeed())
	g.Expect(buf.String()).Should(Equal(
		"   batchcopy :: job\n" +
			"2024/06/01 12:00:00 ERROR 5 (permission) Copying /a: denied\n" +
			"   Status : FilesCopied|SomeFailed\n"))
}
