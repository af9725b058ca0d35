package describe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hpungsan/locky/internal/storage"
)

// maxDescriptionRunes caps a remote description.
const maxDescriptionRunes = 200

// completer sends a single prompt to a language model and returns its reply.
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
	name() string
}

// Remote asks a language model for a one-line description and falls back
// to Baseline when the file is not text or the call fails.
type Remote struct {
	client   completer
	fallback Baseline
	timeout  time.Duration
	logger   *zap.Logger
}

// newRemote wraps client. A zero timeout means no per-call deadline.
func newRemote(client completer, maxBytes int, timeout time.Duration, logger *zap.Logger) *Remote {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remote{
		client:   client,
		fallback: Baseline{MaxBytes: maxBytes},
		timeout:  timeout,
		logger:   logger,
	}
}

// Provider returns the name of the backing service.
func (r *Remote) Provider() string {
	return r.client.name()
}

// Describe implements Describer.
func (r *Remote) Describe(ctx context.Context, path string) string {
	log := r.logger.With(zap.String("provider", r.client.name()), zap.String("file", filepath.Base(path)))

	head, err := readHead(path, r.fallback.maxBytes())
	if err != nil {
		log.Warn("read for describe failed, using baseline", zap.Error(err))
		return r.fallback.Describe(ctx, path)
	}
	if len(head) == 0 || storage.LooksBinary(head) {
		log.Debug("not text, using baseline")
		return r.fallback.Describe(ctx, path)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	reply, err := r.client.complete(ctx, buildPrompt(filepath.Base(path), head))
	if err != nil {
		log.Warn("remote describe failed, using baseline", zap.Error(err))
		return r.fallback.Describe(ctx, path)
	}

	desc := cleanReply(reply)
	if desc == "" {
		log.Warn("remote describe returned nothing, using baseline")
		return r.fallback.Describe(ctx, path)
	}
	return desc
}

func buildPrompt(filename string, head []byte) string {
	return fmt.Sprintf(`Describe the following file in one short sentence (at most 20 words).
Reply with the sentence only, no quotes or preamble.

Filename: %s

%s`, filename, strings.ToValidUTF8(string(storage.TrimPartialRune(head)), ""))
}

// cleanReply collapses whitespace, strips wrapping quotes and caps length.
func cleanReply(reply string) string {
	s := strings.Join(strings.Fields(reply), " ")
	s = strings.Trim(s, "\"'`")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxDescriptionRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxDescriptionRunes-3])) + "..."
	}
	return s
}
