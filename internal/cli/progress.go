package cli

import (
	"fmt"
	"io"
	"os"
	"time"
)

// loadProgress reports a slow load step on stderr. A nil *loadProgress is
// valid and prints nothing.
type loadProgress struct {
	out     io.Writer
	started time.Time
}

func startProgress(out io.Writer, label string) *loadProgress {
	if !progressEnabled(out) {
		return nil
	}
	fmt.Fprintf(out, "%s... ", label)
	return &loadProgress{out: out, started: time.Now()}
}

// Done finishes the line with a short result such as "11 templates".
func (p *loadProgress) Done(result string) {
	if p == nil {
		return
	}
	elapsed := time.Since(p.started).Round(time.Millisecond)
	if result == "" {
		fmt.Fprintf(p.out, "done (%s)\n", elapsed)
		return
	}
	fmt.Fprintf(p.out, "%s (%s)\n", result, elapsed)
}

func (p *loadProgress) Fail(err error) {
	if p == nil {
		return
	}
	fmt.Fprintln(p.out, formatWarning("failed"))
	if err != nil {
		logger.Debug().Err(err).Msg("load step failed")
	}
}

func progressEnabled(out io.Writer) bool {
	switch {
	case noProgress, IsJSONOutput(), IsJSONLOutput():
		return false
	case os.Getenv("NARRATOR_NO_PROGRESS") != "":
		return false
	}
	f, ok := out.(*os.File)
	return ok && isTerminal(f)
}
