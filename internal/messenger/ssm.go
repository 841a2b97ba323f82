package messenger

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
	"github.com/hugo-lorenzo-mato/caso/internal/fsutil"
)

// SSMMessageVersion tags every message written to the SSM queue.
const SSMMessageVersion = "caso-1"

// ssmMessage is the document stored per push.
type ssmMessage struct {
	Version string        `json:"version"`
	Records []core.Record `json:"records"`
}

// SSM drops messages into the outgoing directory of an APEL SSM sender,
// which ships them on its own schedule.
type SSM struct {
	dir string
	now func() time.Time
}

// NewSSM creates an SSM messenger writing into dir.
func NewSSM(dir string) *SSM {
	return &SSM{dir: dir, now: time.Now}
}

// Name implements core.Messenger.
func (s *SSM) Name() string { return "ssm" }

// Push writes records as one message file. The sender picks files up by
// name, so each one appears atomically and names sort by creation time.
func (s *SSM) Push(ctx context.Context, records []core.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fsutil.EnsureDir(s.dir, 0o750); err != nil {
		return core.ErrExecution(core.CodePushFailed, "creating ssm queue").WithCause(err)
	}

	data, err := json.Marshal(ssmMessage{Version: SSMMessageVersion, Records: records})
	if err != nil {
		return core.ErrValidation(core.CodePushRejected, "encoding ssm message").WithCause(err)
	}

	name := fmt.Sprintf("%020d-%s.json", s.now().UnixNano(), uuid.NewString())
	if err := fsutil.AtomicWriteFile(filepath.Join(s.dir, name), data, 0o640); err != nil {
		return core.ErrExecution(core.CodePushFailed, "writing ssm message").WithCause(err)
	}
	return nil
}
