package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
)

// defaultDialTimeout bounds connection setup when ctx has no deadline.
const defaultDialTimeout = 10 * time.Second

// Logstash streams records as JSON lines to a logstash tcp input.
type Logstash struct {
	addr string
}

// NewLogstash creates a messenger for host:port.
func NewLogstash(host string, port int) *Logstash {
	return &Logstash{addr: net.JoinHostPort(host, strconv.Itoa(port))}
}

// Name implements core.Messenger.
func (l *Logstash) Name() string { return "logstash" }

// Addr returns the target address.
func (l *Logstash) Addr() string { return l.addr }

// Push implements core.Messenger. One connection is used per push.
func (l *Logstash) Push(ctx context.Context, records []core.Record) error {
	if len(records) == 0 {
		return nil
	}

	// Encode up front: a record that cannot be encoded never will be.
	var buf bytes.Buffer
	for i := range records {
		line, err := json.Marshal(&records[i])
		if err != nil {
			return core.ErrValidation(core.CodePushRejected,
				fmt.Sprintf("encoding record %s", records[i].UUID)).WithCause(err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	d := net.Dialer{Timeout: defaultDialTimeout}
	conn, err := d.DialContext(ctx, "tcp", l.addr)
	if err != nil {
		return core.ErrNetwork(core.CodeSinkUnreachable,
			fmt.Sprintf("connecting to logstash %s", l.addr)).WithCause(err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}

	if _, err := buf.WriteTo(conn); err != nil {
		return core.ErrNetwork(core.CodePushFailed,
			fmt.Sprintf("sending to logstash %s", l.addr)).WithCause(err)
	}
	return nil
}
