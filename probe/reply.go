package probe

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Reply is a complete, possibly multi-line, SMTP reply.
type Reply struct {
	Code  int
	Lines []string // raw lines including the code, without CRLF
}

// Status returns the reply text as received, lines joined with " | ".
func (r Reply) Status() string {
	return strings.Join(r.Lines, " | ")
}

// Outcome classifies a reply code.
type Outcome int

const (
	// Unexpected is any code that is neither success nor recipient rejection.
	Unexpected Outcome = iota
	// Success is exactly 250.
	Success
	// Rejection is a permanent mailbox failure, 550 through 559.
	Rejection
)

// Interpret classifies code. Only 250 counts as success and only 55x as a
// rejection; every other code, including other 2xx and 5xx replies, is
// unexpected and must not be read as a verdict on the address.
func Interpret(code int) Outcome {
	switch {
	case code == 250:
		return Success
	case code/10 == 55:
		return Rejection
	default:
		return Unexpected
	}
}

// Reply size limits. RFC 5321 allows 512 bytes per reply line, CRLF included.
const (
	maxReplyLine  = 512
	maxReplyLines = 100
)

// readReply reads lines until the final line of a reply, the one whose
// fourth character is not '-'.
func readReply(r *bufio.Reader) (Reply, error) {
	var reply Reply
	for {
		if len(reply.Lines) == maxReplyLines {
			return Reply{}, fmt.Errorf("SMTP reply exceeds %d lines", maxReplyLines)
		}
		line, err := readLine(r)
		if err != nil {
			return Reply{}, err
		}
		if len(line) < 3 {
			return Reply{}, fmt.Errorf("SMTP reply line too short: %q", line)
		}

		code, err := strconv.Atoi(line[:3])
		if err != nil || code < 100 || code > 599 {
			return Reply{}, fmt.Errorf("invalid SMTP reply code %q", line[:3])
		}
		if reply.Code != 0 && code != reply.Code {
			return Reply{}, errors.New("SMTP reply code changed inside a multi-line reply")
		}
		reply.Code = code
		reply.Lines = append(reply.Lines, line)

		if len(line) == 3 || line[3] != '-' {
			return reply, nil
		}
	}
}

// readLine reads one line of at most maxReplyLine bytes and strips the CRLF.
func readLine(r *bufio.Reader) (string, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if len(line)+len(chunk) > maxReplyLine {
			return "", fmt.Errorf("SMTP reply line exceeds %d bytes", maxReplyLine)
		}
		line = append(line, chunk...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read SMTP reply: %w", err)
		}
		return strings.TrimRight(string(line), "\r\n"), nil
	}
}
