package mx

import "github.com/optimode/mailprobe/types"

// Queue hands out mail servers front to back. Each server is returned at
// most once; there is no re-ordering and no re-insertion.
type Queue struct {
	servers []types.MailServer
}

// NewQueue creates a queue over a copy of servers, which should already be
// in priority order (as returned by a Resolver).
func NewQueue(servers []types.MailServer) *Queue {
	return &Queue{servers: append([]types.MailServer(nil), servers...)}
}

// Next removes and returns the head of the queue.
// ok is false once the queue is exhausted.
func (q *Queue) Next() (server types.MailServer, ok bool) {
	if len(q.servers) == 0 {
		return types.MailServer{}, false
	}
	server = q.servers[0]
	q.servers = q.servers[1:]
	return server, true
}

// Len returns the number of servers not yet handed out.
func (q *Queue) Len() int { return len(q.servers) }
