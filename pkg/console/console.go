// Package console serves the operator console: a line-based text protocol
// over a raw TCP socket, human-typeable with nothing but telnet.
package console

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/mikage-io/kagami/pkg/taskman"
)

const farewell = "bye"

// Server answers console sessions with task-manager introspection.
type Server struct {
	manager *taskman.Manager
	logger  *log.Logger
}

func New(logger *log.Logger, manager *taskman.Manager) *Server {
	return &Server{manager: manager, logger: logger}
}

// Serve accepts console sessions until ctx is done.
//
// The listener is closed when ctx is done; Serve then returns ctx.Err().
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		lis.Close()
	}()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		reply, quit := s.dispatch(line)
		if _, err := fmt.Fprint(conn, reply); err != nil {
			s.logger.Printf("console: write failed: %s", err)
			return
		}
		if quit {
			return
		}
	}
	if err := sc.Err(); err != nil {
		s.logger.Printf("console: read failed: %s", err)
	}
}

// dispatch interprets one command line.
//
// Anything going wrong while processing ends the session with the
// farewell; details are for the process log, not the socket.
func (s *Server) dispatch(line string) (reply string, quit bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("console: command %q failed: %v", line, r)
			reply, quit = farewell+"\n", true
		}
	}()

	fields := strings.Fields(line)
	switch fields[0] {
	case "help":
		return "" +
			"help                  this message\n" +
			"tasks                 list supervised tasks\n" +
			"reset_restarts [name] reset restart counter of one task, or all\n" +
			"anything else closes the connection\n", false

	case "tasks":
		b := &strings.Builder{}
		for _, t := range s.manager.CurrentTasks() {
			fmt.Fprintf(
				b, "- %s: since %s (%d restarts)\n",
				t.Name, t.Started.Format(time.RFC3339), t.Restarts,
			)
		}
		return b.String(), false

	case "reset_restarts":
		name := ""
		if 1 < len(fields) {
			name = fields[1]
		}
		// unknown names are fine: resetting nothing is still Ok
		s.manager.ResetRestarts(name)
		return "Ok\n", false
	}

	return farewell + "\n", true
}
