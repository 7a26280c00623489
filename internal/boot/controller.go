package boot

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"viperos/internal/klog"
	"viperos/internal/task"
)

// Controller is a line-delimited, host-only introspection socket: it
// answers "tasks", "mem_info", and "uptime" requests by reading
// straight out of the live Machine, the same shape
// runsc's boot controller used for its own out-of-band debug RPCs,
// minus everything checkpoint/restore-related. It never reaches a
// guest syscall number; a request here cannot affect scheduling.
type Controller struct {
	machine *Machine
	ln      net.Listener
}

// NewController binds a Unix socket at path and returns a Controller
// ready to Serve. It first removes any file already at path, such as
// a stale socket left over from an unclean shutdown.
func NewController(m *Machine, path string) (*Controller, error) {
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("boot: control socket %s: %w", path, err)
	}
	return &Controller{machine: m, ln: ln}, nil
}

// Serve accepts connections until the listener is closed, handling
// each on its own goroutine. It returns nil on a clean Close.
func (c *Controller) Serve() error {
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			if strings.Contains(err.Error(), "use of closed network connection") {
				return nil
			}
			return err
		}
		go c.handle(conn)
	}
}

// Close stops accepting new connections.
func (c *Controller) Close() error {
	return c.ln.Close()
}

func (c *Controller) handle(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		req := strings.TrimSpace(scanner.Text())
		resp := c.dispatch(req)
		if _, err := fmt.Fprintln(conn, resp); err != nil {
			klog.Warnf("boot: control connection write failed: %v", err)
			return
		}
	}
}

func (c *Controller) dispatch(req string) string {
	switch req {
	case "tasks":
		return c.tasks()
	case "mem_info":
		return c.memInfo()
	case "uptime":
		return c.uptime()
	default:
		return fmt.Sprintf("error: unknown request %q", req)
	}
}

func (c *Controller) tasks() string {
	infos := make([]task.Info, c.machine.Config.MaxTasks)
	n := c.machine.Tasks.List(infos)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		t := infos[i]
		fmt.Fprintf(&sb, "%d\t%s\tstate=%d\tprio=%d\tticks=%d\n", t.ID, t.Name, t.State, t.Priority, t.CPUTicks)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (c *Controller) memInfo() string {
	stats := c.machine.MemStats()
	return fmt.Sprintf("free_pages=%d used_pages=%d total_pages=%d", stats.FreePages, stats.UsedPages, stats.TotalPages)
}

func (c *Controller) uptime() string {
	return fmt.Sprintf("%dms", c.machine.Clock.GetMS())
}
